package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a per-user, per-product quantity intent. Lines are consumed
// and deleted in bulk when an order is placed from them.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartEntry is a cart line joined with the product attributes a buyer needs
// to review before checkout. LineTotal is computed from the catalog price,
// never from anything the client sent.
type CartEntry struct {
	CartItem
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Stock       int     `json:"stock"`
	IsActive    bool    `json:"is_active"`
	LineTotal   float64 `json:"line_total"`
}
