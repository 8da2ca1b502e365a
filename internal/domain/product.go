package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLowStockThreshold is applied to products created without an
// explicit threshold.
const DefaultLowStockThreshold = 5

// Product represents a sellable grocery item. Stock is the authoritative
// count of purchasable units and is only ever mutated through conditional
// updates in the repository layer.
type Product struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Description       string    `json:"description" db:"description"`
	Price             float64   `json:"price" db:"price"`
	CategoryID        uuid.UUID `json:"category_id" db:"category_id"`
	ImageURL          string    `json:"image_url" db:"image_url"`
	Stock             int       `json:"stock" db:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	IsDeleted         bool      `json:"is_deleted" db:"is_deleted"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Purchasable reports whether the product can currently be added to carts
// or reserved for orders.
func (p *Product) Purchasable() bool {
	return p.IsActive && !p.IsDeleted
}

// LowOnStock reports whether the current stock has fallen to or below the
// product's restock threshold.
func (p *Product) LowOnStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
