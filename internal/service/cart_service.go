package service

import (
	"context"
	"errors"
	"fmt"

	"groceazy/internal/domain"
	"groceazy/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrProductNotAvailable = errors.New("product not available")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
)

// CartService defines the interface for cart business logic. The cart holds
// purchase intent only; no stock is held back until an order is placed.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartEntry, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart lines joined with current product data.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartEntry, error) {
	entries, err := s.cartRepo.ListWithProducts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return entries, nil
}

// AddItem adds a product to the cart or increments the existing line.
// Deleted and deactivated products are rejected up front; stock is only
// checked at placement time.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotAvailable
		}
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if !product.Purchasable() {
		return nil, ErrProductNotAvailable
	}

	item, err := s.cartRepo.AddOrIncrement(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	return item, nil
}

// UpdateItem sets the quantity of one of the caller's cart lines.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return s.cartRepo.UpdateQuantity(ctx, userID, itemID, quantity)
}

// RemoveItem deletes one of the caller's cart lines.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.cartRepo.Remove(ctx, userID, itemID)
}

// ClearCart deletes every line in the caller's cart.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.Clear(ctx, userID)
}
