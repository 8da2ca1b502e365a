package service

import (
	"context"
	"errors"
	"testing"

	"groceazy/internal/domain"
	"groceazy/internal/repository"

	"github.com/google/uuid"
)

type cartFixture struct {
	store   *memoryStore
	service CartService
}

func newCartFixture() *cartFixture {
	store := newMemoryStore()
	return &cartFixture{
		store:   store,
		service: NewCartService(&mockCartRepo{store: store}, &mockProductRepo{store: store}),
	}
}

func (f *cartFixture) addProduct(name string, price float64, stock int) *domain.Product {
	product := &domain.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	f.store.products[product.ID] = product
	return product
}

func TestAddItemCreatesLine(t *testing.T) {
	f := newCartFixture()
	userID := uuid.New()
	apples := f.addProduct("Apples", 2.50, 10)

	item, err := f.service.AddItem(context.Background(), userID, apples.ID, 3)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", item.Quantity)
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	f := newCartFixture()
	userID := uuid.New()
	apples := f.addProduct("Apples", 2.50, 10)

	if _, err := f.service.AddItem(context.Background(), userID, apples.ID, 2); err != nil {
		t.Fatalf("first AddItem failed: %v", err)
	}
	item, err := f.service.AddItem(context.Background(), userID, apples.ID, 3)
	if err != nil {
		t.Fatalf("second AddItem failed: %v", err)
	}

	if item.Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", item.Quantity)
	}
	if len(f.store.carts[userID]) != 1 {
		t.Errorf("expected a single cart line, got %d", len(f.store.carts[userID]))
	}
}

func TestAddItemRejectsBadQuantityAndBadProduct(t *testing.T) {
	f := newCartFixture()
	userID := uuid.New()
	apples := f.addProduct("Apples", 2.50, 10)

	if _, err := f.service.AddItem(context.Background(), userID, apples.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got: %v", err)
	}

	if _, err := f.service.AddItem(context.Background(), userID, uuid.New(), 1); !errors.Is(err, ErrProductNotAvailable) {
		t.Errorf("expected ErrProductNotAvailable for unknown product, got: %v", err)
	}

	apples.IsActive = false
	if _, err := f.service.AddItem(context.Background(), userID, apples.ID, 1); !errors.Is(err, ErrProductNotAvailable) {
		t.Errorf("expected ErrProductNotAvailable for inactive product, got: %v", err)
	}
}

func TestGetCartComputesLineTotals(t *testing.T) {
	f := newCartFixture()
	userID := uuid.New()
	apples := f.addProduct("Apples", 2.50, 10)
	bread := f.addProduct("Bread", 3.00, 10)

	if _, err := f.service.AddItem(context.Background(), userID, apples.ID, 4); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := f.service.AddItem(context.Background(), userID, bread.ID, 1); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	entries, err := f.service.GetCart(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetCart failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	totals := map[string]float64{}
	for _, e := range entries {
		totals[e.ProductName] = e.LineTotal
	}
	if totals["Apples"] != 10.00 {
		t.Errorf("expected apples line total 10.00, got %.2f", totals["Apples"])
	}
	if totals["Bread"] != 3.00 {
		t.Errorf("expected bread line total 3.00, got %.2f", totals["Bread"])
	}
}

func TestUpdateItemSetsQuantity(t *testing.T) {
	f := newCartFixture()
	userID := uuid.New()
	apples := f.addProduct("Apples", 2.50, 10)

	item, err := f.service.AddItem(context.Background(), userID, apples.ID, 2)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	updated, err := f.service.UpdateItem(context.Background(), userID, item.ID, 7)
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.Quantity != 7 {
		t.Errorf("expected quantity 7, got %d", updated.Quantity)
	}

	if _, err := f.service.UpdateItem(context.Background(), userID, item.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got: %v", err)
	}
	if _, err := f.service.UpdateItem(context.Background(), userID, uuid.New(), 1); !errors.Is(err, repository.ErrCartItemNotFound) {
		t.Errorf("expected ErrCartItemNotFound, got: %v", err)
	}
}

func TestRemoveItemAndClearCart(t *testing.T) {
	f := newCartFixture()
	userID := uuid.New()
	apples := f.addProduct("Apples", 2.50, 10)
	bread := f.addProduct("Bread", 3.00, 10)

	item, err := f.service.AddItem(context.Background(), userID, apples.ID, 1)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := f.service.AddItem(context.Background(), userID, bread.ID, 1); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	if err := f.service.RemoveItem(context.Background(), userID, item.ID); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if len(f.store.carts[userID]) != 1 {
		t.Errorf("expected 1 line after removal, got %d", len(f.store.carts[userID]))
	}

	if err := f.service.ClearCart(context.Background(), userID); err != nil {
		t.Fatalf("ClearCart failed: %v", err)
	}
	if len(f.store.carts[userID]) != 0 {
		t.Errorf("expected empty cart after clear")
	}

	// Clearing an already empty cart is fine.
	if err := f.service.ClearCart(context.Background(), userID); err != nil {
		t.Errorf("clearing an empty cart must not fail: %v", err)
	}
}
