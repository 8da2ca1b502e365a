package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"groceazy/internal/domain"

	"github.com/google/uuid"
)

func insertTestOrder(t *testing.T, userID uuid.UUID, items []domain.OrderItem) *domain.Order {
	t.Helper()

	total := 0.0
	for i := range items {
		items[i].ID = uuid.New()
		items[i].LineTotal = items[i].UnitPrice * float64(items[i].Quantity)
		total += items[i].LineTotal
	}

	now := time.Now()
	order := &domain.Order{
		ID:     uuid.New(),
		UserID: userID,
		Address: domain.Address{
			FullName:   "Test Buyer",
			Line1:      "12 Market Street",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62701",
			Phone:      "+15550001111",
		},
		Items:         items,
		TotalAmount:   total,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: domain.PaymentMethodCOD,
		PlacedAt:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := NewOrderRepository(testDB).Create(context.Background(), order); err != nil {
		t.Fatalf("failed to insert test order: %v", err)
	}
	t.Cleanup(func() {
		testDB.Exec("DELETE FROM orders WHERE id = $1", order.ID)
	})
	return order
}

func TestOrderCreateAndFindByIDRoundTrip(t *testing.T) {
	orderRepo := NewOrderRepository(testDB)
	user := insertTestUser(t)
	product := insertTestProduct(t, 100)
	ctx := context.Background()

	created := insertTestOrder(t, user.ID, []domain.OrderItem{
		{ProductID: product.ID, Quantity: 3, UnitPrice: 2.50},
	})

	retrieved, err := orderRepo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if retrieved.UserID != user.ID {
		t.Errorf("UserID mismatch: expected %s, got %s", user.ID, retrieved.UserID)
	}
	if retrieved.Address != created.Address {
		t.Errorf("Address mismatch: expected %+v, got %+v", created.Address, retrieved.Address)
	}
	if retrieved.Status != domain.StatusPending {
		t.Errorf("expected status Pending, got %s", retrieved.Status)
	}
	if retrieved.TotalAmount != 7.50 {
		t.Errorf("expected total 7.50, got %f", retrieved.TotalAmount)
	}
	if len(retrieved.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(retrieved.Items))
	}
	item := retrieved.Items[0]
	if item.ProductID != product.ID || item.Quantity != 3 || item.UnitPrice != 2.50 || item.LineTotal != 7.50 {
		t.Errorf("order item round trip mismatch: %+v", item)
	}
}

func TestOrderFindByIDForUserScopesToOwner(t *testing.T) {
	orderRepo := NewOrderRepository(testDB)
	owner := insertTestUser(t)
	stranger := insertTestUser(t)
	product := insertTestProduct(t, 100)
	ctx := context.Background()

	order := insertTestOrder(t, owner.ID, []domain.OrderItem{
		{ProductID: product.ID, Quantity: 1, UnitPrice: 4.00},
	})

	if _, err := orderRepo.FindByIDForUser(ctx, order.ID, owner.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}

	// Another user's order looks identical to a missing one.
	if _, err := orderRepo.FindByIDForUser(ctx, order.ID, stranger.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound for wrong user, got: %v", err)
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	orderRepo := NewOrderRepository(testDB)
	user := insertTestUser(t)
	product := insertTestProduct(t, 100)
	ctx := context.Background()

	order := insertTestOrder(t, user.ID, []domain.OrderItem{
		{ProductID: product.ID, Quantity: 1, UnitPrice: 4.00},
	})

	if err := orderRepo.UpdateStatus(ctx, order.ID, domain.StatusShipped); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	retrieved, err := orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if retrieved.Status != domain.StatusShipped {
		t.Errorf("expected status Shipped, got %s", retrieved.Status)
	}

	if err := orderRepo.UpdateStatus(ctx, uuid.New(), domain.StatusShipped); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound for unknown order, got: %v", err)
	}
}

func TestOrderListByUserReturnsOnlyOwnOrders(t *testing.T) {
	orderRepo := NewOrderRepository(testDB)
	buyer := insertTestUser(t)
	other := insertTestUser(t)
	product := insertTestProduct(t, 100)
	ctx := context.Background()

	first := insertTestOrder(t, buyer.ID, []domain.OrderItem{
		{ProductID: product.ID, Quantity: 1, UnitPrice: 1.00},
	})
	second := insertTestOrder(t, buyer.ID, []domain.OrderItem{
		{ProductID: product.ID, Quantity: 2, UnitPrice: 1.00},
	})
	insertTestOrder(t, other.ID, []domain.OrderItem{
		{ProductID: product.ID, Quantity: 1, UnitPrice: 1.00},
	})

	orders, err := orderRepo.ListByUser(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders for buyer, got %d", len(orders))
	}
	seen := map[uuid.UUID]bool{}
	for _, o := range orders {
		if o.UserID != buyer.ID {
			t.Errorf("foreign order leaked into listing: %s", o.ID)
		}
		if len(o.Items) == 0 {
			t.Errorf("order %s listed without items", o.ID)
		}
		seen[o.ID] = true
	}
	if !seen[first.ID] || !seen[second.ID] {
		t.Error("listing is missing one of the buyer's orders")
	}
}

// cancelInTx runs one cancellation attempt the way the order service does:
// lock the order row, check the status, restore stock, write Cancelled.
// Reports whether this transaction performed the restore.
func cancelInTx(t *testing.T, orderID uuid.UUID) bool {
	t.Helper()
	ctx := context.Background()

	tx, err := testDB.BeginTx(ctx, nil)
	if err != nil {
		t.Errorf("BeginTx failed: %v", err)
		return false
	}
	defer tx.Rollback()

	orders := NewOrderRepository(testDB).WithTx(tx)
	products := NewProductRepository(testDB).WithTx(tx)

	order, err := orders.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		t.Errorf("FindByIDForUpdate failed: %v", err)
		return false
	}
	if !order.Cancellable() {
		return false
	}

	for _, item := range order.Items {
		if _, err := products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			t.Errorf("RestoreStock failed: %v", err)
			return false
		}
	}
	if err := orders.UpdateStatus(ctx, order.ID, domain.StatusCancelled); err != nil {
		t.Errorf("UpdateStatus failed: %v", err)
		return false
	}
	if err := tx.Commit(); err != nil {
		t.Errorf("Commit failed: %v", err)
		return false
	}
	return true
}

func TestConcurrentCancellationsRestoreStockOnce(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	user := insertTestUser(t)
	product := insertTestProduct(t, 20)
	ctx := context.Background()

	// Place-like reservation so the cancellations have something to return.
	if _, err := productRepo.ReserveStock(ctx, product.ID, 8); err != nil {
		t.Fatalf("ReserveStock failed: %v", err)
	}
	order := insertTestOrder(t, user.ID, []domain.OrderItem{
		{ProductID: product.ID, Quantity: 8, UnitPrice: 2.50},
	})

	// A customer cancel racing a manager move into Cancelled runs this same
	// transaction shape on both sides. Without the row lock, both read
	// Pending and both restore.
	var wg sync.WaitGroup
	var mu sync.Mutex
	restores := 0
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cancelInTx(t, order.ID) {
				mu.Lock()
				restores++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if restores != 1 {
		t.Errorf("expected exactly one transaction to restore stock, got %d", restores)
	}

	retrieved, err := productRepo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if retrieved.Stock != 20 {
		t.Errorf("expected stock back at 20 after a single restore, got %d", retrieved.Stock)
	}

	final, err := NewOrderRepository(testDB).FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if final.Status != domain.StatusCancelled {
		t.Errorf("expected order Cancelled, got %s", final.Status)
	}
}

func TestOrderListPaginates(t *testing.T) {
	orderRepo := NewOrderRepository(testDB)
	user := insertTestUser(t)
	product := insertTestProduct(t, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		insertTestOrder(t, user.ID, []domain.OrderItem{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 1.00},
		})
	}

	page, total, err := orderRepo.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected page of 2 orders, got %d", len(page))
	}
	if total < 3 {
		t.Errorf("expected total of at least 3 orders, got %d", total)
	}
}
