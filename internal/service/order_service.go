package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"groceazy/internal/database"
	"groceazy/internal/domain"
	"groceazy/internal/notifier"
	"groceazy/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrCartEmpty           = errors.New("cart is empty")
	ErrInvalidAddress      = errors.New("shipping address is incomplete")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled in its current state")
	ErrDeliveredImmutable  = errors.New("delivered order status cannot be changed")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
)

// ProductUnavailableError means a cart line references a product that has
// been deleted or deactivated since it was added.
type ProductUnavailableError struct {
	Name string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product no longer available: %s", e.Name)
}

// InsufficientStockError means a product exists and is purchasable but does
// not have enough stock for the requested quantity.
type InsufficientStockError struct {
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (available: %d, requested: %d)",
		e.Name, e.Available, e.Requested)
}

// OrderService converts carts into orders and drives orders through their
// status state machine, keeping product stock consistent with the set of
// non-cancelled orders at every step.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, address domain.Address) (*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context, page, pageSize int) ([]*domain.Order, int, error)
}

type orderService struct {
	tx          database.TxRunner
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	notifier    notifier.Notifier
	adminEmail  string
	logger      *zap.Logger
}

// NewOrderService creates a new instance of OrderService. adminEmail
// additionally receives every low stock alert; empty disables that copy.
func NewOrderService(
	tx database.TxRunner,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	n notifier.Notifier,
	adminEmail string,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		tx:          tx,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		notifier:    n,
		adminEmail:  adminEmail,
		logger:      logger,
	}
}

// PlaceOrder converts the user's cart into a durable order. Cart read, stock
// reservation, order insert, and cart clear commit or roll back as one unit;
// a failed placement leaves stock and cart exactly as they were. The item
// prices always come from the catalog, never from the client.
func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, address domain.Address) (*domain.Order, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	var (
		order    *domain.Order
		lowStock []*domain.Product
	)

	err := s.tx.RunInTx(ctx, func(tx *sql.Tx) error {
		// The closure re-runs from scratch on a transient conflict.
		order = nil
		lowStock = lowStock[:0]

		carts := s.cartRepo.WithTx(tx)
		products := s.productRepo.WithTx(tx)
		orders := s.orderRepo.WithTx(tx)

		lines, err := carts.FindByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to read cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		now := time.Now()
		items := make([]domain.OrderItem, 0, len(lines))
		var total float64

		for _, line := range lines {
			product, err := s.reserve(ctx, products, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}

			lineTotal := product.Price * float64(line.Quantity)
			items = append(items, domain.OrderItem{
				ID:        uuid.New(),
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				LineTotal: lineTotal,
			})
			total += lineTotal

			if product.LowOnStock() {
				lowStock = append(lowStock, product)
			}
		}

		order = &domain.Order{
			ID:            uuid.New(),
			UserID:        userID,
			Address:       address,
			Items:         items,
			TotalAmount:   total,
			Status:        domain.StatusPending,
			PaymentStatus: domain.PaymentPending,
			PaymentMethod: domain.PaymentMethodCOD,
			PlacedAt:      now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		return carts.Clear(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalAmount),
	)

	// Notifications happen after the commit and never affect the result.
	go s.afterPlacement(order, lowStock)

	return order, nil
}

// reserve runs the atomic conditional decrement and translates a failed
// precondition into the right availability error, re-fetching the product to
// tell "gone" apart from "not enough stock".
func (s *orderService) reserve(ctx context.Context, products repository.ProductRepository, productID uuid.UUID, quantity int) (*domain.Product, error) {
	product, err := products.ReserveStock(ctx, productID, quantity)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, repository.ErrStockConditionFailed) {
		return nil, err
	}

	current, ferr := products.FindByID(ctx, productID)
	if ferr != nil {
		if errors.Is(ferr, repository.ErrProductNotFound) {
			return nil, &ProductUnavailableError{Name: productID.String()}
		}
		return nil, fmt.Errorf("failed to inspect product after reservation failure: %w", ferr)
	}

	if !current.Purchasable() {
		return nil, &ProductUnavailableError{Name: current.Name}
	}

	return nil, &InsufficientStockError{
		Name:      current.Name,
		Available: current.Stock,
		Requested: quantity,
	}
}

// CancelOrder cancels one of the caller's own orders, returning every
// reserved unit to stock. The restorations and the status write commit or
// roll back together.
func (s *orderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order

	err := s.tx.RunInTx(ctx, func(tx *sql.Tx) error {
		orders := s.orderRepo.WithTx(tx)
		products := s.productRepo.WithTx(tx)

		// Lock the order row so a concurrent transition cannot pass the
		// state check against a stale status and restore stock twice.
		o, err := orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return repository.ErrOrderNotFound
		}

		if !o.Cancellable() {
			return ErrOrderNotCancellable
		}

		for _, item := range o.Items {
			if _, err := products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to restore stock for %s: %w", item.ProductID, err)
			}
		}

		if err := orders.UpdateStatus(ctx, o.ID, domain.StatusCancelled); err != nil {
			return err
		}

		o.Status = domain.StatusCancelled
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
	)

	go s.notifyCustomer(order, domain.StatusCancelled)

	return order, nil
}

// UpdateOrderStatus moves an order to a new status (manager operation).
// Moving into Cancelled restores stock; moving out of Cancelled re-reserves
// it with the same availability check as placement, failing the whole change
// if any product cannot cover its quantity. All other transitions touch only
// the status column.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	var order *domain.Order

	err := s.tx.RunInTx(ctx, func(tx *sql.Tx) error {
		orders := s.orderRepo.WithTx(tx)
		products := s.productRepo.WithTx(tx)

		o, err := orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Terminal() {
			return ErrDeliveredImmutable
		}

		switch {
		case status == domain.StatusCancelled && o.Status != domain.StatusCancelled:
			for _, item := range o.Items {
				if _, err := products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("failed to restore stock for %s: %w", item.ProductID, err)
				}
			}
		case status != domain.StatusCancelled && o.Status == domain.StatusCancelled:
			for _, item := range o.Items {
				if _, err := s.reserve(ctx, products, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if err := orders.UpdateStatus(ctx, o.ID, status); err != nil {
			return err
		}

		o.Status = status
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)

	switch order.Status {
	case domain.StatusShipped, domain.StatusOutForDelivery, domain.StatusDelivered, domain.StatusCancelled:
		go s.notifyCustomer(order, order.Status)
	}

	return order, nil
}

// GetOrder retrieves a single order belonging to userID.
func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByIDForUser(ctx, orderID, userID)
}

// ListUserOrders retrieves the caller's orders, newest first.
func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// ListAllOrders retrieves all orders with pagination (manager view).
func (s *orderService) ListAllOrders(ctx context.Context, page, pageSize int) ([]*domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.List(ctx, page, pageSize)
}

// afterPlacement sends the confirmation email and low stock alerts. Runs in
// its own goroutine with its own deadline; every failure is logged and
// swallowed.
func (s *orderService) afterPlacement(order *domain.Order, lowStock []*domain.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	customer, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("Failed to load customer for order confirmation", zap.Error(err))
	} else {
		msg := notifier.OrderConfirmedEmail(customer.FullName(), order.ID.String(), order.TotalAmount)
		if err := s.notifier.Send(ctx, []string{customer.Email}, msg.Subject, msg.Body); err != nil {
			s.logger.Error("Failed to send order confirmation",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}

	if len(lowStock) == 0 {
		return
	}

	recipients := []string{}
	managers, err := s.userRepo.ListActiveManagers(ctx)
	if err != nil {
		s.logger.Error("Failed to load managers for low stock alert", zap.Error(err))
	} else {
		for _, m := range managers {
			recipients = append(recipients, m.Email)
		}
	}
	if s.adminEmail != "" {
		recipients = append(recipients, s.adminEmail)
	}
	if len(recipients) == 0 {
		return
	}

	for _, product := range lowStock {
		msg := notifier.LowStockEmail(product.Name, product.Stock, product.ID.String())
		if err := s.notifier.Send(ctx, recipients, msg.Subject, msg.Body); err != nil {
			s.logger.Error("Failed to send low stock alert",
				zap.String("product_id", product.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// notifyCustomer delivers a status email to the order's owner, best-effort.
func (s *orderService) notifyCustomer(order *domain.Order, status domain.OrderStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	customer, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("Failed to load customer for status notification", zap.Error(err))
		return
	}

	var msg notifier.Message
	if status == domain.StatusCancelled {
		msg = notifier.OrderCancelledEmail(customer.FullName(), order.ID.String())
	} else {
		msg = notifier.OrderStatusUpdateEmail(customer.FullName(), order.ID.String(), string(status))
	}

	if err := s.notifier.Send(ctx, []string{customer.Email}, msg.Subject, msg.Body); err != nil {
		s.logger.Error("Failed to send status notification",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func validateAddress(a domain.Address) error {
	fields := []struct {
		name  string
		value string
	}{
		{"full name", a.FullName},
		{"address line", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal code", a.PostalCode},
		{"phone", a.Phone},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidAddress, f.name)
		}
	}

	return nil
}
