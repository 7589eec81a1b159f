package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/m3rciful/keyshop/core/logger"
	"github.com/m3rciful/keyshop/internal/domain"
	"log/slog"
)

// OrderStore is the persistence surface OrderService needs.
type OrderStore interface {
	CartItems(ctx context.Context, userID int64) ([]domain.CartItem, error)
	CreateOrder(ctx context.Context, o *domain.Order, items []domain.CartItem) (int64, error)
	Order(ctx context.Context, id int64) (*domain.Order, error)
	LatestPendingOrder(ctx context.Context, userID int64) (*domain.Order, error)
	OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	MarkOrderPaid(ctx context.Context, id int64) error
	RejectOrder(ctx context.Context, id int64) error
	FulfillOrder(ctx context.Context, orderID, buyerID int64) ([]domain.Key, error)
}

// OrderService drives the order state machine:
// pending -> paid -> completed, pending/paid -> rejected.
type OrderService struct {
	store OrderStore
}

func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{store: store}
}

// Checkout snapshots the user's cart into a pending order at current
// prices and clears the cart. The payment reference is printed in the
// payment instruction so admins can match screenshots to orders.
func (s *OrderService) Checkout(ctx context.Context, userID int64, username string) (*domain.Order, []domain.CartItem, error) {
	items, err := s.store.CartItems(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, domain.ErrEmptyCart
	}

	o := &domain.Order{
		UserID:     userID,
		Username:   username,
		PaymentRef: uuid.NewString(),
	}
	id, err := s.store.CreateOrder(ctx, o, items)
	if err != nil {
		return nil, nil, err
	}
	logger.SVCOrders.Info("order.created",
		slog.Int64("order_id", id),
		slog.Int64("user_id", userID),
		slog.String("total", o.Total.StringFixed(2)),
	)
	return o, items, nil
}

func (s *OrderService) Order(ctx context.Context, id int64) (*domain.Order, error) {
	return s.store.Order(ctx, id)
}

// LatestPending returns the user's most recent pending order, the one a
// payment screenshot is matched to.
func (s *OrderService) LatestPending(ctx context.Context, userID int64) (*domain.Order, error) {
	return s.store.LatestPendingOrder(ctx, userID)
}

func (s *OrderService) Items(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	return s.store.OrderItems(ctx, orderID)
}

// ConfirmPayment records the admin's payment confirmation on a pending
// order.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID int64) error {
	if err := s.store.MarkOrderPaid(ctx, orderID); err != nil {
		return err
	}
	logger.SVCOrders.Info("order.paid", slog.Int64("order_id", orderID))
	return nil
}

// Approve dispenses keys for every order item and completes the order.
// A settled order returns ErrOrderNotPending and nothing changes; a
// stock shortfall returns InsufficientStockError and the order stays in
// its prior state.
func (s *OrderService) Approve(ctx context.Context, orderID int64) (*domain.Order, []domain.Key, error) {
	o, err := s.store.Order(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	keys, err := s.store.FulfillOrder(ctx, orderID, o.UserID)
	if err != nil {
		return o, nil, err
	}
	o.Status = domain.OrderCompleted
	logger.SVCOrders.Info("order.completed",
		slog.Int64("order_id", orderID),
		slog.Int("keys", len(keys)),
	)
	return o, keys, nil
}

// Reject declines an open order. Keys are untouched.
func (s *OrderService) Reject(ctx context.Context, orderID int64) (*domain.Order, error) {
	o, err := s.store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RejectOrder(ctx, orderID); err != nil {
		return o, err
	}
	o.Status = domain.OrderRejected
	logger.SVCOrders.Info("order.rejected", slog.Int64("order_id", orderID))
	return o, nil
}
