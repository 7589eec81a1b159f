package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/keyshop/internal/domain"
)

// CreateOrder snapshots the given cart lines into an order with items
// at current prices and clears the cart, all in one transaction.
func (s *Storage) CreateOrder(ctx context.Context, o *domain.Order, items []domain.CartItem) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Subtotal())
		}
		err := tx.GetContext(ctx, &id, `
			INSERT INTO orders (user_id, username, total, status, payment_ref)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			o.UserID, o.Username, total, domain.OrderPending, o.PaymentRef)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, it := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4)`,
				id, it.ProductID, it.Quantity, it.Price)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1`, o.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		o.ID = id
		o.Total = total
		o.Status = domain.OrderPending
		return nil
	})
	return id, err
}

// Order returns an order by id.
func (s *Storage) Order(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := s.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order %d: %w", id, err)
	}
	return &o, nil
}

// LatestPendingOrder returns the user's most recent pending order.
func (s *Storage) LatestPendingOrder(ctx context.Context, userID int64) (*domain.Order, error) {
	var o domain.Order
	err := s.db.GetContext(ctx, &o, `
		SELECT * FROM orders
		WHERE user_id = $1 AND status = $2
		ORDER BY id DESC
		LIMIT 1`,
		userID, domain.OrderPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select pending order of user %d: %w", userID, err)
	}
	return &o, nil
}

// OrderItems lists the snapshot lines of an order.
func (s *Storage) OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := s.db.SelectContext(ctx, &items,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select items of order %d: %w", orderID, err)
	}
	return items, nil
}

// MarkOrderPaid records payment confirmation on a pending order.
func (s *Storage) MarkOrderPaid(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return transitionOrderTx(ctx, tx, id, domain.OrderPaid, domain.OrderPending)
	})
}

// RejectOrder moves a pending or paid order to rejected. Keys are never
// touched.
func (s *Storage) RejectOrder(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return transitionOrderTx(ctx, tx, id, domain.OrderRejected, domain.OrderPending, domain.OrderPaid)
	})
}

// transitionOrderTx locks the order row and moves it to the target
// status when the current status is in the allowed set. A settled order
// (completed or rejected) yields ErrOrderNotPending.
func transitionOrderTx(ctx context.Context, tx *sqlx.Tx, id int64, to domain.OrderStatus, from ...domain.OrderStatus) error {
	var current domain.OrderStatus
	err := tx.GetContext(ctx, &current,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock order %d: %w", id, err)
	}
	allowed := false
	for _, st := range from {
		if current == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.ErrOrderNotPending
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`, id, to); err != nil {
		return fmt.Errorf("update order %d status: %w", id, err)
	}
	return nil
}

// FulfillOrder approves an open order: re-checks state under lock,
// dispenses keys for every item, and marks the order completed. On any
// shortfall nothing is mutated and the order stays in its prior state.
func (s *Storage) FulfillOrder(ctx context.Context, orderID, buyerID int64) ([]domain.Key, error) {
	var dispensed []domain.Key
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := transitionOrderTx(ctx, tx, orderID, domain.OrderCompleted,
			domain.OrderPending, domain.OrderPaid); err != nil {
			return err
		}
		var items []domain.OrderItem
		err := tx.SelectContext(ctx, &items,
			`SELECT * FROM order_items WHERE order_id = $1 ORDER BY product_id`, orderID)
		if err != nil {
			return fmt.Errorf("select items of order %d: %w", orderID, err)
		}
		for _, it := range items {
			keys, err := consumeKeysTx(ctx, tx, it.ProductID, it.Quantity, buyerID)
			if err != nil {
				return err
			}
			dispensed = append(dispensed, keys...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dispensed, nil
}
