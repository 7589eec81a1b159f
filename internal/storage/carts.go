package storage

import (
	"context"
	"fmt"

	"github.com/m3rciful/keyshop/internal/domain"
)

// AddToCart inserts a cart line or bumps quantity on repeat add.
func (s *Storage) AddToCart(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart (user_id, product_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart.quantity + 1`,
		userID, productID)
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// CartItems lists the user's cart joined with product name and price.
func (s *Storage) CartItems(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT c.user_id, c.product_id, c.quantity, p.name, p.price
		FROM cart c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY p.name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("select cart of user %d: %w", userID, err)
	}
	return items, nil
}

// ClearCart drops every cart line of the user.
func (s *Storage) ClearCart(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart of user %d: %w", userID, err)
	}
	return nil
}
