package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/keyshop/core/logger"
	"github.com/m3rciful/keyshop/internal/domain"
	"log/slog"
)

// CartStore is the persistence surface CartService needs.
type CartStore interface {
	Product(ctx context.Context, id int64) (*domain.Product, error)
	AddToCart(ctx context.Context, userID, productID int64) error
	CartItems(ctx context.Context, userID int64) ([]domain.CartItem, error)
	ClearCart(ctx context.Context, userID int64) error
}

// CartService manages per-user carts.
type CartService struct {
	store CartStore
}

func NewCartService(store CartStore) *CartService {
	return &CartService{store: store}
}

// Add puts one unit of the product into the user's cart, incrementing
// quantity on repeat adds.
func (s *CartService) Add(ctx context.Context, userID, productID int64) error {
	if _, err := s.store.Product(ctx, productID); err != nil {
		return err
	}
	if err := s.store.AddToCart(ctx, userID, productID); err != nil {
		return err
	}
	logger.SVCCart.Info("cart.added",
		slog.Int64("user_id", userID),
		slog.Int64("product_id", productID),
	)
	return nil
}

func (s *CartService) Items(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	return s.store.CartItems(ctx, userID)
}

// Total sums the subtotals of the user's cart.
func (s *CartService) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	items, err := s.store.CartItems(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total, nil
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	if err := s.store.ClearCart(ctx, userID); err != nil {
		return err
	}
	logger.SVCCart.Info("cart.cleared", slog.Int64("user_id", userID))
	return nil
}
