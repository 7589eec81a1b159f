package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrOrderNotPending guards state transitions: approve and reject
	// apply to pending orders only.
	ErrOrderNotPending = errors.New("order is not pending")
	// ErrDuplicateKeyName indicates a key name collision within a product.
	ErrDuplicateKeyName = errors.New("key name already exists")
	// ErrDuplicateCategory indicates a category name collision.
	ErrDuplicateCategory = errors.New("category already exists")
	// ErrKeyPayloadMismatch indicates a text edit of a file key or vice versa.
	ErrKeyPayloadMismatch = errors.New("key payload kind mismatch")
	// ErrEmptyCart indicates a checkout attempt with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// InsufficientStockError reports a fulfillment shortfall. The order
// stays untouched when it is returned.
type InsufficientStockError struct {
	ProductID int64
	Want      int
	Have      int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: want %d, have %d", e.ProductID, e.Want, e.Have)
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}
