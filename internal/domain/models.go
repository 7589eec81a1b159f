package domain

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates lifecycle states of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCompleted OrderStatus = "completed"
	OrderRejected  OrderStatus = "rejected"
)

// Banner is a storefront page header: an optional image plus caption,
// addressed by page name (main, catalog, cart, payment, about).
type Banner struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Image       sql.NullString `db:"image"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type Category struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Product is a sellable item. AvailableKeys mirrors the number of
// unused keys attached to the product and only changes together with
// key rows.
type Product struct {
	ID            int64           `db:"id"`
	CategoryID    int64           `db:"category_id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Price         decimal.Decimal `db:"price"`
	Image         sql.NullString  `db:"image"`
	AvailableKeys int             `db:"available_keys"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// Key carries either an inline text secret (Value) or a Telegram file
// id (File), never both. Once dispensed it is marked used and pinned to
// the buyer.
type Key struct {
	ID        int64          `db:"id"`
	ProductID int64          `db:"product_id"`
	Name      string         `db:"name"`
	Value     sql.NullString `db:"key_value"`
	File      sql.NullString `db:"key_file"`
	ExpiresAt sql.NullTime   `db:"expires_at"`
	Used      bool           `db:"used"`
	OwnerID   sql.NullInt64  `db:"owner_id"`
	CreatedAt time.Time      `db:"created_at"`
}

// IsFile reports whether the key payload is delivered as a document.
func (k Key) IsFile() bool { return k.File.Valid && k.File.String != "" }

// Expired reports whether the key has an expiry in the past.
func (k Key) Expired(now time.Time) bool {
	return k.ExpiresAt.Valid && k.ExpiresAt.Time.Before(now)
}

// CartItem is one cart line joined with its product for display.
type CartItem struct {
	UserID    int64           `db:"user_id"`
	ProductID int64           `db:"product_id"`
	Quantity  int             `db:"quantity"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
}

// Subtotal returns price multiplied by quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	Username   string          `db:"username"`
	Total      decimal.Decimal `db:"total"`
	Status     OrderStatus     `db:"status"`
	PaymentRef string          `db:"payment_ref"`
	CreatedAt  time.Time       `db:"created_at"`
}

// OrderItem is a price-and-quantity snapshot taken at checkout.
type OrderItem struct {
	OrderID   int64           `db:"order_id"`
	ProductID int64           `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

// Banner page names.
const (
	PageMain    = "main"
	PageCatalog = "catalog"
	PageCart    = "cart"
	PagePayment = "payment"
	PageAbout   = "about"
)
