package service

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/keyshop/internal/domain"
)

func TestCheckoutSnapshotsCartAndClearsIt(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p1 := seedProduct(store, "alpha", "10.00")
	p2 := store.addProduct(domain.Product{CategoryID: p1.CategoryID, Name: "beta", Description: "d", Price: decimalFrom("2.50")})

	cart := NewCartService(store)
	orders := NewOrderService(store)

	if err := cart.Add(ctx, 42, p1.ID); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(ctx, 42, p1.ID); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(ctx, 42, p2.ID); err != nil {
		t.Fatal(err)
	}

	o, items, err := orders.Checkout(ctx, 42, "buyer")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("snapshot lines = %d, want 2", len(items))
	}
	if o.Status != domain.OrderPending {
		t.Fatalf("status = %s", o.Status)
	}
	if o.Total.StringFixed(2) != "22.50" {
		t.Fatalf("total = %s, want 22.50", o.Total.StringFixed(2))
	}
	if o.PaymentRef == "" {
		t.Fatal("payment_ref not set")
	}

	left, _ := cart.Items(ctx, 42)
	if len(left) != 0 {
		t.Fatalf("cart not cleared: %d lines", len(left))
	}

	// Later price changes must not affect the snapshot.
	store.products[p1.ID].Price = decimalFrom("99.99")
	snap, _ := orders.Items(ctx, o.ID)
	for _, it := range snap {
		if it.ProductID == p1.ID && it.UnitPrice.StringFixed(2) != "10.00" {
			t.Fatalf("snapshot price drifted: %s", it.UnitPrice.StringFixed(2))
		}
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	orders := NewOrderService(store)

	_, _, err := orders.Checkout(ctx, 42, "buyer")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestApproveDispensesKeysAndCompletes(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	seedKeys(store, p.ID, 3)

	cart := NewCartService(store)
	orders := NewOrderService(store)

	_ = cart.Add(ctx, 42, p.ID)
	_ = cart.Add(ctx, 42, p.ID)
	o, _, err := orders.Checkout(ctx, 42, "buyer")
	if err != nil {
		t.Fatal(err)
	}

	got, keys, err := orders.Approve(ctx, o.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != domain.OrderCompleted {
		t.Fatalf("status = %s", got.Status)
	}
	if len(keys) != 2 {
		t.Fatalf("dispensed %d keys, want 2", len(keys))
	}
	for _, k := range keys {
		if !k.Used || k.OwnerID.Int64 != 42 {
			t.Fatalf("key %d not pinned to buyer: %+v", k.ID, k)
		}
	}
	prod, _ := store.Product(ctx, p.ID)
	if prod.AvailableKeys != 1 {
		t.Fatalf("available_keys = %d, want 1", prod.AvailableKeys)
	}
}

func TestApproveShortfallLeavesOrderOpen(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	seedKeys(store, p.ID, 1)

	cart := NewCartService(store)
	orders := NewOrderService(store)

	_ = cart.Add(ctx, 42, p.ID)
	_ = cart.Add(ctx, 42, p.ID)
	o, _, err := orders.Checkout(ctx, 42, "buyer")
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = orders.Approve(ctx, o.ID)
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}

	got, _ := orders.Order(ctx, o.ID)
	if got.Status != domain.OrderPending {
		t.Fatalf("status = %s, want pending after shortfall", got.Status)
	}
	if store.unusedCount(p.ID) != 1 {
		t.Fatal("shortfall consumed keys")
	}
}

func TestApproveIsIdempotentGuarded(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	seedKeys(store, p.ID, 2)

	cart := NewCartService(store)
	orders := NewOrderService(store)

	_ = cart.Add(ctx, 42, p.ID)
	o, _, _ := orders.Checkout(ctx, 42, "buyer")

	if _, _, err := orders.Approve(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	_, _, err := orders.Approve(ctx, o.ID)
	if !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("second approve: err = %v, want ErrOrderNotPending", err)
	}
	// No extra keys consumed by the repeat press.
	prod, _ := store.Product(ctx, p.ID)
	if prod.AvailableKeys != 1 {
		t.Fatalf("available_keys = %d, want 1", prod.AvailableKeys)
	}
}

func TestPaidThenApproveAndRejectPaths(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	seedKeys(store, p.ID, 2)

	cart := NewCartService(store)
	orders := NewOrderService(store)

	_ = cart.Add(ctx, 42, p.ID)
	o1, _, _ := orders.Checkout(ctx, 42, "buyer")

	if err := orders.ConfirmPayment(ctx, o1.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := orders.Order(ctx, o1.ID)
	if got.Status != domain.OrderPaid {
		t.Fatalf("status = %s, want paid", got.Status)
	}
	if err := orders.ConfirmPayment(ctx, o1.ID); !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("double confirm: err = %v", err)
	}
	if _, _, err := orders.Approve(ctx, o1.ID); err != nil {
		t.Fatalf("approve paid order: %v", err)
	}

	_ = cart.Add(ctx, 43, p.ID)
	o2, _, _ := orders.Checkout(ctx, 43, "other")
	rejected, err := orders.Reject(ctx, o2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != domain.OrderRejected {
		t.Fatalf("status = %s", rejected.Status)
	}
	if store.unusedCount(p.ID) != 1 {
		t.Fatal("reject touched keys")
	}
	if _, err := orders.Reject(ctx, o2.ID); !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("double reject: err = %v", err)
	}
}

func TestLatestPendingPicksNewest(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")

	cart := NewCartService(store)
	orders := NewOrderService(store)

	_ = cart.Add(ctx, 42, p.ID)
	first, _, _ := orders.Checkout(ctx, 42, "buyer")
	_ = cart.Add(ctx, 42, p.ID)
	second, _, _ := orders.Checkout(ctx, 42, "buyer")

	got, err := orders.LatestPending(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != second.ID {
		t.Fatalf("latest pending = %d, want %d (first was %d)", got.ID, second.ID, first.ID)
	}
}
