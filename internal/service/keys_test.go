package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/keyshop/internal/domain"
)

func seedProduct(m *memStore, name string, price string) *domain.Product {
	cat := m.addCategory("games")
	return m.addProduct(domain.Product{
		CategoryID:  cat.ID,
		Name:        name,
		Description: "test product",
		Price:       decimal.RequireFromString(price),
	})
}

func seedKeys(m *memStore, productID int64, n int) {
	for i := 0; i < n; i++ {
		m.addKey(domain.Key{
			ProductID: productID,
			Name:      "key-" + string(rune('a'+i)),
			Value:     sql.NullString{String: "SECRET", Valid: true},
		})
	}
}

func TestKeyAddIncrementsCounter(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	svc := NewKeyService(store)

	id, err := svc.Add(ctx, AddKeyInput{ProductID: p.ID, Name: "alpha", Value: "AAA-BBB"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id == 0 {
		t.Fatal("Add returned zero id")
	}

	got, _ := store.Product(ctx, p.ID)
	if got.AvailableKeys != 1 {
		t.Fatalf("available_keys = %d, want 1", got.AvailableKeys)
	}
	if got.AvailableKeys != store.unusedCount(p.ID) {
		t.Fatalf("counter %d diverges from unused rows %d", got.AvailableKeys, store.unusedCount(p.ID))
	}
}

func TestKeyAddRejectsBothOrNeitherPayload(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	svc := NewKeyService(store)

	_, err := svc.Add(ctx, AddKeyInput{ProductID: p.ID, Name: "x"})
	if !errors.Is(err, domain.ErrKeyPayloadMismatch) {
		t.Fatalf("no payload: err = %v", err)
	}
	_, err = svc.Add(ctx, AddKeyInput{ProductID: p.ID, Name: "x", Value: "v", File: "f"})
	if !errors.Is(err, domain.ErrKeyPayloadMismatch) {
		t.Fatalf("both payloads: err = %v", err)
	}
}

func TestKeyAddRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	svc := NewKeyService(store)

	if _, err := svc.Add(ctx, AddKeyInput{ProductID: p.ID, Name: "alpha", Value: "v1"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Add(ctx, AddKeyInput{ProductID: p.ID, Name: "alpha", Value: "v2"})
	if !errors.Is(err, domain.ErrDuplicateKeyName) {
		t.Fatalf("err = %v, want ErrDuplicateKeyName", err)
	}
}

func TestKeyEditPayloadKindGuard(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	textKey := store.addKey(domain.Key{ProductID: p.ID, Name: "text", Value: sql.NullString{String: "v", Valid: true}})
	fileKey := store.addKey(domain.Key{ProductID: p.ID, Name: "file", File: sql.NullString{String: "doc-id", Valid: true}})
	svc := NewKeyService(store)

	if err := svc.Edit(ctx, textKey.ID, KeyFieldFile, "other-doc"); !errors.Is(err, domain.ErrKeyPayloadMismatch) {
		t.Fatalf("file edit of text key: err = %v", err)
	}
	if err := svc.Edit(ctx, fileKey.ID, KeyFieldValue, "plain"); !errors.Is(err, domain.ErrKeyPayloadMismatch) {
		t.Fatalf("value edit of file key: err = %v", err)
	}
	if err := svc.Edit(ctx, textKey.ID, KeyFieldValue, "new-secret"); err != nil {
		t.Fatalf("legit value edit: %v", err)
	}
	got, _ := store.Key(ctx, textKey.ID)
	if got.Value.String != "new-secret" {
		t.Fatalf("value = %q", got.Value.String)
	}
}

func TestKeyEditExpiry(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	k := store.addKey(domain.Key{ProductID: p.ID, Name: "k", Value: sql.NullString{String: "v", Valid: true}})

	svc := NewKeyService(store)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.Edit(ctx, k.ID, KeyFieldExpiry, "30"); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Key(ctx, k.ID)
	if !got.ExpiresAt.Valid || !got.ExpiresAt.Time.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("expires_at = %v", got.ExpiresAt)
	}

	if err := svc.Edit(ctx, k.ID, KeyFieldExpiry, "-"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Key(ctx, k.ID)
	if got.ExpiresAt.Valid {
		t.Fatalf("expiry not cleared: %v", got.ExpiresAt)
	}

	if err := svc.Edit(ctx, k.ID, KeyFieldExpiry, "2026-12-31"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Key(ctx, k.ID)
	if !got.ExpiresAt.Valid || got.ExpiresAt.Time.Format(time.DateOnly) != "2026-12-31" {
		t.Fatalf("absolute date expiry = %v", got.ExpiresAt)
	}

	if err := svc.Edit(ctx, k.ID, KeyFieldExpiry, "zero"); err == nil {
		t.Fatal("non-numeric expiry accepted")
	}
}

func TestKeyDeleteCounterOnlyForUnused(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	unused := store.addKey(domain.Key{ProductID: p.ID, Name: "free", Value: sql.NullString{String: "v", Valid: true}})
	used := store.addKey(domain.Key{ProductID: p.ID, Name: "sold", Value: sql.NullString{String: "v", Valid: true}})
	store.keys[used.ID].Used = true
	store.products[p.ID].AvailableKeys-- // addKey counted it as unused

	svc := NewKeyService(store)

	if err := svc.Delete(ctx, used.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Product(ctx, p.ID)
	if got.AvailableKeys != 1 {
		t.Fatalf("deleting used key moved counter: %d", got.AvailableKeys)
	}

	if err := svc.Delete(ctx, unused.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Product(ctx, p.ID)
	if got.AvailableKeys != 0 {
		t.Fatalf("counter = %d, want 0", got.AvailableKeys)
	}
}

func TestFulfillExactQuantityAndShortfall(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	seedKeys(store, p.ID, 3)
	svc := NewKeyService(store)

	keys, err := svc.Fulfill(ctx, p.ID, 2, 777)
	if err != nil {
		t.Fatalf("Fulfill: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("dispensed %d keys, want 2", len(keys))
	}
	for _, k := range keys {
		if !k.Used || k.OwnerID.Int64 != 777 {
			t.Fatalf("key %d not assigned to buyer: %+v", k.ID, k)
		}
	}
	got, _ := store.Product(ctx, p.ID)
	if got.AvailableKeys != 1 {
		t.Fatalf("available_keys = %d, want 1", got.AvailableKeys)
	}

	_, err = svc.Fulfill(ctx, p.ID, 2, 777)
	var ise *domain.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if ise.Want != 2 || ise.Have != 1 {
		t.Fatalf("shortfall detail = %+v", ise)
	}
	// Nothing mutated on shortfall.
	got, _ = store.Product(ctx, p.ID)
	if got.AvailableKeys != 1 || store.unusedCount(p.ID) != 1 {
		t.Fatalf("shortfall mutated state: counter=%d unused=%d", got.AvailableKeys, store.unusedCount(p.ID))
	}
}

func TestExpiredListing(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	store.addKey(domain.Key{ProductID: p.ID, Name: "fresh", Value: sql.NullString{String: "v", Valid: true},
		ExpiresAt: sql.NullTime{Time: now.AddDate(0, 0, 5), Valid: true}})
	stale := store.addKey(domain.Key{ProductID: p.ID, Name: "stale", Value: sql.NullString{String: "v", Valid: true},
		ExpiresAt: sql.NullTime{Time: now.AddDate(0, 0, -5), Valid: true}})
	store.addKey(domain.Key{ProductID: p.ID, Name: "forever", Value: sql.NullString{String: "v", Valid: true}})

	svc := NewKeyService(store)
	svc.now = func() time.Time { return now }

	expired, err := svc.Expired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0].ID != stale.ID {
		t.Fatalf("expired = %+v", expired)
	}
}
