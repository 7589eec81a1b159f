package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/m3rciful/keyshop/internal/domain"
)

type recordingNotifier struct {
	sent map[int64][]string
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID int64, text string) error {
	if n.sent == nil {
		n.sent = make(map[int64][]string)
	}
	n.sent[userID] = append(n.sent[userID], text)
	return nil
}

func TestSweepNotifiesOwnersOfUsedExpiredKeysOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := seedProduct(store, "game", "10.00")
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	sold := store.addKey(domain.Key{
		ProductID: p.ID, Name: "sold-stale",
		Value:     sql.NullString{String: "v", Valid: true},
		ExpiresAt: sql.NullTime{Time: now.AddDate(0, 0, -1), Valid: true},
	})
	store.keys[sold.ID].Used = true
	store.keys[sold.ID].OwnerID = sql.NullInt64{Int64: 55, Valid: true}
	store.products[p.ID].AvailableKeys--

	// Expired but never sold: nobody to notify.
	store.addKey(domain.Key{
		ProductID: p.ID, Name: "free-stale",
		Value:     sql.NullString{String: "v", Valid: true},
		ExpiresAt: sql.NullTime{Time: now.AddDate(0, 0, -2), Valid: true},
	})

	svc := NewKeyService(store)
	svc.now = func() time.Time { return now }
	notifier := &recordingNotifier{}
	sweeper := NewExpirySweeper(svc, notifier, "0 3 * * *")

	if err := sweeper.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notifier.sent[55]) != 1 {
		t.Fatalf("owner notices = %d, want 1", len(notifier.sent[55]))
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("notified %d users, want 1", len(notifier.sent))
	}

	// Second sweep does not repeat the notice.
	if err := sweeper.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notifier.sent[55]) != 1 {
		t.Fatalf("repeat sweep re-notified: %d", len(notifier.sent[55]))
	}
}
