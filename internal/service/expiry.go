package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/keyshop/core/logger"
	"github.com/m3rciful/keyshop/internal/domain"
	"log/slog"
)

// Notifier delivers expiry notices to key owners.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string) error
}

// ExpirySweeper periodically reports keys past their expiry to the
// owners who bought them.
type ExpirySweeper struct {
	keys     *KeyService
	notifier Notifier
	cron     *cron.Cron
	spec     string

	// notified remembers key ids already reported, so owners get one
	// notice per key per process lifetime.
	notified map[int64]struct{}
}

func NewExpirySweeper(keys *KeyService, notifier Notifier, spec string) *ExpirySweeper {
	return &ExpirySweeper{
		keys:     keys,
		notifier: notifier,
		cron:     cron.New(),
		spec:     spec,
		notified: make(map[int64]struct{}),
	}
}

// Start schedules the sweep and begins the cron loop.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.Sweep(ctx); err != nil {
			logger.SVCKeys.Error("expiry.sweep_failed", slog.String("err", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule expiry sweep %q: %w", s.spec, err)
	}
	s.cron.Start()
	logger.SVCKeys.Info("expiry.sweeper_started", slog.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop, waiting for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

// Sweep finds expired keys and notifies owners of used ones.
func (s *ExpirySweeper) Sweep(ctx context.Context) error {
	expired, err := s.keys.Expired(ctx)
	if err != nil {
		return err
	}
	var reported int
	for _, k := range expired {
		if !k.Used || !k.OwnerID.Valid {
			continue
		}
		if _, done := s.notified[k.ID]; done {
			continue
		}
		text := expiryNotice(k)
		if err := s.notifier.NotifyUser(ctx, k.OwnerID.Int64, text); err != nil {
			logger.SVCKeys.Warn("expiry.notify_failed",
				slog.Int64("key_id", k.ID),
				slog.Int64("owner_id", k.OwnerID.Int64),
				slog.String("err", err.Error()),
			)
			continue
		}
		s.notified[k.ID] = struct{}{}
		reported++
	}
	logger.SVCKeys.Info("expiry.swept",
		slog.Int("expired", len(expired)),
		slog.Int("reported", reported),
	)
	return nil
}

func expiryNotice(k domain.Key) string {
	return fmt.Sprintf("Your key %q expired on %s. Contact support to renew it.",
		k.Name, k.ExpiresAt.Time.Format(time.DateOnly))
}
