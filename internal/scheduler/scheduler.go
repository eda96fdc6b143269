// Package scheduler runs the offer-expiry sweeper: a ticker loop that moves
// pending offers past their expiry into the expired state and announces each
// transition.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/partsbay/partsbay/internal/service"
)

// DefaultInterval is how often the sweeper looks for due offers. Expiry has
// wall-clock semantics at read time either way; the sweep only bounds how
// stale the stored rows can get.
const DefaultInterval = time.Minute

type Config struct {
	Interval time.Duration
}

// Run blocks until ctx is cancelled, sweeping due offers once per interval.
func Run(ctx context.Context, offers service.OfferServicer, cfg Config) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("[SWEEPER] started", "interval", interval)

	// one pass up front so a restart doesn't leave due offers sitting a
	// full interval
	sweep(ctx, offers)

	for {
		select {
		case <-ctx.Done():
			slog.Info("[SWEEPER] stopping")
			return
		case <-ticker.C:
			sweep(ctx, offers)
		}
	}
}

func sweep(ctx context.Context, offers service.OfferServicer) {
	n, err := offers.ExpireDue(ctx, time.Now())
	if err != nil {
		slog.Error("[SWEEPER] expiry pass failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("[SWEEPER] expired offers", "count", n)
	}
}
