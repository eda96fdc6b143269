package auction

import (
	"context"
	"log/slog"
	"time"
)

// PollInterval is the fallback refetch cadence when the push connection is
// not live.
const PollInterval = 5 * time.Second

// FreshnessProvider keeps cached partitions converging on server state. The
// push strategy and the polling strategy both satisfy it, so either can be
// exercised without the other.
type FreshnessProvider interface {
	// Run blocks until ctx is cancelled.
	Run(ctx context.Context)
}

// Poller is the interval-based strategy: while active() reports the push
// connection is down, it refreshes on a fixed tick.
type Poller struct {
	interval time.Duration
	active   func() bool
	refresh  func(ctx context.Context) error
}

func NewPoller(interval time.Duration, active func() bool, refresh func(ctx context.Context) error) *Poller {
	if interval <= 0 {
		interval = PollInterval
	}
	return &Poller{interval: interval, active: active, refresh: refresh}
}

// Run ticks until ctx is cancelled, refreshing only while the fallback is
// active. Refresh errors are logged; the next tick retries.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.active() {
				continue
			}
			if err := p.refresh(ctx); err != nil {
				slog.Warn("[AUCTION] polling refresh failed", "error", err)
			}
		}
	}
}
