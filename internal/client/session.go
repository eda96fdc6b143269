// Package client assembles the buyer-side sync stack: the push connection,
// the event syncer, the query cache, and the polling fallback, behind one
// session facade.
package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/auction"
	"github.com/partsbay/partsbay/internal/push"
	"github.com/partsbay/partsbay/internal/querycache"
	"github.com/partsbay/partsbay/internal/syncer"
	"github.com/partsbay/partsbay/internal/types"
)

// Backend is everything the session reads from the server side: the offer
// rows behind the auction view plus per-product competitive recomputes.
type Backend interface {
	auction.Source
	syncer.CompetitiveSource
}

// Options configures a Session.
type Options struct {
	PushURL string
	Token   string
	// PollInterval overrides the fallback cadence; zero keeps the default.
	PollInterval time.Duration
	// DebounceWindow overrides the change-feed coalescing window; zero keeps
	// the default.
	DebounceWindow time.Duration
}

// Session is one authenticated buyer's live view of their auction products.
// It keeps cached partitions converging on server state via push events,
// falls back to polling while the connection is down, and folds database
// change notifications into debounced invalidations.
type Session struct {
	viewerID uuid.UUID
	backend  Backend

	cache    *querycache.Cache
	engine   *syncer.Engine
	fetcher  *auction.Fetcher
	pushc    *push.Client
	poller   *auction.Poller
	debounce *syncer.Debouncer

	mu         sync.Mutex
	lastStatus push.Status
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewSession(viewerID uuid.UUID, backend Backend, opts Options) *Session {
	cache := querycache.New()
	s := &Session{
		viewerID:   viewerID,
		backend:    backend,
		cache:      cache,
		engine:     syncer.NewEngine(viewerID, cache, backend),
		fetcher:    auction.NewFetcher(viewerID, backend, cache),
		lastStatus: push.StatusDisconnected,
	}
	s.pushc = push.NewClient(opts.PushURL, viewerID, opts.Token, s.engine.HandleEvent, s.onState)

	window := opts.DebounceWindow
	if window <= 0 {
		window = syncer.DebounceWindow
	}
	s.debounce = syncer.NewDebouncer(window, s.engine.InvalidatePartitions)

	s.poller = auction.NewPoller(opts.PollInterval, func() bool {
		return s.pushc.State().Status != push.StatusConnected
	}, s.fetcher.Refresh)

	return s
}

// Start connects the push layer, subscribes to the viewer's channel, primes
// the cache, and launches the polling fallback. A failed dial is not fatal;
// the poller covers until the caller forces a reconnect.
func (s *Session) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	if err := s.pushc.Connect(ctx); err != nil {
		slog.Warn("[CLIENT] push connect failed, polling until reconnect", "error", err)
	} else {
		s.pushc.SubscribeTo(types.UserChannel(s.viewerID))
	}

	if err := s.fetcher.Refresh(ctx); err != nil {
		cancel()
		close(done)
		return err
	}

	go func() {
		defer close(done)
		s.poller.Run(runCtx)
	}()
	return nil
}

// Stop tears the session down: polling, pending debounce, the push
// connection, and any in-flight competitive refetches.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.debounce.Stop()
	s.pushc.Disconnect()
	s.engine.Drain()
	if done != nil {
		<-done
	}
}

// onState watches the connection state machine. Regaining the connection
// refetches everything, since events may have been missed while down.
func (s *Session) onState(st push.State) {
	s.mu.Lock()
	prev := s.lastStatus
	s.lastStatus = st.Status
	s.mu.Unlock()

	if st.Status == push.StatusConnected && prev != push.StatusConnected {
		s.pushc.SubscribeTo(types.UserChannel(s.viewerID))
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.fetcher.Refresh(ctx); err != nil {
				slog.Warn("[CLIENT] refetch after reconnect failed", "error", err)
			}
		}()
	}
}

// AuctionProducts serves one status partition: the cached copy when fresh,
// otherwise a recompute through the backend.
func (s *Session) AuctionProducts(ctx context.Context, filter types.StatusFilter) ([]types.AuctionProduct, error) {
	if list, ok := s.fetcher.Cached(filter); ok {
		return list, nil
	}
	return s.fetcher.Fetch(ctx, filter)
}

// NotifyDBChange feeds one database change notification into the debouncer.
// Bursts collapse into a single invalidation after the quiet window.
func (s *Session) NotifyDBChange(payload string) {
	_ = payload // advisory; listeners invalidate rather than patch
	s.debounce.Trigger()
}

// WatchProduct subscribes the push connection to a product's channel, so
// competing buyers' offers arrive as events too.
func (s *Session) WatchProduct(productID uuid.UUID) {
	s.pushc.SubscribeTo(types.ProductChannel(productID))
}

// UnwatchProduct drops the product-channel subscription.
func (s *Session) UnwatchProduct(productID uuid.UUID) {
	s.pushc.UnsubscribeFrom(types.ProductChannel(productID))
}

// ForceReconnect asks the push layer for a manual reconnect cycle.
func (s *Session) ForceReconnect() {
	s.pushc.ForceReconnect()
}

// ConnectionState exposes the push connection's state record.
func (s *Session) ConnectionState() push.State {
	return s.pushc.State()
}

// RecentEvents returns the last processed offer events, oldest first.
func (s *Session) RecentEvents() []types.OfferEvent {
	return s.engine.Recent()
}

// LastUpdate reports when an offer event was last applied.
func (s *Session) LastUpdate() time.Time {
	return s.engine.LastUpdate()
}
