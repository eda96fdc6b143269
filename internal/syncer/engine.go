// Package syncer reconciles the local query cache with offer lifecycle events
// arriving from the push layer, and coalesces database change notifications
// into cache invalidations.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/querycache"
	"github.com/partsbay/partsbay/internal/types"
)

// recentEventCap bounds the diagnostic ring of processed events.
const recentEventCap = 10

// CompetitiveSource recomputes the authoritative competitive fields for a
// product as seen by a viewer.
type CompetitiveSource interface {
	CompetitiveData(ctx context.Context, productID, viewerID uuid.UUID) (types.CompetitiveData, error)
}

// Engine applies offer events to one viewer's cached auction-product
// partitions. The viewer's own offer fields are patched synchronously;
// competitive fields always go through an authoritative round trip.
type Engine struct {
	viewerID uuid.UUID
	cache    *querycache.Cache
	source   CompetitiveSource

	mu         sync.Mutex
	recent     []types.OfferEvent
	lastUpdate time.Time

	inflight sync.WaitGroup
}

func NewEngine(viewerID uuid.UUID, cache *querycache.Cache, source CompetitiveSource) *Engine {
	return &Engine{viewerID: viewerID, cache: cache, source: source}
}

// HandleEvent processes one push event: record it, patch the viewer's own
// offer fields in place, kick off the competitive recompute, and invalidate
// the aggregates that depend on offer rows.
func (e *Engine) HandleEvent(ev types.OfferEvent) {
	e.mu.Lock()
	e.recent = append(e.recent, ev)
	if len(e.recent) > recentEventCap {
		e.recent = e.recent[len(e.recent)-recentEventCap:]
	}
	e.lastUpdate = time.Now()
	e.mu.Unlock()

	if ev.BuyerID == e.viewerID {
		e.patchOwnOffer(ev)
	}

	// Competitive fields are never trusted from the event payload; a second
	// buyer's bid changes them even when the viewer's own offer did not move.
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		e.refreshCompetitive(ctx, ev.ProductID)
	}()

	e.cache.Invalidate(
		querycache.OfferCountsKey(e.viewerID),
		querycache.OfferSummariesKey(e.viewerID),
	)
}

// patchOwnOffer rewrites the viewer's own-offer fields across every tracked
// status-filter partition. No network round trip; the event payload is
// authoritative for the viewer's own offer.
func (e *Engine) patchOwnOffer(ev types.OfferEvent) {
	for _, filter := range types.AllStatusFilters {
		key := querycache.AuctionProductsKey(e.viewerID, filter)
		e.cache.Patch(key, func(cur any) any {
			list, ok := cur.([]types.AuctionProduct)
			if !ok {
				return cur
			}
			out := make([]types.AuctionProduct, len(list))
			copy(out, list)
			for i := range out {
				if out[i].Product.ID != ev.ProductID {
					continue
				}
				out[i].UserOfferID = ev.OfferID
				out[i].UserOfferPrice = ev.Amount
				out[i].UserOfferStatus = ev.Status
				out[i].UserOfferCreatedAt = ev.CreatedAt
				out[i].UserOfferUpdatedAt = ev.UpdatedAt
			}
			return out
		})
	}
}

// refreshCompetitive fetches fresh competitive data for the product and
// patches every partition. Failures are logged and swallowed; the optimistic
// patch stays in place and the aggregates were already invalidated.
func (e *Engine) refreshCompetitive(ctx context.Context, productID uuid.UUID) {
	cd, err := e.source.CompetitiveData(ctx, productID, e.viewerID)
	if err != nil {
		slog.Warn("[SYNC] competitive refetch failed", "product_id", productID, "error", err)
		return
	}
	for _, filter := range types.AllStatusFilters {
		key := querycache.AuctionProductsKey(e.viewerID, filter)
		e.cache.Patch(key, func(cur any) any {
			list, ok := cur.([]types.AuctionProduct)
			if !ok {
				return cur
			}
			out := make([]types.AuctionProduct, len(list))
			copy(out, list)
			for i := range out {
				if out[i].Product.ID == productID {
					out[i].ApplyCompetitive(cd)
				}
			}
			return out
		})
	}
}

// InvalidatePartitions marks every auction-product partition of the viewer
// stale. Used by the database change feed, behind the debouncer.
func (e *Engine) InvalidatePartitions() {
	keys := make([]string, 0, len(types.AllStatusFilters))
	for _, filter := range types.AllStatusFilters {
		keys = append(keys, querycache.AuctionProductsKey(e.viewerID, filter))
	}
	e.cache.Invalidate(keys...)
}

// Recent returns a copy of the most recently processed events, oldest first.
func (e *Engine) Recent() []types.OfferEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.OfferEvent, len(e.recent))
	copy(out, e.recent)
	return out
}

// LastUpdate returns when the engine last processed an event; UI freshness
// indicators hang off this.
func (e *Engine) LastUpdate() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUpdate
}

// Drain blocks until all in-flight competitive refetches complete. Used on
// shutdown and by tests.
func (e *Engine) Drain() {
	e.inflight.Wait()
}
