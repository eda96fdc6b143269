package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/querycache"
	"github.com/partsbay/partsbay/internal/types"
)

// Fetcher computes the auction-products list for one viewer and keeps the
// per-filter cache partitions populated.
type Fetcher struct {
	viewerID uuid.UUID
	source   Source
	cache    *querycache.Cache

	// now is swappable so expiry classification can be tested against a
	// fixed clock.
	now func() time.Time
}

func NewFetcher(viewerID uuid.UUID, source Source, cache *querycache.Cache) *Fetcher {
	return &Fetcher{viewerID: viewerID, source: source, cache: cache, now: time.Now}
}

// Cached returns the resident partition for filter and whether it is both
// present and fresh.
func (f *Fetcher) Cached(filter types.StatusFilter) ([]types.AuctionProduct, bool) {
	key := querycache.AuctionProductsKey(f.viewerID, filter)
	v, ok := f.cache.Get(key)
	if !ok || f.cache.IsStale(key) {
		return nil, false
	}
	list, ok := v.([]types.AuctionProduct)
	return list, ok
}

// Fetch recomputes the partition for filter from the source and stores it.
func (f *Fetcher) Fetch(ctx context.Context, filter types.StatusFilter) ([]types.AuctionProduct, error) {
	list, err := Assemble(ctx, f.source, f.viewerID, filter, f.now())
	if err != nil {
		return nil, err
	}
	f.cache.Set(querycache.AuctionProductsKey(f.viewerID, filter), list)
	return list, nil
}

// Assemble computes the auction-products view: dedupe the viewer's offers to
// the newest per product, classify by effective status, pull competitive data
// for the pending ones, merge, and sort.
func Assemble(ctx context.Context, source Source, viewerID uuid.UUID, filter types.StatusFilter, now time.Time) ([]types.AuctionProduct, error) {
	rows, err := source.OffersWithProducts(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load offers: %w", err)
	}

	newest := make(map[uuid.UUID]OfferWithProduct, len(rows))
	for _, row := range rows {
		cur, ok := newest[row.Product.ID]
		if !ok || row.Offer.CreatedAt.After(cur.Offer.CreatedAt) {
			newest[row.Product.ID] = row
		}
	}

	list := make([]types.AuctionProduct, 0, len(newest))
	var pending []uuid.UUID
	for _, row := range newest {
		status := row.Offer.EffectiveStatus(now)
		if !filter.Matches(status) {
			continue
		}
		ap := types.AuctionProduct{
			Product:            row.Product,
			UserOfferID:        row.Offer.ID,
			UserOfferPrice:     row.Offer.Amount,
			UserOfferStatus:    status,
			UserOfferCreatedAt: row.Offer.CreatedAt,
			UserOfferUpdatedAt: row.Offer.UpdatedAt,
			UserOfferExpiresAt: row.Offer.ExpiresAt,
		}
		if status == types.OfferPending {
			pending = append(pending, row.Product.ID)
		}
		list = append(list, ap)
	}

	if len(pending) > 0 {
		competitive, err := source.CompetitiveBatch(ctx, pending, viewerID)
		if err != nil {
			return nil, fmt.Errorf("load competitive data: %w", err)
		}
		for i := range list {
			if cd, ok := competitive[list[i].Product.ID]; ok {
				list[i].ApplyCompetitive(cd)
			}
		}
	}

	types.SortAuctionProducts(list)
	return list, nil
}

// Refresh recomputes every tracked partition. Used on reconnect and by the
// polling fallback.
func (f *Fetcher) Refresh(ctx context.Context) error {
	for _, filter := range types.AllStatusFilters {
		if _, err := f.Fetch(ctx, filter); err != nil {
			return err
		}
	}
	return nil
}
