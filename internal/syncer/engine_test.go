package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbay/partsbay/internal/querycache"
	"github.com/partsbay/partsbay/internal/types"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	cd    types.CompetitiveData
	err   error
}

func (f *fakeSource) CompetitiveData(ctx context.Context, productID, viewerID uuid.UUID) (types.CompetitiveData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return types.CompetitiveData{}, f.err
	}
	cd := f.cd
	cd.ProductID = productID
	return cd, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func seedPartitions(cache *querycache.Cache, viewer uuid.UUID, products ...types.AuctionProduct) {
	for _, filter := range types.AllStatusFilters {
		list := make([]types.AuctionProduct, len(products))
		copy(list, products)
		cache.Set(querycache.AuctionProductsKey(viewer, filter), list)
	}
}

func partition(t *testing.T, cache *querycache.Cache, viewer uuid.UUID, filter types.StatusFilter) []types.AuctionProduct {
	t.Helper()
	v, ok := cache.Get(querycache.AuctionProductsKey(viewer, filter))
	require.True(t, ok)
	return v.([]types.AuctionProduct)
}

func TestOwnOfferLastWriteWins(t *testing.T) {
	viewer := uuid.New()
	product := uuid.New()
	cache := querycache.New()
	seedPartitions(cache, viewer, types.AuctionProduct{Product: types.Product{ID: product, Price: 40}})

	e := NewEngine(viewer, cache, &fakeSource{})

	offerID := uuid.New()
	var last types.OfferEvent
	for i, amount := range []float64{45, 48, 52, 50} {
		last = types.OfferEvent{
			Action:    types.ActionUpdated,
			OfferID:   offerID,
			ProductID: product,
			BuyerID:   viewer,
			Amount:    amount,
			Status:    types.OfferPending,
			UpdatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}
		e.HandleEvent(last)
	}

	// The own-offer patch is synchronous; no Drain needed before asserting.
	for _, filter := range types.AllStatusFilters {
		got := partition(t, cache, viewer, filter)
		require.Len(t, got, 1)
		assert.Equal(t, last.Amount, got[0].UserOfferPrice)
		assert.Equal(t, last.Status, got[0].UserOfferStatus)
		assert.Equal(t, last.UpdatedAt, got[0].UserOfferUpdatedAt)
	}
	e.Drain()
}

func TestCreatedOfferScenario(t *testing.T) {
	viewer := uuid.New()
	product := uuid.New()
	cache := querycache.New()
	seedPartitions(cache, viewer, types.AuctionProduct{Product: types.Product{ID: product, Price: 40}})

	src := &fakeSource{cd: types.CompetitiveData{MaxOtherOffer: 45, IsUserLeading: true, OfferCount: 3}}
	e := NewEngine(viewer, cache, src)

	e.HandleEvent(types.OfferEvent{
		Action:    types.ActionCreated,
		OfferID:   uuid.New(),
		ProductID: product,
		BuyerID:   viewer,
		Amount:    50,
		Status:    types.OfferPending,
	})

	// Own offer reflected immediately.
	got := partition(t, cache, viewer, types.FilterActive)
	assert.Equal(t, 50.0, got[0].UserOfferPrice)
	assert.Equal(t, types.OfferPending, got[0].UserOfferStatus)

	// Competitive fields arrive after the authoritative round trip.
	e.Drain()
	got = partition(t, cache, viewer, types.FilterActive)
	assert.Equal(t, 45.0, got[0].MaxOtherOffer)
	assert.True(t, got[0].IsUserLeading)
	assert.Equal(t, 3, got[0].OfferCount)
}

func TestCompetitiveRefetchRunsForForeignOffers(t *testing.T) {
	viewer := uuid.New()
	rival := uuid.New()
	product := uuid.New()
	cache := querycache.New()
	seedPartitions(cache, viewer, types.AuctionProduct{
		Product:        types.Product{ID: product},
		UserOfferPrice: 50,
	})

	src := &fakeSource{cd: types.CompetitiveData{MaxOtherOffer: 60, IsUserLeading: false, OfferCount: 2}}
	e := NewEngine(viewer, cache, src)

	e.HandleEvent(types.OfferEvent{
		Action:    types.ActionCreated,
		ProductID: product,
		BuyerID:   rival,
		Amount:    60,
		Status:    types.OfferPending,
	})
	e.Drain()

	got := partition(t, cache, viewer, types.FilterAll)
	assert.Equal(t, 50.0, got[0].UserOfferPrice, "a rival's event must not touch own-offer fields")
	assert.Equal(t, 60.0, got[0].MaxOtherOffer)
	assert.False(t, got[0].IsUserLeading)
	assert.Equal(t, 1, src.callCount())
}

func TestCompetitiveFailureKeepsOptimisticPatch(t *testing.T) {
	viewer := uuid.New()
	product := uuid.New()
	cache := querycache.New()
	seedPartitions(cache, viewer, types.AuctionProduct{Product: types.Product{ID: product}})

	e := NewEngine(viewer, cache, &fakeSource{err: errors.New("backend down")})

	e.HandleEvent(types.OfferEvent{
		Action:    types.ActionUpdated,
		ProductID: product,
		BuyerID:   viewer,
		Amount:    70,
		Status:    types.OfferPending,
	})
	e.Drain()

	got := partition(t, cache, viewer, types.FilterActive)
	assert.Equal(t, 70.0, got[0].UserOfferPrice, "optimistic patch survives a failed refetch")
	assert.Equal(t, 0.0, got[0].MaxOtherOffer, "competitive fields stay as they were")
}

func TestAggregateKeysInvalidated(t *testing.T) {
	viewer := uuid.New()
	cache := querycache.New()
	cache.Set(querycache.OfferCountsKey(viewer), 7)
	cache.Set(querycache.OfferSummariesKey(viewer), "summary")

	e := NewEngine(viewer, cache, &fakeSource{})
	e.HandleEvent(types.OfferEvent{ProductID: uuid.New(), BuyerID: uuid.New()})
	e.Drain()

	assert.True(t, cache.IsStale(querycache.OfferCountsKey(viewer)))
	assert.True(t, cache.IsStale(querycache.OfferSummariesKey(viewer)))
}

func TestRecentRingIsBounded(t *testing.T) {
	viewer := uuid.New()
	e := NewEngine(viewer, querycache.New(), &fakeSource{})

	for i := 0; i < 25; i++ {
		e.HandleEvent(types.OfferEvent{
			ProductID: uuid.New(),
			BuyerID:   uuid.New(),
			Amount:    float64(i),
		})
	}
	e.Drain()

	recent := e.Recent()
	require.Len(t, recent, 10)
	assert.Equal(t, 15.0, recent[0].Amount, "ring keeps the most recent events")
	assert.Equal(t, 24.0, recent[9].Amount)
	assert.False(t, e.LastUpdate().IsZero())
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	d := NewDebouncer(DebounceWindow, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(DebounceWindow + 200*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, fmt.Sprintf("10 notifications inside the window must collapse to one invalidation, got %d", calls))
}

func TestDebouncerFiresAgainAfterQuietPeriod(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	d := NewDebouncer(50*time.Millisecond, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	defer d.Stop()

	d.Trigger()
	time.Sleep(150 * time.Millisecond)
	d.Trigger()
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}
