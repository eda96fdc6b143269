package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbay/partsbay/internal/auction"
	"github.com/partsbay/partsbay/internal/push"
	"github.com/partsbay/partsbay/internal/types"
)

type fakeBackend struct {
	rows        atomic.Pointer[[]auction.OfferWithProduct]
	competitive atomic.Pointer[map[uuid.UUID]types.CompetitiveData]

	offerCalls       atomic.Int64
	competitiveCalls atomic.Int64
}

func newFakeBackend(rows []auction.OfferWithProduct, competitive map[uuid.UUID]types.CompetitiveData) *fakeBackend {
	b := &fakeBackend{}
	b.rows.Store(&rows)
	b.competitive.Store(&competitive)
	return b
}

func (b *fakeBackend) setCompetitive(competitive map[uuid.UUID]types.CompetitiveData) {
	b.competitive.Store(&competitive)
}

func (b *fakeBackend) OffersWithProducts(ctx context.Context, viewerID uuid.UUID) ([]auction.OfferWithProduct, error) {
	b.offerCalls.Add(1)
	return *b.rows.Load(), nil
}

func (b *fakeBackend) CompetitiveBatch(ctx context.Context, productIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]types.CompetitiveData, error) {
	return *b.competitive.Load(), nil
}

func (b *fakeBackend) CompetitiveData(ctx context.Context, productID, viewerID uuid.UUID) (types.CompetitiveData, error) {
	b.competitiveCalls.Add(1)
	return (*b.competitive.Load())[productID], nil
}

func pendingRow(product, buyer uuid.UUID, amount float64) auction.OfferWithProduct {
	now := time.Now()
	return auction.OfferWithProduct{
		Offer: types.Offer{
			ID:        uuid.New(),
			ProductID: product,
			BuyerID:   buyer,
			Amount:    amount,
			Status:    types.OfferPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Product: types.Product{ID: product, Title: "alternator", Price: 120},
	}
}

// newPushServer exposes a hub over httptest, authenticating every connection
// as the given user.
func newPushServer(t *testing.T, userID uuid.UUID) (*push.Hub, string) {
	t.Helper()
	hub := push.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSessionPrimesCacheAndServesFromIt(t *testing.T) {
	viewer := uuid.New()
	product := uuid.New()
	backend := newFakeBackend(
		[]auction.OfferWithProduct{pendingRow(product, viewer, 80)},
		map[uuid.UUID]types.CompetitiveData{product: {ProductID: product, OfferCount: 1}},
	)
	_, url := newPushServer(t, viewer)

	s := NewSession(viewer, backend, Options{PushURL: url, PollInterval: time.Hour})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	primed := backend.offerCalls.Load()
	require.Greater(t, primed, int64(0))

	list, err := s.AuctionProducts(context.Background(), types.FilterActive)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 80.0, list[0].UserOfferPrice)

	// fresh partition, no extra backend round trip
	_, err = s.AuctionProducts(context.Background(), types.FilterActive)
	require.NoError(t, err)
	assert.Equal(t, primed, backend.offerCalls.Load())
}

func TestOwnOfferEventPatchesCachedPartition(t *testing.T) {
	viewer := uuid.New()
	product := uuid.New()
	rows := []auction.OfferWithProduct{pendingRow(product, viewer, 80)}
	backend := newFakeBackend(rows, map[uuid.UUID]types.CompetitiveData{
		product: {ProductID: product, MaxOtherOffer: 75, OfferCount: 2},
	})
	hub, url := newPushServer(t, viewer)

	s := NewSession(viewer, backend, Options{PushURL: url, PollInterval: time.Hour})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return hub.Subscribers(types.UserChannel(viewer)) == 1
	}, 2*time.Second, 10*time.Millisecond, "session subscribes its user channel")

	offer := rows[0].Offer
	offer.Amount = 95
	offer.UpdatedAt = time.Now()
	hub.PublishOffer(types.EventFromOffer(types.ActionUpdated, &offer))

	require.Eventually(t, func() bool {
		list, err := s.AuctionProducts(context.Background(), types.FilterActive)
		if err != nil || len(list) != 1 {
			return false
		}
		return list[0].UserOfferPrice == 95.0
	}, 2*time.Second, 10*time.Millisecond, "own offer patch lands without a refetch")

	assert.NotZero(t, s.LastUpdate())
	assert.NotEmpty(t, s.RecentEvents())
}

func TestDBChangeBurstCollapsesIntoOneInvalidation(t *testing.T) {
	viewer := uuid.New()
	product := uuid.New()
	backend := newFakeBackend(
		[]auction.OfferWithProduct{pendingRow(product, viewer, 80)},
		map[uuid.UUID]types.CompetitiveData{},
	)
	_, url := newPushServer(t, viewer)

	s := NewSession(viewer, backend, Options{
		PushURL:        url,
		PollInterval:   time.Hour,
		DebounceWindow: 30 * time.Millisecond,
	})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := s.AuctionProducts(context.Background(), types.FilterActive)
	require.NoError(t, err)
	before := backend.offerCalls.Load()

	for i := 0; i < 10; i++ {
		s.NotifyDBChange(product.String())
	}
	time.Sleep(100 * time.Millisecond)

	// the burst marked the partition stale exactly once; the next read
	// refetches
	_, err = s.AuctionProducts(context.Background(), types.FilterActive)
	require.NoError(t, err)
	assert.Equal(t, before+1, backend.offerCalls.Load())
}

func TestPollingFallbackCoversDeadPushEndpoint(t *testing.T) {
	viewer := uuid.New()
	product := uuid.New()
	backend := newFakeBackend(
		[]auction.OfferWithProduct{pendingRow(product, viewer, 80)},
		map[uuid.UUID]types.CompetitiveData{},
	)

	s := NewSession(viewer, backend, Options{
		PushURL:      "ws://127.0.0.1:1/unreachable",
		PollInterval: 20 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	assert.Equal(t, push.StatusFailed, s.ConnectionState().Status)

	primed := backend.offerCalls.Load()
	require.Eventually(t, func() bool {
		return backend.offerCalls.Load() > primed
	}, 2*time.Second, 10*time.Millisecond, "poller refreshes while push is down")
}

func TestWatchProductRoutesForeignEvents(t *testing.T) {
	viewer := uuid.New()
	rival := uuid.New()
	product := uuid.New()
	backend := newFakeBackend(
		[]auction.OfferWithProduct{pendingRow(product, viewer, 80)},
		map[uuid.UUID]types.CompetitiveData{
			product: {ProductID: product, MaxOtherOffer: 0, OfferCount: 1},
		},
	)
	hub, url := newPushServer(t, viewer)

	s := NewSession(viewer, backend, Options{PushURL: url, PollInterval: time.Hour})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.WatchProduct(product)
	require.Eventually(t, func() bool {
		return hub.Subscribers(types.ProductChannel(product)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// the rival's bid lands on the server side before the event goes out
	backend.setCompetitive(map[uuid.UUID]types.CompetitiveData{
		product: {ProductID: product, MaxOtherOffer: 99, OfferCount: 3},
	})

	rivalOffer := types.Offer{
		ID:        uuid.New(),
		ProductID: product,
		BuyerID:   rival,
		Amount:    99,
		Status:    types.OfferPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	hub.PublishOffer(types.EventFromOffer(types.ActionCreated, &rivalOffer))

	// the rival's bid reaches the viewer through the competitive refetch
	require.Eventually(t, func() bool {
		list, err := s.AuctionProducts(context.Background(), types.FilterActive)
		if err != nil || len(list) != 1 {
			return false
		}
		return list[0].MaxOtherOffer == 99.0 && list[0].UserOfferPrice == 80.0
	}, 2*time.Second, 10*time.Millisecond, "competitive fields update, own offer untouched")
}
