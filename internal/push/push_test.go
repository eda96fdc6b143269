package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbay/partsbay/internal/types"
)

// newTestHub wires a hub behind an httptest server, authenticating every
// session as the user named in the X-Test-User header.
func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get("X-Test-User"))
		if err != nil {
			http.Error(w, "bad user", http.StatusUnauthorized)
			return
		}
		hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialTestClient(t *testing.T, url string, userID uuid.UUID, onEvent EventHandler, onState StateHandler) *Client {
	t.Helper()
	c := NewClient(url, userID, "", onEvent, onState)
	// The test hub authenticates via header, not bearer token.
	c.dialHeader = http.Header{"X-Test-User": []string{userID.String()}}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(c.Disconnect)
	return c
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSubscribeAndReceiveEvent(t *testing.T) {
	hub, url := newTestHub(t)
	buyer := uuid.New()
	product := uuid.New()

	events := make(chan types.OfferEvent, 4)
	c := dialTestClient(t, url, buyer, func(ev types.OfferEvent) { events <- ev }, nil)

	ch := c.SubscribeTo(types.UserChannel(buyer))
	require.NotNil(t, ch)
	waitFor(t, func() bool { return hub.Subscribers(types.UserChannel(buyer)) == 1 }, "subscription never reached hub")

	ev := types.OfferEvent{
		Action:    types.ActionCreated,
		OfferID:   uuid.New(),
		ProductID: product,
		BuyerID:   buyer,
		Amount:    50,
		Status:    types.OfferPending,
	}
	hub.PublishOffer(ev)

	select {
	case got := <-events:
		assert.Equal(t, ev.OfferID, got.OfferID)
		assert.Equal(t, types.ActionCreated, got.Action)
		assert.Equal(t, 50.0, got.Amount)
	case <-time.After(3 * time.Second):
		t.Fatal("event never delivered")
	}
	assert.False(t, c.State().LastEventAt.IsZero())
}

func TestSubscribeIsIdempotent(t *testing.T) {
	hub, url := newTestHub(t)
	buyer := uuid.New()
	c := dialTestClient(t, url, buyer, nil, nil)

	first := c.SubscribeTo(types.UserChannel(buyer))
	require.NotNil(t, first)
	second := c.SubscribeTo(types.UserChannel(buyer))
	assert.Same(t, first, second, "resubscribing must return the existing handle")

	waitFor(t, func() bool { return hub.Subscribers(types.UserChannel(buyer)) == 1 }, "subscription never reached hub")
	assert.Len(t, c.Channels(), 1)
}

func TestSubscribeWithoutConnectionReturnsNil(t *testing.T) {
	c := NewClient("ws://localhost:0", uuid.New(), "", nil, nil)
	assert.Nil(t, c.SubscribeTo("product:whatever"))
}

func TestConnectNoOpWithoutUser(t *testing.T) {
	c := NewClient("ws://localhost:0", uuid.Nil, "", nil, nil)
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, StatusDisconnected, c.State().Status)
}

func TestForeignUserChannelRejected(t *testing.T) {
	hub, url := newTestHub(t)
	buyer := uuid.New()
	other := uuid.New()
	c := dialTestClient(t, url, buyer, nil, nil)

	c.SubscribeTo(types.UserChannel(other))
	waitFor(t, func() bool { return len(c.Channels()) == 0 }, "rejected channel should leave the tracked set")
	assert.Zero(t, hub.Subscribers(types.UserChannel(other)))
}

func TestDisconnectIsIdempotentAndClearsChannels(t *testing.T) {
	_, url := newTestHub(t)
	buyer := uuid.New()

	states := make(chan State, 16)
	c := dialTestClient(t, url, buyer, nil, func(st State) { states <- st })
	c.SubscribeTo(types.UserChannel(buyer))

	c.Disconnect()
	c.Disconnect()

	assert.Equal(t, StatusDisconnected, c.State().Status)
	assert.Empty(t, c.Channels())
}

func TestUnsubscribeNoOpWhenNotSubscribed(t *testing.T) {
	_, url := newTestHub(t)
	c := dialTestClient(t, url, uuid.New(), nil, nil)
	c.UnsubscribeFrom("product:never-subscribed")
	assert.Empty(t, c.Channels())
}

func TestForceReconnect(t *testing.T) {
	_, url := newTestHub(t)
	buyer := uuid.New()
	c := dialTestClient(t, url, buyer, nil, nil)

	c.ForceReconnect()
	assert.Equal(t, 1, c.State().ReconnectAttempts)

	waitFor(t, func() bool { return c.State().Status == StatusConnected }, "client never reconnected")
}

func TestStateMachineTransitions(t *testing.T) {
	_, url := newTestHub(t)
	buyer := uuid.New()

	states := make(chan State, 16)
	c := NewClient(url, buyer, "", nil, func(st State) { states <- st })
	c.dialHeader = http.Header{"X-Test-User": []string{buyer.String()}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(c.Disconnect)

	var seen []Status
	for len(seen) < 2 {
		select {
		case st := <-states:
			seen = append(seen, st.Status)
		case <-time.After(3 * time.Second):
			t.Fatalf("transitions stalled, saw %v", seen)
		}
	}
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, seen)
}

func TestDialFailureEntersFailedState(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1", uuid.New(), "", nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.Connect(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, c.State().Status)
	assert.NotEmpty(t, c.State().LastError)
}
