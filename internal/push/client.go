package push

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/types"
)

// reconnectDelay is the fixed pause before a forced reconnect dials again.
const reconnectDelay = time.Second

// EventHandler receives offer events in delivery order.
type EventHandler func(types.OfferEvent)

// StateHandler observes connection-state transitions.
type StateHandler func(State)

// Channel is the handle returned by SubscribeTo. Subscribed flips once the
// hub acknowledges the subscription.
type Channel struct {
	Name       string
	Subscribed bool
}

// Client owns exactly one live push connection for one authenticated user and
// the subscribe/unsubscribe bookkeeping on top of it.
type Client struct {
	url    string
	userID uuid.UUID
	token  string

	// dialHeader carries extra handshake headers; tests use it to swap the
	// bearer-token auth for a simpler scheme.
	dialHeader http.Header

	onEvent EventHandler
	onState StateHandler

	mu        sync.Mutex
	conn      *websocket.Conn
	channels  map[string]*Channel
	state     State
	readStop  context.CancelFunc
	reconnect *time.Timer
}

// NewClient builds a client for the given push endpoint. A zero userID means
// unauthenticated; Connect is then a no-op.
func NewClient(url string, userID uuid.UUID, token string, onEvent EventHandler, onState StateHandler) *Client {
	return &Client{
		url:      url,
		userID:   userID,
		token:    token,
		onEvent:  onEvent,
		onState:  onState,
		channels: make(map[string]*Channel),
		state:    State{Status: StatusDisconnected},
	}
}

// State returns a copy of the current connection-state record.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setStatus(status Status, errMsg string) {
	c.mu.Lock()
	c.state.Status = status
	if errMsg != "" {
		c.state.LastError = errMsg
	}
	st := c.state
	handler := c.onState
	c.mu.Unlock()

	if handler != nil {
		handler(st)
	}
}

// Connect opens the push connection. No-op when already connected or when no
// user is authenticated.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil || c.userID == uuid.Nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.setStatus(StatusConnecting, "")

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vals := range c.dialHeader {
		header[k] = vals
	}
	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		c.setStatus(StatusFailed, err.Error())
		return err
	}

	readCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = conn
	c.readStop = cancel
	c.mu.Unlock()
	c.setStatus(StatusConnected, "")

	go c.readLoop(readCtx, conn)
	return nil
}

// Disconnect unsubscribes from all tracked channels, closes the connection,
// clears any pending reconnect timer, and resets state to disconnected.
// Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	stop := c.readStop
	c.readStop = nil
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	channels := c.channels
	c.channels = make(map[string]*Channel)
	c.mu.Unlock()

	if conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		for name := range channels {
			_ = wsjson.Write(ctx, conn, Message{Type: TypeUnsubscribe, Channel: name})
		}
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	if stop != nil {
		stop()
	}
	c.setStatus(StatusDisconnected, "")
}

// ForceReconnect tears the connection down, bumps the attempt counter, and
// dials again after a fixed one-second delay. Used when the caller detects a
// stuck or failed connection.
func (c *Client) ForceReconnect() {
	c.Disconnect()

	c.mu.Lock()
	c.state.ReconnectAttempts++
	c.reconnect = time.AfterFunc(reconnectDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Connect(ctx); err != nil {
			slog.Warn("[PUSH] reconnect failed", "error", err)
		}
	})
	c.mu.Unlock()
}

// SubscribeTo subscribes to a named channel and returns its handle. Returns
// the existing handle when already subscribed, and nil without a live
// connection.
func (c *Client) SubscribeTo(channel string) *Channel {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil
	}
	if ch, ok := c.channels[channel]; ok {
		c.mu.Unlock()
		return ch
	}
	ch := &Channel{Name: channel}
	c.channels[channel] = ch
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, Message{Type: TypeSubscribe, Channel: channel}); err != nil {
		c.mu.Lock()
		delete(c.channels, channel)
		c.mu.Unlock()
		return nil
	}
	return ch
}

// UnsubscribeFrom drops a channel subscription. No-op when not subscribed.
func (c *Client) UnsubscribeFrom(channel string) {
	c.mu.Lock()
	conn := c.conn
	_, tracked := c.channels[channel]
	delete(c.channels, channel)
	c.mu.Unlock()

	if !tracked || conn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = wsjson.Write(ctx, conn, Message{Type: TypeUnsubscribe, Channel: channel})
}

// Channels returns the names of currently tracked channels.
func (c *Client) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	return names
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			c.mu.Lock()
			dropped := c.conn == conn
			if dropped {
				c.conn = nil
				c.readStop = nil
			}
			c.mu.Unlock()
			// A drop of the live connection moves the state machine back to
			// disconnected; a read error after Disconnect already did.
			if dropped {
				c.setStatus(StatusDisconnected, err.Error())
			}
			return
		}

		switch msg.Type {
		case TypeEvent:
			if msg.Event == nil {
				continue
			}
			c.mu.Lock()
			c.state.LastEventAt = time.Now()
			handler := c.onEvent
			c.mu.Unlock()
			if handler != nil {
				handler(*msg.Event)
			}
		case TypeSubscribed:
			c.mu.Lock()
			if ch, ok := c.channels[msg.Channel]; ok {
				ch.Subscribed = true
			}
			c.mu.Unlock()
		case TypeSubscribeError:
			c.mu.Lock()
			delete(c.channels, msg.Channel)
			c.mu.Unlock()
			slog.Warn("[PUSH] subscription rejected", "channel", msg.Channel, "error", msg.Error)
		}
	}
}
