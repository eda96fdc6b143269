package push

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/types"
)

// session is one accepted websocket plus the user it authenticated as.
type session struct {
	conn   *websocket.Conn
	userID uuid.UUID

	mu       sync.Mutex // serializes writes to conn
	channels map[string]struct{}
}

func (s *session) write(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return wsjson.Write(ctx, s.conn, msg)
}

// Hub is the server end of the push service: it tracks sessions, their
// channel subscriptions, and broadcasts offer events.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*session]struct{}
	channels map[string]map[*session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[*session]struct{}),
		channels: make(map[string]map[*session]struct{}),
	}
}

// Serve upgrades the request and runs the session until the peer goes away.
// The caller has already authenticated userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("[PUSH] websocket accept failed", "error", err)
		return
	}

	s := &session{conn: conn, userID: userID, channels: make(map[string]struct{})}
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.drop(s)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	for {
		var msg Message
		if err := wsjson.Read(r.Context(), conn, &msg); err != nil {
			return
		}
		h.handle(r.Context(), s, msg)
	}
}

func (h *Hub) handle(ctx context.Context, s *session, msg Message) {
	switch msg.Type {
	case TypeSubscribe:
		if !h.allowed(s, msg.Channel) {
			_ = s.write(ctx, Message{Type: TypeSubscribeError, Channel: msg.Channel, Error: "forbidden"})
			return
		}
		h.mu.Lock()
		subs, ok := h.channels[msg.Channel]
		if !ok {
			subs = make(map[*session]struct{})
			h.channels[msg.Channel] = subs
		}
		subs[s] = struct{}{}
		s.channels[msg.Channel] = struct{}{}
		h.mu.Unlock()
		_ = s.write(ctx, Message{Type: TypeSubscribed, Channel: msg.Channel})
	case TypeUnsubscribe:
		h.mu.Lock()
		if subs, ok := h.channels[msg.Channel]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(h.channels, msg.Channel)
			}
		}
		delete(s.channels, msg.Channel)
		h.mu.Unlock()
	}
}

// allowed enforces per-connection channel authentication: a user channel is
// only subscribable by its owner; product channels are open to any
// authenticated session.
func (h *Hub) allowed(s *session, channel string) bool {
	if strings.HasPrefix(channel, "user:") {
		return channel == types.UserChannel(s.userID)
	}
	return strings.HasPrefix(channel, "product:")
}

func (h *Hub) drop(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
	for name := range s.channels {
		if subs, ok := h.channels[name]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(h.channels, name)
			}
		}
	}
}

// Broadcast delivers an event to every subscriber of the channel.
func (h *Hub) Broadcast(channel string, ev types.OfferEvent) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.channels[channel]))
	for s := range h.channels[channel] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	msg := Message{Type: TypeEvent, Channel: channel, Event: &ev}
	for _, s := range targets {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.write(ctx, msg); err != nil {
			slog.Warn("[PUSH] broadcast write failed", "channel", channel, "error", err)
		}
		cancel()
	}
}

// PublishOffer fans an offer event out to the buyer's channel and the
// product's channel.
func (h *Hub) PublishOffer(ev types.OfferEvent) {
	h.Broadcast(types.UserChannel(ev.BuyerID), ev)
	h.Broadcast(types.ProductChannel(ev.ProductID), ev)
}

// Subscribers reports the current subscriber count for a channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
