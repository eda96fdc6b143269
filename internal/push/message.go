// Package push carries offer lifecycle events between the marketplace and
// connected buyers over named channels. The hub is the server end; Client is
// the wrapper a consumer holds, one live connection per authenticated user.
package push

import "github.com/partsbay/partsbay/internal/types"

// Message types on the push socket.
const (
	TypeSubscribe      = "subscribe"
	TypeUnsubscribe    = "unsubscribe"
	TypeSubscribed     = "subscribed"
	TypeSubscribeError = "subscribe_error"
	TypeEvent          = "event"
)

// Message is the envelope for everything sent over a push connection.
type Message struct {
	Type    string            `json:"type"`
	Channel string            `json:"channel,omitempty"`
	Event   *types.OfferEvent `json:"event,omitempty"`
	Error   string            `json:"error,omitempty"`
}
