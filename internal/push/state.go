package push

import "time"

// Status is the connection lifecycle position:
// disconnected -> connecting -> connected, back to disconnected on drop, and
// failed on unrecoverable error. Reconnection is caller-triggered.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusFailed       Status = "failed"
)

// State is the transient connectivity record exposed by a Client. It is a
// value copy; never persisted.
type State struct {
	Status            Status    `json:"status"`
	ReconnectAttempts int       `json:"reconnect_attempts"`
	LastError         string    `json:"last_error,omitempty"`
	LastEventAt       time.Time `json:"last_event_at,omitzero"`
}
