package types

import (
	"time"

	"github.com/google/uuid"
)

// OfferStatus is the lifecycle state of a buyer's offer. Pending is the only
// state with outgoing transitions; the other four are terminal.
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferExpired   OfferStatus = "expired"
	OfferCancelled OfferStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s OfferStatus) Terminal() bool {
	return s != OfferPending
}

// Valid reports whether s is one of the five known statuses.
func (s OfferStatus) Valid() bool {
	switch s {
	case OfferPending, OfferAccepted, OfferRejected, OfferExpired, OfferCancelled:
		return true
	}
	return false
}

// Offer is a buyer's bid on a product's price.
type Offer struct {
	ID        uuid.UUID   `json:"id"`
	ProductID uuid.UUID   `json:"product_id"`
	BuyerID   uuid.UUID   `json:"buyer_id"`
	Amount    float64     `json:"offered_price"`
	Status    OfferStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
	Response  string      `json:"response,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// EffectiveStatus classifies the offer at read time. A pending offer whose
// expiry timestamp has passed reads as expired even when the row has not been
// swept yet.
func (o *Offer) EffectiveStatus(now time.Time) OfferStatus {
	if o.Status == OfferPending && o.ExpiresAt != nil && o.ExpiresAt.Before(now) {
		return OfferExpired
	}
	return o.Status
}

// StatusFilter partitions auction products by the viewer's offer status.
type StatusFilter string

const (
	FilterActive    StatusFilter = "active"
	FilterCancelled StatusFilter = "cancelled"
	FilterCompleted StatusFilter = "completed"
	FilterAll       StatusFilter = "all"
)

// AllStatusFilters lists every tracked partition of the auction-products
// cache, in display order.
var AllStatusFilters = []StatusFilter{FilterActive, FilterCancelled, FilterCompleted, FilterAll}

// Valid reports whether f is a known filter.
func (f StatusFilter) Valid() bool {
	switch f {
	case FilterActive, FilterCancelled, FilterCompleted, FilterAll:
		return true
	}
	return false
}

// Matches reports whether an offer with the given effective status belongs in
// the filter's partition.
func (f StatusFilter) Matches(s OfferStatus) bool {
	switch f {
	case FilterActive:
		return s == OfferPending
	case FilterCancelled:
		return s == OfferCancelled
	case FilterCompleted:
		return s == OfferAccepted || s == OfferRejected || s == OfferExpired
	case FilterAll:
		return true
	}
	return false
}

// statusPriority orders auction products: live offers first, then cancelled,
// then settled ones.
func statusPriority(s OfferStatus) int {
	switch s {
	case OfferPending:
		return 0
	case OfferCancelled:
		return 1
	default:
		return 2
	}
}
