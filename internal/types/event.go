package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventAction discriminates offer lifecycle events on the push channels.
type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

// OfferEvent is the JSON payload broadcast on per-user and per-product
// channels whenever an offer row changes.
type OfferEvent struct {
	Action    EventAction `json:"action"`
	OfferID   uuid.UUID   `json:"offer_id"`
	ProductID uuid.UUID   `json:"product_id"`
	BuyerID   uuid.UUID   `json:"buyer_id"`
	Amount    float64     `json:"offered_price"`
	Status    OfferStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// EventFromOffer builds the wire payload for an offer change.
func EventFromOffer(action EventAction, o *Offer) OfferEvent {
	return OfferEvent{
		Action:    action,
		OfferID:   o.ID,
		ProductID: o.ProductID,
		BuyerID:   o.BuyerID,
		Amount:    o.Amount,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// UserChannel names the per-user push channel.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID)
}

// ProductChannel names the per-product push channel.
func ProductChannel(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s", productID)
}
