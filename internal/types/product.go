package types

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Product is a sellable auto part.
type Product struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompetitiveData is the authoritative view of all pending offers on one
// product: the highest competing bid and whether the viewing buyer holds it.
type CompetitiveData struct {
	ProductID     uuid.UUID `json:"product_id"`
	MaxOtherOffer float64   `json:"max_other_offer"`
	IsUserLeading bool      `json:"is_user_leading"`
	OfferCount    int       `json:"offer_count"`
}

// AuctionProduct is a product annotated for one viewing buyer: that buyer's
// own latest offer plus the competitive fields derived from everyone else's.
type AuctionProduct struct {
	Product

	UserOfferID        uuid.UUID   `json:"user_offer_id"`
	UserOfferPrice     float64     `json:"user_offer_price"`
	UserOfferStatus    OfferStatus `json:"user_offer_status"`
	UserOfferCreatedAt time.Time   `json:"user_offer_created_at"`
	UserOfferUpdatedAt time.Time   `json:"user_offer_updated_at"`
	UserOfferExpiresAt *time.Time  `json:"user_offer_expires_at,omitempty"`

	MaxOtherOffer float64 `json:"max_other_offer"`
	IsUserLeading bool    `json:"is_user_leading"`
	OfferCount    int     `json:"offer_count"`
}

// ApplyCompetitive merges an authoritative competitive snapshot into the
// annotated product.
func (ap *AuctionProduct) ApplyCompetitive(cd CompetitiveData) {
	ap.MaxOtherOffer = cd.MaxOtherOffer
	ap.IsUserLeading = cd.IsUserLeading
	ap.OfferCount = cd.OfferCount
}

// SortAuctionProducts orders the list by offer-status priority (pending,
// cancelled, then settled) and, within a status bucket, newest offer first.
func SortAuctionProducts(list []AuctionProduct) {
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := statusPriority(list[i].UserOfferStatus), statusPriority(list[j].UserOfferStatus)
		if pi != pj {
			return pi < pj
		}
		return list[i].UserOfferUpdatedAt.After(list[j].UserOfferUpdatedAt)
	})
}
