package querycache

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/types"
)

// AuctionProductsKey names one status-filter partition of a buyer's auction
// products list.
func AuctionProductsKey(userID uuid.UUID, filter types.StatusFilter) string {
	return fmt.Sprintf("auction-products:%s:%s", userID, filter)
}

// OfferCountsKey names the per-buyer aggregate of offer counts by status.
func OfferCountsKey(userID uuid.UUID) string {
	return fmt.Sprintf("offer-counts:%s", userID)
}

// OfferSummariesKey names the batched offer-summary aggregate for a buyer.
func OfferSummariesKey(userID uuid.UUID) string {
	return fmt.Sprintf("offer-summaries:%s", userID)
}
