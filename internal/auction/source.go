// Package auction assembles the "auction products" view a buyer sees: their
// own latest offer per product merged with the competitive state of everyone
// else's pending offers.
package auction

import (
	"context"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/types"
)

// OfferWithProduct is one row of the viewer's offers joined with product
// details.
type OfferWithProduct struct {
	Offer   types.Offer
	Product types.Product
}

// Source is the injected backend handle the query layer reads from. The
// marketplace service implements it over postgres; tests implement it with
// fixtures.
type Source interface {
	// OffersWithProducts returns every offer the viewer has made, joined with
	// its product, in no particular order.
	OffersWithProducts(ctx context.Context, viewerID uuid.UUID) ([]OfferWithProduct, error)

	// CompetitiveBatch computes competitive data for the given products as
	// seen by the viewer, in one query.
	CompetitiveBatch(ctx context.Context, productIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]types.CompetitiveData, error)
}
