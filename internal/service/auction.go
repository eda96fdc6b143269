package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/auction"
	"github.com/partsbay/partsbay/internal/repository"
	"github.com/partsbay/partsbay/internal/types"
)

type AuctionServicer interface {
	auction.Source
	GetAuctionProducts(ctx context.Context, viewerID uuid.UUID, filter types.StatusFilter) ([]types.AuctionProduct, error)
}

// AuctionService is the authoritative backend behind the auction-products
// view. It satisfies auction.Source, so the client-side sync stack and the
// HTTP layer read through the same code path.
type AuctionService struct {
	offers repository.IOfferRepo
}

func NewAuctionService(offers repository.IOfferRepo) (*AuctionService, error) {
	return &AuctionService{offers: offers}, nil
}

func (as *AuctionService) OffersWithProducts(ctx context.Context, viewerID uuid.UUID) ([]auction.OfferWithProduct, error) {
	return as.offers.OffersWithProductsByBuyer(ctx, viewerID)
}

func (as *AuctionService) CompetitiveBatch(ctx context.Context, productIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]types.CompetitiveData, error) {
	return as.offers.CompetitiveBatch(ctx, productIDs, viewerID)
}

func (as *AuctionService) GetAuctionProducts(ctx context.Context, viewerID uuid.UUID, filter types.StatusFilter) ([]types.AuctionProduct, error) {
	return auction.Assemble(ctx, as, viewerID, filter, time.Now())
}
