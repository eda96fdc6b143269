package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/cache"
	"github.com/partsbay/partsbay/internal/model"
	"github.com/partsbay/partsbay/internal/repository"
	"github.com/partsbay/partsbay/internal/types"
	"github.com/partsbay/partsbay/pkg/config"
)

// Publisher fans offer events out to connected clients.
type Publisher interface {
	PublishOffer(ev types.OfferEvent)
}

// ChangeNotifier signals the database change feed after a committed write.
type ChangeNotifier interface {
	Notify(ctx context.Context, payload string) error
}

type OfferServicer interface {
	CreateOffer(ctx context.Context, buyerID uuid.UUID, req model.CreateOfferRequest) (*types.Offer, error)
	CancelOffer(ctx context.Context, buyerID, offerID uuid.UUID) (*types.Offer, error)
	RespondToOffer(ctx context.Context, sellerID, offerID uuid.UUID, accept bool, response string) (*types.Offer, error)
	CompetitiveData(ctx context.Context, productID, viewerID uuid.UUID) (types.CompetitiveData, error)
	CountsByBuyer(ctx context.Context, buyerID uuid.UUID) (map[types.OfferStatus]int, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type OfferService struct {
	offers   repository.IOfferRepo
	products repository.IProductRepo
	hub      Publisher
	feed     ChangeNotifier
	cache    cache.Cacher
}

func NewOfferService(offers repository.IOfferRepo, products repository.IProductRepo, hub Publisher, feed ChangeNotifier, c cache.Cacher) (*OfferService, error) {
	return &OfferService{
		offers:   offers,
		products: products,
		hub:      hub,
		feed:     feed,
		cache:    c,
	}, nil
}

// announce broadcasts the event and pokes the change feed. Both are
// best-effort follow-ups to a committed write; failures are logged, never
// returned.
func (os *OfferService) announce(ctx context.Context, action types.EventAction, o *types.Offer) {
	if os.hub != nil {
		os.hub.PublishOffer(types.EventFromOffer(action, o))
	}
	if os.feed != nil {
		if err := os.feed.Notify(ctx, o.ProductID.String()); err != nil {
			slog.Warn("[OFFER] change-feed notify failed", "product_id", o.ProductID, "error", err)
		}
	}
	// Rotate the generation marker so every cached competitive snapshot for
	// this product misses from now on.
	if os.cache != nil {
		if err := os.cache.Set(ctx, cache.CompetitiveGenKey(o.ProductID.String()), uuid.NewString(), 24*time.Hour); err != nil {
			slog.Warn("[OFFER] competitive snapshot eviction failed", "product_id", o.ProductID, "error", err)
		}
	}
}

func (os *OfferService) CreateOffer(ctx context.Context, buyerID uuid.UUID, req model.CreateOfferRequest) (*types.Offer, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	product, err := os.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.SellerID == buyerID {
		return nil, ErrSelfOffer
	}

	latest, err := os.offers.LatestOfferForProduct(ctx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.EffectiveStatus(time.Now()) == types.OfferPending {
		return nil, ErrPendingOfferExists
	}

	expiresAt := req.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(config.DefaultOfferTTL)
		expiresAt = &t
	}

	offer := &types.Offer{
		ProductID: productID,
		BuyerID:   buyerID,
		Amount:    req.Amount,
		Status:    types.OfferPending,
		Message:   req.Message,
		ExpiresAt: expiresAt,
	}
	if err := os.offers.CreateOffer(ctx, offer); err != nil {
		return nil, err
	}

	os.announce(ctx, types.ActionCreated, offer)
	return offer, nil
}

func (os *OfferService) CancelOffer(ctx context.Context, buyerID, offerID uuid.UUID) (*types.Offer, error) {
	offer, err := os.offers.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	if offer.BuyerID != buyerID {
		return nil, ErrNotOfferOwner
	}

	updated, err := os.offers.TransitionStatus(ctx, offerID, types.OfferPending, types.OfferCancelled, "")
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrOfferNotPending
	}

	os.announce(ctx, types.ActionUpdated, updated)
	return updated, nil
}

func (os *OfferService) RespondToOffer(ctx context.Context, sellerID, offerID uuid.UUID, accept bool, response string) (*types.Offer, error) {
	offer, err := os.offers.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}

	product, err := os.products.GetProductByID(ctx, offer.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.SellerID != sellerID {
		return nil, ErrNotProductSeller
	}

	to := types.OfferRejected
	if accept {
		to = types.OfferAccepted
	}
	updated, err := os.offers.TransitionStatus(ctx, offerID, types.OfferPending, to, response)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrOfferNotPending
	}

	os.announce(ctx, types.ActionUpdated, updated)
	return updated, nil
}

// CompetitiveData serves the authoritative competitive view for one product,
// with a short-TTL redis snapshot in front of the aggregate query.
func (os *OfferService) CompetitiveData(ctx context.Context, productID, viewerID uuid.UUID) (types.CompetitiveData, error) {
	gen := "0"
	if os.cache != nil {
		if g, hit, err := os.cache.Get(ctx, cache.CompetitiveGenKey(productID.String())); err == nil && hit {
			gen = g
		}
	}
	key := cache.CompetitiveKey(productID.String(), viewerID.String(), gen)
	if os.cache != nil {
		if raw, hit, err := os.cache.Get(ctx, key); err == nil && hit {
			var cd types.CompetitiveData
			if err := json.Unmarshal([]byte(raw), &cd); err == nil {
				return cd, nil
			}
		}
	}

	batch, err := os.offers.CompetitiveBatch(ctx, []uuid.UUID{productID}, viewerID)
	if err != nil {
		return types.CompetitiveData{}, err
	}
	cd := batch[productID]
	cd.ProductID = productID

	if os.cache != nil {
		if raw, err := json.Marshal(cd); err == nil {
			if err := os.cache.Set(ctx, key, string(raw), cache.CompetitiveTTL); err != nil {
				slog.Warn("[OFFER] competitive snapshot cache write failed", "error", err)
			}
		}
	}
	return cd, nil
}

func (os *OfferService) CountsByBuyer(ctx context.Context, buyerID uuid.UUID) (map[types.OfferStatus]int, error) {
	return os.offers.CountsByBuyer(ctx, buyerID)
}

// ExpireDue sweeps pending offers past their expiry and announces each
// transition, so clients hear about expiry instead of discovering it on the
// next read.
func (os *OfferService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired, err := os.offers.ExpirePending(ctx, now)
	if err != nil {
		return 0, err
	}
	for i := range expired {
		os.announce(ctx, types.ActionUpdated, &expired[i])
	}
	return len(expired), nil
}
