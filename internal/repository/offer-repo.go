package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partsbay/partsbay/internal/auction"
	"github.com/partsbay/partsbay/internal/db"
	"github.com/partsbay/partsbay/internal/types"
)

type IOfferRepo interface {
	CreateOffer(ctx context.Context, o *types.Offer) error
	GetOfferByID(ctx context.Context, id uuid.UUID) (*types.Offer, error)
	LatestOfferForProduct(ctx context.Context, buyerID, productID uuid.UUID) (*types.Offer, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to types.OfferStatus, response string) (*types.Offer, error)
	OffersWithProductsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]auction.OfferWithProduct, error)
	CompetitiveBatch(ctx context.Context, productIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]types.CompetitiveData, error)
	CountsByBuyer(ctx context.Context, buyerID uuid.UUID) (map[types.OfferStatus]int, error)
	ExpirePending(ctx context.Context, now time.Time) ([]types.Offer, error)
}

type OfferRepo struct {
	db *db.DB
}

func NewOfferRepo(db *db.DB) *OfferRepo {
	return &OfferRepo{db: db}
}

const offerColumns = `
	o.id,
	o.product_id,
	o.buyer_id,
	o.amount,
	o.status,
	o.message,
	o.response,
	o.created_at,
	o.updated_at,
	o.expires_at
`

func scanOffer(row pgx.Row) (*types.Offer, error) {
	var o types.Offer
	err := row.Scan(
		&o.ID,
		&o.ProductID,
		&o.BuyerID,
		&o.Amount,
		&o.Status,
		&o.Message,
		&o.Response,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepo) CreateOffer(ctx context.Context, o *types.Offer) error {
	const q = `
		INSERT INTO offers (
			product_id,
			buyer_id,
			amount,
			status,
			message,
			expires_at,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at;
	`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return r.db.Pool.QueryRow(ctx, q,
		o.ProductID, o.BuyerID, o.Amount, o.Status, o.Message, o.ExpiresAt,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *OfferRepo) GetOfferByID(ctx context.Context, id uuid.UUID) (*types.Offer, error) {
	q := fmt.Sprintf(`SELECT %s FROM offers o WHERE o.id = $1 LIMIT 1;`, offerColumns)
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanOffer(r.db.Pool.QueryRow(ctx, q, id))
}

// LatestOfferForProduct returns the buyer's most recent offer on a product,
// or nil when they never made one.
func (r *OfferRepo) LatestOfferForProduct(ctx context.Context, buyerID, productID uuid.UUID) (*types.Offer, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM offers o
		WHERE o.buyer_id = $1 AND o.product_id = $2
		ORDER BY o.created_at DESC
		LIMIT 1;`, offerColumns)
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanOffer(r.db.Pool.QueryRow(ctx, q, buyerID, productID))
}

// TransitionStatus moves an offer from one status to another atomically; the
// WHERE clause makes a transition out of a terminal state impossible. Returns
// nil when the offer was not in the expected state.
func (r *OfferRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to types.OfferStatus, response string) (*types.Offer, error) {
	q := fmt.Sprintf(`
		UPDATE offers o
		SET status = $1, response = $2, updated_at = NOW()
		WHERE o.id = $3 AND o.status = $4
		RETURNING %s;`, offerColumns)
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanOffer(r.db.Pool.QueryRow(ctx, q, to, response, id, from))
}

func (r *OfferRepo) OffersWithProductsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]auction.OfferWithProduct, error) {
	q := fmt.Sprintf(`
		SELECT
			%s,
			p.id,
			p.seller_id,
			p.title,
			p.description,
			p.price,
			p.images,
			p.created_at,
			p.updated_at
		FROM offers o
		JOIN products p ON p.id = o.product_id
		WHERE o.buyer_id = $1;`, offerColumns)

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, q, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auction.OfferWithProduct
	for rows.Next() {
		var row auction.OfferWithProduct
		err := rows.Scan(
			&row.Offer.ID,
			&row.Offer.ProductID,
			&row.Offer.BuyerID,
			&row.Offer.Amount,
			&row.Offer.Status,
			&row.Offer.Message,
			&row.Offer.Response,
			&row.Offer.CreatedAt,
			&row.Offer.UpdatedAt,
			&row.Offer.ExpiresAt,
			&row.Product.ID,
			&row.Product.SellerID,
			&row.Product.Title,
			&row.Product.Description,
			&row.Product.Price,
			&row.Product.Images,
			&row.Product.CreatedAt,
			&row.Product.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CompetitiveBatch aggregates pending offers per product: total count, the
// best bid from other buyers, and the viewer's own best, in one query.
func (r *OfferRepo) CompetitiveBatch(ctx context.Context, productIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]types.CompetitiveData, error) {
	const q = `
		SELECT
			o.product_id,
			COUNT(*),
			COALESCE(MAX(o.amount) FILTER (WHERE o.buyer_id <> $2), 0),
			COALESCE(MAX(o.amount) FILTER (WHERE o.buyer_id = $2), 0)
		FROM offers o
		WHERE o.status = 'pending' AND o.product_id = ANY($1::uuid[])
		GROUP BY o.product_id;
	`
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, q, ids, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]types.CompetitiveData, len(productIDs))
	for rows.Next() {
		var (
			productID        uuid.UUID
			count            int
			maxOther, maxOwn float64
		)
		if err := rows.Scan(&productID, &count, &maxOther, &maxOwn); err != nil {
			return nil, err
		}
		out[productID] = types.CompetitiveData{
			ProductID:     productID,
			MaxOtherOffer: maxOther,
			// Ties go to the viewer: matching the best rival bid still leads.
			IsUserLeading: maxOwn > 0 && maxOwn >= maxOther,
			OfferCount:    count,
		}
	}
	return out, rows.Err()
}

func (r *OfferRepo) CountsByBuyer(ctx context.Context, buyerID uuid.UUID) (map[types.OfferStatus]int, error) {
	const q = `
		SELECT o.status, COUNT(*)
		FROM offers o
		WHERE o.buyer_id = $1
		GROUP BY o.status;
	`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, q, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[types.OfferStatus]int)
	for rows.Next() {
		var status types.OfferStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

// ExpirePending sweeps pending offers past their expiry into the expired
// state and returns the transitioned rows so events can be emitted for them.
func (r *OfferRepo) ExpirePending(ctx context.Context, now time.Time) ([]types.Offer, error) {
	q := fmt.Sprintf(`
		UPDATE offers o
		SET status = 'expired', updated_at = NOW()
		WHERE o.status = 'pending' AND o.expires_at IS NOT NULL AND o.expires_at < $1
		RETURNING %s;`, offerColumns)

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
