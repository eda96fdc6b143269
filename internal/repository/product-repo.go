package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partsbay/partsbay/internal/db"
	"github.com/partsbay/partsbay/internal/types"
)

type IProductRepo interface {
	AddProduct(ctx context.Context, p *types.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*types.Product, error)
	GetProductImages(ctx context.Context, id uuid.UUID) ([]string, error)
	ProductsBySellerID(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]types.Product, error)
}

type ProductRepo struct {
	db *db.DB
}

func NewProductRepo(db *db.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `
	p.id,
	p.seller_id,
	p.title,
	p.description,
	p.price,
	p.images,
	p.created_at,
	p.updated_at
`

func scanProduct(row pgx.Row) (*types.Product, error) {
	var p types.Product
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Images,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) AddProduct(ctx context.Context, p *types.Product) error {
	const q = `
		INSERT INTO products (
			seller_id,
			title,
			description,
			price,
			images,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at;
	`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return r.db.Pool.QueryRow(ctx, q,
		p.SellerID, p.Title, p.Description, p.Price, p.Images,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepo) GetProductByID(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	q := fmt.Sprintf(`SELECT %s FROM products p WHERE p.id = $1 LIMIT 1;`, productColumns)
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanProduct(r.db.Pool.QueryRow(ctx, q, id))
}

func (r *ProductRepo) GetProductImages(ctx context.Context, id uuid.UUID) ([]string, error) {
	const q = `SELECT p.images FROM products p WHERE p.id = $1 LIMIT 1;`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var images []string
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&images)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return images, nil
}

func (r *ProductRepo) ProductsBySellerID(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]types.Product, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM products p
		WHERE p.seller_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3;`, productColumns)

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, q, sellerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
