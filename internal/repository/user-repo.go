package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partsbay/partsbay/internal/db"
	"github.com/partsbay/partsbay/internal/types"
)

type IUserRepo interface {
	CreateUser(ctx context.Context, email, password, username string) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*types.User, error)
	UpsertTelegramUser(ctx context.Context, u *types.User) error
}

type UserRepo struct {
	db *db.DB
}

func NewUserRepo(db *db.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `
	u.id,
	u.email,
	u.username,
	u.password,
	u.first_name,
	u.last_name,
	u.photo_url,
	u.telegram_id,
	u.created_at,
	u.updated_at
`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Password,
		&u.FirstName,
		&u.LastName,
		&u.PhotoURL,
		&u.TelegramID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) CreateUser(ctx context.Context, email, password, username string) (uuid.UUID, error) {
	const q = `
		INSERT INTO users (
			email,
			password,
			username,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id;
	`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var id uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, email, password, username).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	q := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 LIMIT 1;`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	q := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 LIMIT 1;`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// UpsertTelegramUser creates or refreshes the account bound to a Telegram
// identity, keyed by telegram_id.
func (r *UserRepo) UpsertTelegramUser(ctx context.Context, u *types.User) error {
	const q = `
		INSERT INTO users (
			username,
			first_name,
			last_name,
			photo_url,
			telegram_id,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			photo_url = EXCLUDED.photo_url,
			updated_at = NOW()
		RETURNING id, created_at, updated_at;
	`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return r.db.Pool.QueryRow(ctx, q,
		u.Username, u.FirstName, u.LastName, u.PhotoURL, u.TelegramID,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}
