package repository

import (
	"context"
	"time"

	"github.com/partsbay/partsbay/internal/db"
)

type IAuthLogRepo interface {
	RecordLogin(ctx context.Context, telegramID int64, authDate time.Time) (bool, error)
}

// AuthLogRepo is the replay-prevention log for Telegram logins: one row per
// (telegram_id, auth_date) payload ever accepted.
type AuthLogRepo struct {
	db *db.DB
}

func NewAuthLogRepo(db *db.DB) *AuthLogRepo {
	return &AuthLogRepo{db: db}
}

// RecordLogin inserts the login attempt and reports whether it was fresh.
// A second insert with the same (telegram_id, auth_date) is a replay and
// returns false.
func (r *AuthLogRepo) RecordLogin(ctx context.Context, telegramID int64, authDate time.Time) (bool, error) {
	const q = `
		INSERT INTO telegram_auth_log (telegram_id, auth_date, seen_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (telegram_id, auth_date) DO NOTHING;
	`
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	tag, err := r.db.Pool.Exec(ctx, q, telegramID, authDate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
