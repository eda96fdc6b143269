package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 5 * time.Second

// DB wraps the pgx pool with the per-query timeout policy every repository
// shares.
type DB struct {
	Pool   *pgxpool.Pool
	closed bool
}

func NewDB(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 25
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := pool.Ping(pingCx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("[DB] connection established...")

	return &DB{
		Pool: pool,
	}, nil
}

// WithTimeout bounds a single query. The cancel func must run after the
// query finishes.
func (d *DB) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func (d *DB) Close(ctx context.Context) error {
	if d.closed {
		return nil
	}
	d.closed = true

	done := make(chan struct{})
	go func() {
		d.Pool.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
