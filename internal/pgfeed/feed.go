// Package pgfeed is the database change feed: a secondary notification
// channel, independent of the push service, built on postgres LISTEN/NOTIFY.
// Consumers debounce its bursts into cache invalidations.
package pgfeed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/partsbay/partsbay/internal/db"
)

// OffersChannel carries a notification for every committed offer-row change.
const OffersChannel = "offers_changed"

// Notifier publishes change notifications from the write path.
type Notifier struct {
	db *db.DB
}

func NewNotifier(db *db.DB) *Notifier {
	return &Notifier{db: db}
}

// Notify signals that offer rows changed. The payload is advisory (a product
// id); listeners invalidate rather than patch, so losing it is harmless.
func (n *Notifier) Notify(ctx context.Context, payload string) error {
	_, err := n.db.Pool.Exec(ctx, `SELECT pg_notify($1, $2);`, OffersChannel, payload)
	return err
}

// Handler receives notification payloads in delivery order.
type Handler func(payload string)

// Listener holds a dedicated connection in LISTEN mode and dispatches
// notifications to its handler.
type Listener struct {
	dsn     string
	handler Handler
}

func NewListener(dsn string, handler Handler) *Listener {
	return &Listener{dsn: dsn, handler: handler}
}

// Run blocks until ctx is cancelled, re-establishing the listening
// connection after transient failures.
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("[FEED] listener dropped, retrying", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+OffersChannel); err != nil {
		return err
	}
	slog.Info("[FEED] listening", "channel", OffersChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		l.handler(notification.Payload)
	}
}
