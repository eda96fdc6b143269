package dependency

import (
	"context"
	"log/slog"
	"time"

	"github.com/partsbay/partsbay/internal/cache"
	"github.com/partsbay/partsbay/internal/db"
	"github.com/partsbay/partsbay/internal/handlers"
	"github.com/partsbay/partsbay/internal/pgfeed"
	"github.com/partsbay/partsbay/internal/push"
	"github.com/partsbay/partsbay/internal/repository"
	"github.com/partsbay/partsbay/internal/service"
	"github.com/partsbay/partsbay/internal/storage"
	"github.com/partsbay/partsbay/internal/telegram"
	"github.com/partsbay/partsbay/pkg/utils"
)

// Dependencies holds all the initialized instances required by the application.
type Dependencies struct {
	Services *service.Services
	Db       *db.DB
	Cache    cache.Cacher
	Hub      *push.Hub
	Feed     *pgfeed.Listener

	UserHandler     *handlers.UserHandler
	ProductHandler  *handlers.ProductHandler
	OfferHandler    *handlers.OfferHandler
	AuctionHandler  *handlers.AuctionHandler
	RealtimeHandler *handlers.RealtimeHandler
}

// NewDependencies connects to the backing stores and wires up every service
// and handler.
func NewDependencies(ctx context.Context, dbDsn string) (*Dependencies, error) {
	database, err := db.NewDB(ctx, dbDsn)
	if err != nil {
		slog.Error("[DB] connection failed", "error", err.Error())
		return nil, err
	}

	store, err := storage.NewMinioStorage()
	if err != nil {
		slog.Error("[Storage] failed to initialize", "error", err.Error())
		return nil, err
	}

	redisCache, err := cache.NewRedisClient(ctx)
	if err != nil {
		slog.Error("[Cache] failed to initialize", "error", err.Error())
		return nil, err
	}

	hub := push.NewHub()
	notifier := pgfeed.NewNotifier(database)

	botToken := utils.GetEnv("TELEGRAM_BOT_TOKEN", "")
	verifier := telegram.NewVerifier(botToken, telegram.DefaultMaxAge)

	repos := service.Repos{
		Users:    repository.NewUserRepo(database),
		Products: repository.NewProductRepo(database),
		Offers:   repository.NewOfferRepo(database),
		AuthLog:  repository.NewAuthLogRepo(database),
	}

	services, err := service.NewServices(repos, store, redisCache, verifier, hub, notifier)
	if err != nil {
		slog.Error("[Service] failed to initialize", "error", err.Error())
		return nil, err
	}

	userHandler, err := handlers.NewUserHandler(services.AuthService, repos.Users)
	if err != nil {
		return nil, err
	}
	productHandler, err := handlers.NewProductHandler(services.ProductService)
	if err != nil {
		return nil, err
	}
	offerHandler, err := handlers.NewOfferHandler(services.OfferService)
	if err != nil {
		return nil, err
	}
	auctionHandler, err := handlers.NewAuctionHandler(services.AuctionService)
	if err != nil {
		return nil, err
	}
	realtimeHandler, err := handlers.NewRealtimeHandler(hub)
	if err != nil {
		return nil, err
	}

	// The feed listener echoes committed offer changes back into logs; client
	// processes attach their own listener to drive cache invalidation.
	feed := pgfeed.NewListener(dbDsn, func(payload string) {
		slog.Debug("[FEED] offers changed", "product_id", payload, "at", time.Now().UTC())
	})

	return &Dependencies{
		Services:        services,
		Db:              database,
		Cache:           redisCache,
		Hub:             hub,
		Feed:            feed,
		UserHandler:     userHandler,
		ProductHandler:  productHandler,
		OfferHandler:    offerHandler,
		AuctionHandler:  auctionHandler,
		RealtimeHandler: realtimeHandler,
	}, nil
}
