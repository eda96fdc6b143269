package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/joho/godotenv/autoload"

	"github.com/partsbay/partsbay/internal/dependency"
	"github.com/partsbay/partsbay/internal/scheduler"
	"github.com/partsbay/partsbay/pkg/logger"
	"github.com/partsbay/partsbay/pkg/utils"
)

type Server struct {
	HTTPServer *http.Server
	Deps       *dependency.Dependencies
	Logger     *logger.Logger
}

func New() *Server {
	mux := chi.NewMux()
	log := logger.NewLogger()
	host := utils.GetEnv("SERVER_HOST", "0.0.0.0")
	port := utils.GetEnv("SERVER_PORT", "8080")
	dbDsn := utils.GetEnv("DB_DSN", "")

	serverAddr := fmt.Sprintf("%s:%s", host, port)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deps, err := dependency.NewDependencies(ctx, dbDsn)
	if err != nil {
		log.Fatal("[DEPS] initialization failed -> " + err.Error())
	}

	serv := &Server{
		Logger: log,
		HTTPServer: &http.Server{
			Addr:         serverAddr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Deps: deps,
	}

	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)

	serv.CommonRoutes(mux)
	serv.AuthRoutes(mux)
	serv.ProductRoutes(mux)
	serv.OfferRoutes(mux)
	serv.AuctionRoutes(mux)
	return serv
}

func (s *Server) Run() error {
	s.Logger.Infof("[SERVER] running at -> " + s.HTTPServer.Addr)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// background loops: change-feed listener and the expiry sweeper
	go s.Deps.Feed.Run(ctx)
	go scheduler.Run(ctx, s.Deps.Services.OfferService, scheduler.Config{})

	go func() {
		if err := s.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Fatal("[SERVER] failed to serve -> " + err.Error())
		}
	}()

	<-ctx.Done()

	shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Deps.Db.Close(shutCtx); err != nil {
		s.Logger.Error("[DB] failed to close -> " + err.Error())
		return err
	}
	if err := s.Deps.Cache.Close(); err != nil {
		s.Logger.Error("[CACHE] failed to close -> " + err.Error())
	}

	if err := s.HTTPServer.Shutdown(shutCtx); err != nil {
		s.Logger.Error("[SERVER] shutdown failed -> " + err.Error())
		return err
	}

	return nil
}
