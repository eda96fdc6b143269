package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/partsbay/partsbay/internal/middleware"
)

func (s *Server) CommonRoutes(mux *chi.Mux) {
	mux.HandleFunc("GET /api/v1/health", healthCheck)
}

func (s *Server) AuthRoutes(mux *chi.Mux) {
	auth := middleware.AuthMiddleware(s.Deps.Services.AuthService)

	mux.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", s.Deps.UserHandler.RegisterUser)
		r.Post("/login", s.Deps.UserHandler.LoginUser)
		r.Post("/telegram", s.Deps.UserHandler.TelegramLogin)
		r.Post("/refresh", s.Deps.UserHandler.RefreshToken)
		r.Post("/logout", s.Deps.UserHandler.LogoutUser)
	})

	mux.Route("/api/v1/users", func(r chi.Router) {
		r.Use(auth)
		r.Get("/me", s.Deps.UserHandler.Profile)
	})
}

func (s *Server) ProductRoutes(mux *chi.Mux) {
	auth := middleware.AuthMiddleware(s.Deps.Services.AuthService)

	mux.Route("/api/v1/products", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", s.Deps.ProductHandler.CreateProduct)
		r.Post("/upload-images", s.Deps.ProductHandler.UploadImages)
		r.Get("/seller", s.Deps.ProductHandler.ProductsBySellerID)
		r.Get("/seller/{sellerId}", s.Deps.ProductHandler.ProductsBySellerID)
		r.Get("/{productId}", s.Deps.ProductHandler.GetProductByID)
		r.Get("/{productId}/images", s.Deps.ProductHandler.GetProductImageUrls)
		r.Get("/{productId}/competitive", s.Deps.OfferHandler.CompetitiveData)
	})
}

func (s *Server) OfferRoutes(mux *chi.Mux) {
	auth := middleware.AuthMiddleware(s.Deps.Services.AuthService)

	mux.Route("/api/v1/offers", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", s.Deps.OfferHandler.CreateOffer)
		r.Get("/counts", s.Deps.OfferHandler.OfferCounts)
		r.Patch("/{offerId}/cancel", s.Deps.OfferHandler.CancelOffer)
		r.Patch("/{offerId}/accept", s.Deps.OfferHandler.RespondToOffer(true))
		r.Patch("/{offerId}/reject", s.Deps.OfferHandler.RespondToOffer(false))
	})
}

func (s *Server) AuctionRoutes(mux *chi.Mux) {
	auth := middleware.AuthMiddleware(s.Deps.Services.AuthService)

	mux.Route("/api/v1/auction", func(r chi.Router) {
		r.Use(auth)
		r.Get("/products", s.Deps.AuctionHandler.AuctionProducts)
	})

	mux.Route("/api/v1/realtime", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", s.Deps.RealtimeHandler.Connect)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"message": "ok",
		"time":    time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(resp)
}
