package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/partsbay/partsbay/internal/handlers"
	"github.com/partsbay/partsbay/internal/service"
	"github.com/partsbay/partsbay/pkg/config"
)

// AuthMiddleware validates the bearer token and stashes the claims in the
// request context for handlers to pick up.
func AuthMiddleware(s service.AuthServicer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessTokenString := bearerToken(r)
			if accessTokenString == "" {
				// websocket clients cannot set headers from the browser, so the
				// realtime endpoint also accepts ?token=
				accessTokenString = r.URL.Query().Get("token")
			}
			if accessTokenString == "" {
				handlers.RespondErrorJSON(w, r, http.StatusUnauthorized, handlers.ErrToken.Error(), "Missing token in the Authorization header", nil)
				return
			}

			claims, err := s.ValidateAccessToken(accessTokenString)
			if err != nil {
				handlers.RespondErrorJSON(w, r, http.StatusUnauthorized, handlers.ErrToken.Error(), "Token is either revoked or invalid.", nil)
				return
			}

			ctx := context.WithValue(r.Context(), config.UserClaimKey, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if parts := strings.Split(authHeader, " "); len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}
