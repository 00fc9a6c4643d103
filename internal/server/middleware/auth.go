package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tabitabi/shiori/internal/server/handlers"
	"github.com/tabitabi/shiori/internal/server/token"
)

// OptionalAuth verifies a bearer token when one is present and attaches the
// verified credential binding to the request context. Requests without a
// token, or with an invalid one, proceed without a binding: reads are public
// and the authorization guard decides writes per itinerary. The binding only
// ever reaches the context after full signature and expiry verification.
func OptionalAuth(logger *slog.Logger, tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := token.ExtractBearer(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			shioriID, ok := tokens.Verify(raw)
			if !ok {
				// An invalid token is treated the same as no token; the
				// guard answers UNAUTHORIZED where a credential is required.
				logger.Debug("bearer token failed verification")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.ShioriIDKey, shioriID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
