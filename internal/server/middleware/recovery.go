package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/tabitabi/shiori/pkg/api"
)

// Recovery converts a handler panic into a logged 500 with the standard
// error envelope. The panic value and stack never reach the client.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"stack", string(debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					if encErr := json.NewEncoder(w).Encode(api.NewError(api.CodeInternal, "internal server error")); encErr != nil {
						logger.Error("failed to encode recovery response", slog.Any("error", encErr))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
