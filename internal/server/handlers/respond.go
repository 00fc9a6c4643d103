package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tabitabi/shiori/internal/server/guard"
	"github.com/tabitabi/shiori/pkg/api"
)

// contextKey is the type for request context keys set by middleware.
type contextKey string

// ShioriIDKey holds the itinerary id bound to the caller's verified
// credential. It is only set after full token verification; a merely
// present bearer header never reaches the context.
const ShioriIDKey contextKey = "shiori_id"

// CredentialBinding returns the itinerary id the caller's verified
// credential is bound to, or "" when no credential verified.
func CredentialBinding(ctx context.Context) string {
	binding, _ := ctx.Value(ShioriIDKey).(string)
	return binding
}

// respondData writes a success envelope. Data may be nil, which encodes as
// an explicit null.
func respondData(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := api.SuccessResponse{Success: true, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// respondError writes an error envelope with a machine-readable code.
func respondError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(api.NewError(code, message)); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// respondGuardError maps a guard decision to its HTTP code. Every denial is
// terminal for the request.
func respondGuardError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, guard.ErrNotFound):
		respondError(w, logger, http.StatusNotFound, api.CodeNotFound, "Itinerary not found")
	case errors.Is(err, guard.ErrUnauthorized):
		respondError(w, logger, http.StatusUnauthorized, api.CodeUnauthorized, "Valid token required")
	case errors.Is(err, guard.ErrForbidden):
		respondError(w, logger, http.StatusForbidden, api.CodeForbidden, "Token does not authorize this itinerary")
	default:
		respondError(w, logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
	}
}
