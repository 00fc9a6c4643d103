package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tabitabi/shiori/internal/server/storage"
	"github.com/tabitabi/shiori/internal/server/token"
	"github.com/tabitabi/shiori/pkg/api"
)

// AuthHandler issues capability tokens in exchange for itinerary passwords.
type AuthHandler struct {
	logger      *slog.Logger
	itineraries storage.ItineraryStorage
	tokens      *token.Service
}

// NewAuthHandler creates the password-authentication handler.
func NewAuthHandler(logger *slog.Logger, itineraries storage.ItineraryStorage, tokens *token.Service) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		itineraries: itineraries,
		tokens:      tokens,
	}
}

// PasswordAuth handles POST /api/v1/auth/password. For a public itinerary
// the token is issued regardless of the supplied password; for a protected
// one the password must match the stored bcrypt hash. Existence is checked
// before any comparison.
func (h *AuthHandler) PasswordAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PasswordAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode password auth request", slog.Any("error", err))
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid request body")
		return
	}

	if req.ShioriID == "" || req.Password == "" {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "shioriId and password are required")
		return
	}

	it, err := h.itineraries.GetItinerary(ctx, req.ShioriID)
	if err != nil {
		if errors.Is(err, storage.ErrItineraryNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Itinerary not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	if it.IsPasswordProtected() && !token.CheckPassword(req.Password, it.PasswordHash) {
		h.logger.WarnContext(ctx, "password auth failed", slog.String("shiori_id", req.ShioriID))
		respondError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "Invalid password")
		return
	}

	signed, err := h.tokens.Issue(it.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "token issued", slog.String("shiori_id", req.ShioriID))

	respondData(w, h.logger, http.StatusOK, api.PasswordAuthResponse{Token: signed})
}
