package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tabitabi/shiori/internal/models"
	"github.com/tabitabi/shiori/internal/server/guard"
	"github.com/tabitabi/shiori/internal/server/storage"
	"github.com/tabitabi/shiori/internal/server/token"
	"github.com/tabitabi/shiori/internal/validation"
	"github.com/tabitabi/shiori/pkg/api"
)

// ItineraryHandler serves itinerary CRUD. Writes to protected itineraries
// pass the authorization guard first.
type ItineraryHandler struct {
	logger *slog.Logger
	store  storage.ItineraryStorage
}

// NewItineraryHandler creates the itinerary handler.
func NewItineraryHandler(logger *slog.Logger, store storage.ItineraryStorage) *ItineraryHandler {
	return &ItineraryHandler{
		logger: logger,
		store:  store,
	}
}

// List handles GET /api/v1/itineraries.
func (h *ItineraryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itineraries, err := h.store.ListItineraries(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list itineraries", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	views := make([]api.Itinerary, 0, len(itineraries))
	for _, it := range itineraries {
		views = append(views, itineraryView(it))
	}

	respondData(w, h.logger, http.StatusOK, views)
}

// Get handles GET /api/v1/itineraries/{id}.
func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	it, err := h.store.GetItinerary(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrItineraryNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Itinerary not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	respondData(w, h.logger, http.StatusOK, itineraryView(it))
}

// Create handles POST /api/v1/itineraries. Creation is a public operation:
// the creator receives the itinerary id, and the optional password protects
// all later mutations.
func (h *ItineraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode create itinerary request", slog.Any("error", err))
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid request body")
		return
	}

	if req.Title == "" {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "title is required")
		return
	}
	if req.Memo != nil {
		if err := validation.ValidateMemo(*req.Memo); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
			return
		}
	}
	if req.SecretSettings != nil && req.SecretSettings.OffsetMinutes < 0 {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "offset_minutes must not be negative")
		return
	}

	now := time.Now()
	it := &models.Itinerary{
		ID:        uuid.New().String(),
		Title:     req.Title,
		ThemeID:   models.NormalizeThemeID(req.ThemeID),
		Memo:      req.Memo,
		WalicaID:  req.WalicaID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.Password != "" {
		hash, err := token.HashPassword(req.Password)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
			respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
			return
		}
		it.PasswordHash = hash
	}

	if req.SecretSettings != nil {
		it.Secret = &models.SecretSettings{
			Enabled:       req.SecretSettings.Enabled,
			OffsetMinutes: req.SecretSettings.OffsetMinutes,
		}
	}

	if err := h.store.CreateItinerary(ctx, it); err != nil {
		h.logger.ErrorContext(ctx, "failed to create itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "itinerary created",
		slog.String("shiori_id", it.ID),
		slog.Bool("password_protected", it.IsPasswordProtected()))

	respondData(w, h.logger, http.StatusCreated, itineraryView(it))
}

// Update handles PUT /api/v1/itineraries/{id}. Absent fields stay
// unchanged; secret_settings and walica_id accept an explicit null to
// remove the setting.
func (h *ItineraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	it := h.resolveForWrite(w, r)
	if it == nil {
		return
	}

	var req api.UpdateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode update itinerary request", slog.Any("error", err))
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid request body")
		return
	}

	if req.Title != nil {
		if *req.Title == "" {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "title cannot be empty")
			return
		}
		it.Title = *req.Title
	}
	if req.ThemeID != nil {
		it.ThemeID = models.NormalizeThemeID(*req.ThemeID)
	}
	if req.Memo != nil {
		if err := validation.ValidateMemo(*req.Memo); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
			return
		}
		it.Memo = req.Memo
	}
	if req.Password != nil {
		if *req.Password == "" {
			// Empty password makes the itinerary public again.
			it.PasswordHash = ""
		} else {
			hash, err := token.HashPassword(*req.Password)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
				respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
				return
			}
			it.PasswordHash = hash
		}
	}

	if len(req.SecretSettings) > 0 {
		if string(req.SecretSettings) == "null" {
			it.Secret = nil
		} else {
			var settings api.SecretSettings
			if err := json.Unmarshal(req.SecretSettings, &settings); err != nil {
				respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid secret_settings")
				return
			}
			if settings.OffsetMinutes < 0 {
				respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "offset_minutes must not be negative")
				return
			}
			it.Secret = &models.SecretSettings{
				Enabled:       settings.Enabled,
				OffsetMinutes: settings.OffsetMinutes,
			}
		}
	}

	if len(req.WalicaID) > 0 {
		if string(req.WalicaID) == "null" {
			it.WalicaID = nil
		} else {
			var walicaID string
			if err := json.Unmarshal(req.WalicaID, &walicaID); err != nil {
				respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid walica_id")
				return
			}
			it.WalicaID = &walicaID
		}
	}

	it.UpdatedAt = time.Now()

	if err := h.store.UpdateItinerary(ctx, it); err != nil {
		if errors.Is(err, storage.ErrItineraryNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Itinerary not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to update itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	respondData(w, h.logger, http.StatusOK, itineraryView(it))
}

// Delete handles DELETE /api/v1/itineraries/{id}. Steps and side-table
// settings are removed by cascade.
func (h *ItineraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	it := h.resolveForWrite(w, r)
	if it == nil {
		return
	}

	if err := h.store.DeleteItinerary(ctx, it.ID); err != nil {
		if errors.Is(err, storage.ErrItineraryNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Itinerary not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "itinerary deleted", slog.String("shiori_id", it.ID))

	respondData(w, h.logger, http.StatusOK, nil)
}

// resolveForWrite fetches the target itinerary and runs the authorization
// guard against the caller's credential binding. On failure it writes the
// response and returns nil.
func (h *ItineraryHandler) resolveForWrite(w http.ResponseWriter, r *http.Request) *models.Itinerary {
	ctx := r.Context()

	it, err := h.store.GetItinerary(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrItineraryNotFound) {
			respondGuardError(w, h.logger, guard.ErrNotFound)
			return nil
		}
		h.logger.ErrorContext(ctx, "failed to get itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return nil
	}

	if err := guard.Authorize(it, CredentialBinding(ctx)); err != nil {
		respondGuardError(w, h.logger, err)
		return nil
	}

	return it
}

// itineraryView maps a domain record to its API shape. The password hash
// never leaves the server; only the derived flag does.
func itineraryView(it *models.Itinerary) api.Itinerary {
	view := api.Itinerary{
		ID:                  it.ID,
		Title:               it.Title,
		ThemeID:             it.ThemeID,
		Memo:                it.Memo,
		WalicaID:            it.WalicaID,
		IsPasswordProtected: it.IsPasswordProtected(),
		CreatedAt:           it.CreatedAt,
		UpdatedAt:           it.UpdatedAt,
	}
	if it.Secret != nil {
		view.SecretSettings = &api.SecretSettings{
			Enabled:       it.Secret.Enabled,
			OffsetMinutes: it.Secret.OffsetMinutes,
		}
	}
	return view
}
