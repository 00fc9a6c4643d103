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
	"github.com/tabitabi/shiori/internal/server/visibility"
	"github.com/tabitabi/shiori/internal/validation"
	"github.com/tabitabi/shiori/pkg/api"
)

// StepHandler serves step CRUD. Listing applies the secret-mode filter;
// every mutation resolves the owning itinerary and passes the
// authorization guard.
type StepHandler struct {
	logger      *slog.Logger
	steps       storage.StepStorage
	itineraries storage.ItineraryStorage
	now         func() time.Time
}

// NewStepHandler creates the step handler.
func NewStepHandler(logger *slog.Logger, steps storage.StepStorage, itineraries storage.ItineraryStorage) *StepHandler {
	return &StepHandler{
		logger:      logger,
		steps:       steps,
		itineraries: itineraries,
		now:         time.Now,
	}
}

// List handles GET /api/v1/steps?itinerary_id=X. The caller sees redacted
// copies of steps still gated by secret mode; a verified credential for the
// itinerary lifts the filter entirely. An unknown itinerary id yields an
// empty list so the response never leaks which ids exist.
func (h *StepHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itineraryID := r.URL.Query().Get("itinerary_id")
	if itineraryID == "" {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "itinerary_id is required")
		return
	}

	steps, err := h.steps.ListSteps(ctx, itineraryID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list steps", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	var cfg *models.SecretSettings
	editMode := false
	it, err := h.itineraries.GetItinerary(ctx, itineraryID)
	switch {
	case err == nil:
		cfg = it.Secret
		editMode = CredentialBinding(ctx) == it.ID
	case errors.Is(err, storage.ErrItineraryNotFound):
		// Fall through with the empty step list.
	default:
		h.logger.ErrorContext(ctx, "failed to get itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	filtered, hidden := visibility.Apply(steps, cfg, h.now(), editMode)

	views := make([]api.Step, 0, len(filtered))
	for i := range filtered {
		views = append(views, stepView(&filtered[i], hidden[i]))
	}

	respondData(w, h.logger, http.StatusOK, views)
}

// Create handles POST /api/v1/steps. The declared itinerary must exist and
// the write must clear the guard before anything is stored.
func (h *StepHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode create step request", slog.Any("error", err))
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid request body")
		return
	}

	if req.ItineraryID == "" || req.Title == "" || req.Date == "" || req.Time == "" {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "itinerary_id, title, date and time are required")
		return
	}
	if err := validation.ValidateDate(req.Date); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
		return
	}
	if err := validation.ValidateTime(req.Time); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
		return
	}

	it, err := h.itineraries.GetItinerary(ctx, req.ItineraryID)
	if err != nil && !errors.Is(err, storage.ErrItineraryNotFound) {
		h.logger.ErrorContext(ctx, "failed to get itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	if err := guard.AuthorizeStepCreate(it, CredentialBinding(ctx), req.ItineraryID); err != nil {
		respondGuardError(w, h.logger, err)
		return
	}

	now := h.now()
	step := &models.Step{
		ID:          uuid.New().String(),
		ItineraryID: req.ItineraryID,
		Title:       req.Title,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.steps.CreateStep(ctx, step); err != nil {
		h.logger.ErrorContext(ctx, "failed to create step", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "step created",
		slog.String("step_id", step.ID),
		slog.String("shiori_id", step.ItineraryID))

	respondData(w, h.logger, http.StatusCreated, stepView(step, false))
}

// Update handles PUT /api/v1/steps/{id}. Absent fields stay unchanged.
func (h *StepHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	step := h.resolveForWrite(w, r)
	if step == nil {
		return
	}

	var req api.UpdateStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode update step request", slog.Any("error", err))
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid request body")
		return
	}

	if req.Title != nil {
		if *req.Title == "" {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "title cannot be empty")
			return
		}
		step.Title = *req.Title
	}
	if req.Date != nil {
		if err := validation.ValidateDate(*req.Date); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
			return
		}
		step.Date = *req.Date
	}
	if req.Time != nil {
		if err := validation.ValidateTime(*req.Time); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
			return
		}
		step.Time = *req.Time
	}
	if req.Location != nil {
		step.Location = req.Location
	}
	if req.Notes != nil {
		step.Notes = req.Notes
	}
	step.UpdatedAt = h.now()

	if err := h.steps.UpdateStep(ctx, step); err != nil {
		if errors.Is(err, storage.ErrStepNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Step not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to update step", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	respondData(w, h.logger, http.StatusOK, stepView(step, false))
}

// Delete handles DELETE /api/v1/steps/{id}.
func (h *StepHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	step := h.resolveForWrite(w, r)
	if step == nil {
		return
	}

	if err := h.steps.DeleteStep(ctx, step.ID); err != nil {
		if errors.Is(err, storage.ErrStepNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Step not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete step", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "step deleted", slog.String("step_id", step.ID))

	respondData(w, h.logger, http.StatusOK, nil)
}

// resolveForWrite fetches the target step and runs the authorization guard
// against its owning itinerary. On failure it writes the response and
// returns nil.
func (h *StepHandler) resolveForWrite(w http.ResponseWriter, r *http.Request) *models.Step {
	ctx := r.Context()

	step, err := h.steps.GetStep(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrStepNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Step not found")
			return nil
		}
		h.logger.ErrorContext(ctx, "failed to get step", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return nil
	}

	it, err := h.itineraries.GetItinerary(ctx, step.ItineraryID)
	if err != nil && !errors.Is(err, storage.ErrItineraryNotFound) {
		h.logger.ErrorContext(ctx, "failed to get itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return nil
	}

	if err := guard.Authorize(it, CredentialBinding(ctx)); err != nil {
		respondGuardError(w, h.logger, err)
		return nil
	}

	return step
}

func stepView(step *models.Step, hidden bool) api.Step {
	return api.Step{
		ID:          step.ID,
		ItineraryID: step.ItineraryID,
		Title:       step.Title,
		Date:        step.Date,
		Time:        step.Time,
		Location:    step.Location,
		Notes:       step.Notes,
		IsHidden:    hidden,
		CreatedAt:   step.CreatedAt,
		UpdatedAt:   step.UpdatedAt,
	}
}
