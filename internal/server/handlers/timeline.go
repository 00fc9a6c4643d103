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
	"github.com/tabitabi/shiori/internal/validation"
	"github.com/tabitabi/shiori/pkg/api"
)

// TimelineHandler serves the explicitly ordered timeline of an itinerary.
// Timeline entries are not subject to secret-mode gating; only the
// authorization guard applies to writes.
type TimelineHandler struct {
	logger      *slog.Logger
	timeline    storage.TimelineStorage
	itineraries storage.ItineraryStorage
	now         func() time.Time
}

// NewTimelineHandler creates the timeline handler.
func NewTimelineHandler(logger *slog.Logger, timeline storage.TimelineStorage, itineraries storage.ItineraryStorage) *TimelineHandler {
	return &TimelineHandler{
		logger:      logger,
		timeline:    timeline,
		itineraries: itineraries,
		now:         time.Now,
	}
}

// List handles GET /api/v1/itineraries/{id}/timeline.
func (h *TimelineHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	steps, err := h.timeline.ListTimelineSteps(ctx, r.PathValue("id"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list timeline steps", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	views := make([]api.TimelineStep, 0, len(steps))
	for _, step := range steps {
		views = append(views, timelineStepView(step))
	}

	respondData(w, h.logger, http.StatusOK, views)
}

// Create handles POST /api/v1/itineraries/{id}/timeline/steps. The storage
// layer assigns the next step order within the itinerary.
func (h *TimelineHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itineraryID := r.PathValue("id")
	it, err := h.itineraries.GetItinerary(ctx, itineraryID)
	if err != nil && !errors.Is(err, storage.ErrItineraryNotFound) {
		h.logger.ErrorContext(ctx, "failed to get itinerary", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}
	if err := guard.Authorize(it, CredentialBinding(ctx)); err != nil {
		respondGuardError(w, h.logger, err)
		return
	}

	var req api.CreateTimelineStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode create timeline step request", slog.Any("error", err))
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid request body")
		return
	}

	if req.Title == "" || req.StartTime == "" {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "title and startTime are required")
		return
	}
	if err := validation.ValidateTime(req.StartTime); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
		return
	}
	if req.EndTime != nil {
		if err := validation.ValidateTime(*req.EndTime); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
			return
		}
	}

	step := &models.TimelineStep{
		ID:              uuid.New().String(),
		ItineraryID:     itineraryID,
		Title:           req.Title,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Notes:           req.Notes,
		CreatedAt:       h.now(),
	}

	if err := h.timeline.CreateTimelineStep(ctx, step); err != nil {
		h.logger.ErrorContext(ctx, "failed to create timeline step", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "timeline step created",
		slog.String("step_id", step.ID),
		slog.String("shiori_id", itineraryID))

	respondData(w, h.logger, http.StatusCreated, timelineStepView(step))
}

// Update handles PUT /api/v1/timeline/steps/{id}.
func (h *TimelineHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	step := h.resolveForWrite(w, r)
	if step == nil {
		return
	}

	var req api.UpdateTimelineStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode update timeline step request", slog.Any("error", err))
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
	if req.StartTime != nil {
		if err := validation.ValidateTime(*req.StartTime); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
			return
		}
		step.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if err := validation.ValidateTime(*req.EndTime); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, err.Error())
			return
		}
		step.EndTime = req.EndTime
	}
	if req.DurationMinutes != nil {
		step.DurationMinutes = req.DurationMinutes
	}
	if req.Location != nil {
		step.Location = req.Location
	}
	if req.Latitude != nil {
		step.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		step.Longitude = req.Longitude
	}
	if req.Notes != nil {
		step.Notes = req.Notes
	}

	if err := h.timeline.UpdateTimelineStep(ctx, step); err != nil {
		if errors.Is(err, storage.ErrTimelineStepNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Timeline step not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to update timeline step", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	respondData(w, h.logger, http.StatusOK, timelineStepView(step))
}

// Delete handles DELETE /api/v1/timeline/steps/{id}.
func (h *TimelineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	step := h.resolveForWrite(w, r)
	if step == nil {
		return
	}

	if err := h.timeline.DeleteTimelineStep(ctx, step.ID); err != nil {
		if errors.Is(err, storage.ErrTimelineStepNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Timeline step not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete timeline step", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "timeline step deleted", slog.String("step_id", step.ID))

	respondData(w, h.logger, http.StatusOK, nil)
}

// Reorder handles POST /api/v1/timeline/steps/{id}/reorder.
func (h *TimelineHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	step := h.resolveForWrite(w, r)
	if step == nil {
		return
	}

	var req api.ReorderTimelineStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode reorder request", slog.Any("error", err))
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "invalid request body")
		return
	}

	if req.NewOrder < 1 {
		respondError(w, h.logger, http.StatusBadRequest, api.CodeInvalidInput, "newOrder must be positive")
		return
	}

	if err := h.timeline.ReorderTimelineStep(ctx, step.ID, req.NewOrder); err != nil {
		if errors.Is(err, storage.ErrTimelineStepNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Timeline step not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to reorder timeline step", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "internal server error")
		return
	}

	step.StepOrder = req.NewOrder

	respondData(w, h.logger, http.StatusOK, timelineStepView(step))
}

// resolveForWrite fetches the target timeline step and runs the
// authorization guard against its owning itinerary. On failure it writes
// the response and returns nil.
func (h *TimelineHandler) resolveForWrite(w http.ResponseWriter, r *http.Request) *models.TimelineStep {
	ctx := r.Context()

	step, err := h.timeline.GetTimelineStep(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrTimelineStepNotFound) {
			respondError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "Timeline step not found")
			return nil
		}
		h.logger.ErrorContext(ctx, "failed to get timeline step", slog.Any("error", err))
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

func timelineStepView(step *models.TimelineStep) api.TimelineStep {
	return api.TimelineStep{
		ID:              step.ID,
		ItineraryID:     step.ItineraryID,
		StepOrder:       step.StepOrder,
		Title:           step.Title,
		StartTime:       step.StartTime,
		EndTime:         step.EndTime,
		DurationMinutes: step.DurationMinutes,
		Location:        step.Location,
		Latitude:        step.Latitude,
		Longitude:       step.Longitude,
		Notes:           step.Notes,
		CreatedAt:       step.CreatedAt,
	}
}
