package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabitabi/shiori/internal/models"
	"github.com/tabitabi/shiori/internal/server/visibility"
	"github.com/tabitabi/shiori/pkg/api"
)

func strPtr(s string) *string { return &s }

func decodeSteps(t *testing.T, w *httptest.ResponseRecorder) []api.Step {
	t.Helper()
	var resp struct {
		Success bool       `json:"success"`
		Data    []api.Step `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	return resp.Data
}

func listSteps(handler *StepHandler, itineraryID, binding string) *httptest.ResponseRecorder {
	target := "/api/v1/steps"
	if itineraryID != "" {
		target += "?itinerary_id=" + itineraryID
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if binding != "" {
		req = withBinding(req, binding)
	}
	w := httptest.NewRecorder()
	handler.List(w, req)
	return w
}

func TestStepHandler_List_RequiresItineraryID(t *testing.T) {
	handler := NewStepHandler(setupTestLogger(), newMockStepStorage(), newMockItineraryStorage())

	w := listSteps(handler, "", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, api.CodeInvalidInput, decodeError(t, w).Code)
}

func TestStepHandler_List_UnknownItineraryIsEmpty(t *testing.T) {
	handler := NewStepHandler(setupTestLogger(), newMockStepStorage(), newMockItineraryStorage())

	w := listSteps(handler, "no-such-itinerary", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeSteps(t, w))
}

func TestStepHandler_List_SecretMode(t *testing.T) {
	itineraries := newMockItineraryStorage()
	itineraries.itineraries["shiori-1"] = &models.Itinerary{
		ID:      "shiori-1",
		Title:   "サプライズ旅行",
		ThemeID: models.DefaultThemeID,
		Secret:  &models.SecretSettings{Enabled: true, OffsetMinutes: 60},
	}

	steps := newMockStepStorage()
	steps.steps["past"] = &models.Step{
		ID:          "past",
		ItineraryID: "shiori-1",
		Title:       "朝食",
		Date:        "2026-09-01",
		Time:        "08:00",
		Location:    strPtr("ホテル"),
	}
	steps.steps["future"] = &models.Step{
		ID:          "future",
		ItineraryID: "shiori-1",
		Title:       "サプライズディナー",
		Date:        "2026-09-01",
		Time:        "19:00",
		Location:    strPtr("レストラン"),
		Notes:       strPtr(`{"text":"予約済み"}`),
	}

	handler := NewStepHandler(setupTestLogger(), steps, itineraries)
	// Noon JST: the 08:00 step has passed, the 19:00 step reveals at 18:00.
	handler.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, visibility.Zone)
	}

	t.Run("viewer sees redacted future steps", func(t *testing.T) {
		w := listSteps(handler, "shiori-1", "")
		require.Equal(t, http.StatusOK, w.Code)

		views := decodeSteps(t, w)
		require.Len(t, views, 2)

		// Order is (date, time) ascending regardless of redaction.
		assert.Equal(t, "past", views[0].ID)
		assert.Equal(t, "朝食", views[0].Title)
		assert.False(t, views[0].IsHidden)

		hidden := views[1]
		assert.Equal(t, "future", hidden.ID)
		assert.Equal(t, visibility.HiddenTitle, hidden.Title)
		assert.Nil(t, hidden.Location)
		assert.Nil(t, hidden.Notes)
		assert.True(t, hidden.IsHidden)
		// Schedule stays visible so the viewer knows something is planned.
		assert.Equal(t, "2026-09-01", hidden.Date)
		assert.Equal(t, "19:00", hidden.Time)
	})

	t.Run("editor sees full content", func(t *testing.T) {
		w := listSteps(handler, "shiori-1", "shiori-1")
		require.Equal(t, http.StatusOK, w.Code)

		views := decodeSteps(t, w)
		require.Len(t, views, 2)
		assert.Equal(t, "サプライズディナー", views[1].Title)
		assert.False(t, views[1].IsHidden)
	})

	t.Run("foreign credential is still a viewer", func(t *testing.T) {
		w := listSteps(handler, "shiori-1", "other-shiori")
		require.Equal(t, http.StatusOK, w.Code)

		views := decodeSteps(t, w)
		assert.Equal(t, visibility.HiddenTitle, views[1].Title)
	})

	t.Run("everything visible once revealed", func(t *testing.T) {
		handler.now = func() time.Time {
			return time.Date(2026, 9, 1, 18, 0, 0, 0, visibility.Zone)
		}
		defer func() {
			handler.now = func() time.Time {
				return time.Date(2026, 9, 1, 12, 0, 0, 0, visibility.Zone)
			}
		}()

		w := listSteps(handler, "shiori-1", "")
		views := decodeSteps(t, w)
		assert.Equal(t, "サプライズディナー", views[1].Title)
		assert.False(t, views[1].IsHidden)
	})
}

func TestStepHandler_List_SecretDisabled(t *testing.T) {
	itineraries := newMockItineraryStorage()
	itineraries.itineraries["shiori-1"] = &models.Itinerary{
		ID:      "shiori-1",
		Title:   "通常のしおり",
		ThemeID: models.DefaultThemeID,
		Secret:  &models.SecretSettings{Enabled: false, OffsetMinutes: 60},
	}

	steps := newMockStepStorage()
	steps.steps["future"] = &models.Step{
		ID:          "future",
		ItineraryID: "shiori-1",
		Title:       "夕食",
		Date:        "2099-01-01",
		Time:        "19:00",
	}

	handler := NewStepHandler(setupTestLogger(), steps, itineraries)

	w := listSteps(handler, "shiori-1", "")
	views := decodeSteps(t, w)
	require.Len(t, views, 1)
	assert.Equal(t, "夕食", views[0].Title)
	assert.False(t, views[0].IsHidden)
}

func postStep(t *testing.T, handler *StepHandler, binding string, reqBody api.CreateStepRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/steps", bytes.NewReader(body))
	if binding != "" {
		req = withBinding(req, binding)
	}
	w := httptest.NewRecorder()
	handler.Create(w, req)
	return w
}

func TestStepHandler_Create(t *testing.T) {
	itineraries := newMockItineraryStorage()
	it := protectedItinerary(t, "shiori-1", "himitsu")
	itineraries.itineraries[it.ID] = it
	itineraries.itineraries["public-1"] = &models.Itinerary{
		ID:      "public-1",
		Title:   "公開のしおり",
		ThemeID: models.DefaultThemeID,
	}

	steps := newMockStepStorage()
	handler := NewStepHandler(setupTestLogger(), steps, itineraries)

	valid := api.CreateStepRequest{
		ItineraryID: "shiori-1",
		Title:       "清水寺",
		Date:        "2026-09-01",
		Time:        "09:00",
	}

	t.Run("denied without credential", func(t *testing.T) {
		w := postStep(t, handler, "", valid)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("denied with foreign credential", func(t *testing.T) {
		w := postStep(t, handler, "other-shiori", valid)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("created with matching credential", func(t *testing.T) {
		w := postStep(t, handler, "shiori-1", valid)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Success bool     `json:"success"`
			Data    api.Step `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.NotEmpty(t, resp.Data.ID)
		assert.Contains(t, steps.steps, resp.Data.ID)
	})

	t.Run("public itinerary accepts anonymous writes", func(t *testing.T) {
		req := valid
		req.ItineraryID = "public-1"
		w := postStep(t, handler, "", req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing itinerary", func(t *testing.T) {
		req := valid
		req.ItineraryID = "missing"
		w := postStep(t, handler, "missing", req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid date", func(t *testing.T) {
		req := valid
		req.Date = "09/01/2026"
		w := postStep(t, handler, "shiori-1", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid time", func(t *testing.T) {
		req := valid
		req.Time = "9am"
		w := postStep(t, handler, "shiori-1", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing required fields", func(t *testing.T) {
		w := postStep(t, handler, "shiori-1", api.CreateStepRequest{ItineraryID: "shiori-1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStepHandler_UpdateDelete_Guard(t *testing.T) {
	itineraries := newMockItineraryStorage()
	it := protectedItinerary(t, "shiori-1", "himitsu")
	itineraries.itineraries[it.ID] = it

	steps := newMockStepStorage()
	steps.steps["step-1"] = &models.Step{
		ID:          "step-1",
		ItineraryID: "shiori-1",
		Title:       "清水寺",
		Date:        "2026-09-01",
		Time:        "09:00",
	}

	handler := NewStepHandler(setupTestLogger(), steps, itineraries)

	t.Run("update denied without credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/steps/step-1", bytes.NewReader([]byte(`{"title":"金閣寺"}`)))
		req.SetPathValue("id", "step-1")
		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "清水寺", steps.steps["step-1"].Title)
	})

	t.Run("update with matching credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/steps/step-1", bytes.NewReader([]byte(`{"title":"金閣寺","time":"10:30"}`)))
		req.SetPathValue("id", "step-1")
		req = withBinding(req, "shiori-1")
		w := httptest.NewRecorder()
		handler.Update(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "金閣寺", steps.steps["step-1"].Title)
		assert.Equal(t, "10:30", steps.steps["step-1"].Time)
		// Untouched fields survive the partial update.
		assert.Equal(t, "2026-09-01", steps.steps["step-1"].Date)
	})

	t.Run("update missing step", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/steps/missing", bytes.NewReader([]byte(`{"title":"x"}`)))
		req.SetPathValue("id", "missing")
		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete denied with foreign credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/steps/step-1", nil)
		req.SetPathValue("id", "step-1")
		req = withBinding(req, "other-shiori")
		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete with matching credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/steps/step-1", nil)
		req.SetPathValue("id", "step-1")
		req = withBinding(req, "shiori-1")
		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, steps.steps, "step-1")
	})
}
