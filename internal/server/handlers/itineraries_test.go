package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabitabi/shiori/internal/models"
	"github.com/tabitabi/shiori/internal/server/token"
	"github.com/tabitabi/shiori/pkg/api"
)

func decodeItinerary(t *testing.T, w *httptest.ResponseRecorder) api.Itinerary {
	t.Helper()
	var resp struct {
		Success bool          `json:"success"`
		Data    api.Itinerary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	return resp.Data
}

func TestItineraryHandler_Create_Success(t *testing.T) {
	store := newMockItineraryStorage()
	handler := NewItineraryHandler(setupTestLogger(), store)

	reqBody := api.CreateItineraryRequest{
		Title:    "京都旅行",
		Password: "himitsu",
		SecretSettings: &api.SecretSettings{
			Enabled:       true,
			OffsetMinutes: 60,
		},
	}
	body, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	view := decodeItinerary(t, w)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "京都旅行", view.Title)
	assert.Equal(t, models.DefaultThemeID, view.ThemeID)
	assert.True(t, view.IsPasswordProtected)
	require.NotNil(t, view.SecretSettings)
	assert.Equal(t, 60, view.SecretSettings.OffsetMinutes)

	stored := store.itineraries[view.ID]
	require.NotNil(t, stored)
	// The hash must never equal the raw password and never leave the server.
	assert.NotEqual(t, "himitsu", stored.PasswordHash)
	assert.True(t, token.CheckPassword("himitsu", stored.PasswordHash))
}

func TestItineraryHandler_Create_MissingTitle(t *testing.T) {
	handler := NewItineraryHandler(setupTestLogger(), newMockItineraryStorage())

	body, err := json.Marshal(api.CreateItineraryRequest{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, api.CodeInvalidInput, decodeError(t, w).Code)
}

func TestItineraryHandler_Create_NormalizesLegacyTheme(t *testing.T) {
	store := newMockItineraryStorage()
	handler := NewItineraryHandler(setupTestLogger(), store)

	body, err := json.Marshal(api.CreateItineraryRequest{
		Title:   "旅のしおり",
		ThemeID: models.LegacyThemeID,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.DefaultThemeID, decodeItinerary(t, w).ThemeID)
}

func TestItineraryHandler_Create_InvalidMemo(t *testing.T) {
	handler := NewItineraryHandler(setupTestLogger(), newMockItineraryStorage())

	memo := `["not","an","object"]`
	body, err := json.Marshal(api.CreateItineraryRequest{
		Title: "旅のしおり",
		Memo:  &memo,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItineraryHandler_Get_HidesPasswordHash(t *testing.T) {
	store := newMockItineraryStorage()
	it := protectedItinerary(t, "shiori-1", "himitsu")
	store.itineraries[it.ID] = it

	handler := NewItineraryHandler(setupTestLogger(), store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/itineraries/shiori-1", nil)
	req.SetPathValue("id", "shiori-1")
	w := httptest.NewRecorder()
	handler.Get(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeItinerary(t, w).IsPasswordProtected)
	assert.NotContains(t, w.Body.String(), it.PasswordHash)
}

func TestItineraryHandler_Get_NotFound(t *testing.T) {
	handler := NewItineraryHandler(setupTestLogger(), newMockItineraryStorage())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/itineraries/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, api.CodeNotFound, decodeError(t, w).Code)
}

func putItinerary(t *testing.T, handler *ItineraryHandler, id, binding, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/itineraries/"+id, bytes.NewReader([]byte(body)))
	req.SetPathValue("id", id)
	if binding != "" {
		req = withBinding(req, binding)
	}
	w := httptest.NewRecorder()
	handler.Update(w, req)
	return w
}

func TestItineraryHandler_Update_Guard(t *testing.T) {
	store := newMockItineraryStorage()
	it := protectedItinerary(t, "shiori-1", "himitsu")
	store.itineraries[it.ID] = it
	store.itineraries["public-1"] = &models.Itinerary{
		ID:      "public-1",
		Title:   "公開のしおり",
		ThemeID: models.DefaultThemeID,
	}

	handler := NewItineraryHandler(setupTestLogger(), store)

	tests := []struct {
		name     string
		id       string
		binding  string
		wantCode int
		wantErr  string
	}{
		{"protected without credential", "shiori-1", "", http.StatusUnauthorized, api.CodeUnauthorized},
		{"protected with foreign credential", "shiori-1", "other-shiori", http.StatusForbidden, api.CodeForbidden},
		{"protected with matching credential", "shiori-1", "shiori-1", http.StatusOK, ""},
		{"public without credential", "public-1", "", http.StatusOK, ""},
		{"missing itinerary", "missing", "shiori-1", http.StatusNotFound, api.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := putItinerary(t, handler, tt.id, tt.binding, `{"title":"新しいタイトル"}`)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, w).Code)
			}
		})
	}
}

func TestItineraryHandler_Update_PartialFields(t *testing.T) {
	store := newMockItineraryStorage()
	memo := `{"text":"持ち物リスト"}`
	walicaID := "walica-abc"
	store.itineraries["shiori-1"] = &models.Itinerary{
		ID:       "shiori-1",
		Title:    "京都旅行",
		ThemeID:  models.DefaultThemeID,
		Memo:     &memo,
		WalicaID: &walicaID,
		Secret:   &models.SecretSettings{Enabled: true, OffsetMinutes: 30},
	}

	handler := NewItineraryHandler(setupTestLogger(), store)

	t.Run("absent fields stay unchanged", func(t *testing.T) {
		w := putItinerary(t, handler, "shiori-1", "", `{"title":"大阪旅行"}`)
		require.Equal(t, http.StatusOK, w.Code)

		stored := store.itineraries["shiori-1"]
		assert.Equal(t, "大阪旅行", stored.Title)
		require.NotNil(t, stored.Memo)
		require.NotNil(t, stored.WalicaID)
		require.NotNil(t, stored.Secret)
	})

	t.Run("explicit null clears secret settings", func(t *testing.T) {
		w := putItinerary(t, handler, "shiori-1", "", `{"secret_settings":null}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, store.itineraries["shiori-1"].Secret)
	})

	t.Run("explicit null clears walica id", func(t *testing.T) {
		w := putItinerary(t, handler, "shiori-1", "", `{"walica_id":null}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, store.itineraries["shiori-1"].WalicaID)
	})

	t.Run("negative offset rejected", func(t *testing.T) {
		w := putItinerary(t, handler, "shiori-1", "", `{"secret_settings":{"enabled":true,"offset_minutes":-5}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestItineraryHandler_Update_PasswordLifecycle(t *testing.T) {
	store := newMockItineraryStorage()
	store.itineraries["shiori-1"] = &models.Itinerary{
		ID:      "shiori-1",
		Title:   "公開のしおり",
		ThemeID: models.DefaultThemeID,
	}

	handler := NewItineraryHandler(setupTestLogger(), store)

	// Setting a password on a public itinerary protects it.
	w := putItinerary(t, handler, "shiori-1", "", `{"password":"himitsu"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, store.itineraries["shiori-1"].IsPasswordProtected())

	// Now writes require the matching credential.
	w = putItinerary(t, handler, "shiori-1", "", `{"title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// An empty password removes the protection.
	w = putItinerary(t, handler, "shiori-1", "shiori-1", `{"password":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.itineraries["shiori-1"].IsPasswordProtected())
}

func TestItineraryHandler_Delete(t *testing.T) {
	store := newMockItineraryStorage()
	it := protectedItinerary(t, "shiori-1", "himitsu")
	store.itineraries[it.ID] = it

	handler := NewItineraryHandler(setupTestLogger(), store)

	t.Run("denied without credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/itineraries/shiori-1", nil)
		req.SetPathValue("id", "shiori-1")
		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("allowed with matching credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/itineraries/shiori-1", nil)
		req.SetPathValue("id", "shiori-1")
		req = withBinding(req, "shiori-1")
		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, store.itineraries, "shiori-1")
	})
}

func TestItineraryHandler_List(t *testing.T) {
	store := newMockItineraryStorage()
	store.itineraries["a"] = &models.Itinerary{ID: "a", Title: "春の旅", ThemeID: models.DefaultThemeID}
	store.itineraries["b"] = protectedItinerary(t, "b", "himitsu")

	handler := NewItineraryHandler(setupTestLogger(), store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/itineraries", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    []api.Itinerary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.False(t, resp.Data[0].IsPasswordProtected)
	assert.True(t, resp.Data[1].IsPasswordProtected)
}
