package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sort"

	"github.com/tabitabi/shiori/internal/models"
	"github.com/tabitabi/shiori/internal/server/storage"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// withBinding attaches a verified credential binding to the request, the way
// the auth middleware does after token verification.
func withBinding(req *http.Request, shioriID string) *http.Request {
	ctx := context.WithValue(req.Context(), ShioriIDKey, shioriID)
	return req.WithContext(ctx)
}

// mockItineraryStorage is a map-backed ItineraryStorage for testing
type mockItineraryStorage struct {
	itineraries map[string]*models.Itinerary
	getError    error
	createError error
	updateError error
	deleteError error
}

func newMockItineraryStorage() *mockItineraryStorage {
	return &mockItineraryStorage{itineraries: make(map[string]*models.Itinerary)}
}

func (m *mockItineraryStorage) CreateItinerary(ctx context.Context, it *models.Itinerary) error {
	if m.createError != nil {
		return m.createError
	}
	m.itineraries[it.ID] = it
	return nil
}

func (m *mockItineraryStorage) GetItinerary(ctx context.Context, id string) (*models.Itinerary, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	it, ok := m.itineraries[id]
	if !ok {
		return nil, storage.ErrItineraryNotFound
	}
	copied := *it
	return &copied, nil
}

func (m *mockItineraryStorage) ListItineraries(ctx context.Context) ([]*models.Itinerary, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	ids := make([]string, 0, len(m.itineraries))
	for id := range m.itineraries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]*models.Itinerary, 0, len(ids))
	for _, id := range ids {
		result = append(result, m.itineraries[id])
	}
	return result, nil
}

func (m *mockItineraryStorage) UpdateItinerary(ctx context.Context, it *models.Itinerary) error {
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.itineraries[it.ID]; !ok {
		return storage.ErrItineraryNotFound
	}
	m.itineraries[it.ID] = it
	return nil
}

func (m *mockItineraryStorage) DeleteItinerary(ctx context.Context, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	if _, ok := m.itineraries[id]; !ok {
		return storage.ErrItineraryNotFound
	}
	delete(m.itineraries, id)
	return nil
}

// mockStepStorage is a map-backed StepStorage for testing
type mockStepStorage struct {
	steps     map[string]*models.Step
	listError error
	getError  error
}

func newMockStepStorage() *mockStepStorage {
	return &mockStepStorage{steps: make(map[string]*models.Step)}
}

func (m *mockStepStorage) CreateStep(ctx context.Context, step *models.Step) error {
	m.steps[step.ID] = step
	return nil
}

func (m *mockStepStorage) GetStep(ctx context.Context, id string) (*models.Step, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	step, ok := m.steps[id]
	if !ok {
		return nil, storage.ErrStepNotFound
	}
	copied := *step
	return &copied, nil
}

func (m *mockStepStorage) ListSteps(ctx context.Context, itineraryID string) ([]*models.Step, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var result []*models.Step
	for _, step := range m.steps {
		if step.ItineraryID == itineraryID {
			result = append(result, step)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].Time < result[j].Time
	})
	return result, nil
}

func (m *mockStepStorage) UpdateStep(ctx context.Context, step *models.Step) error {
	if _, ok := m.steps[step.ID]; !ok {
		return storage.ErrStepNotFound
	}
	m.steps[step.ID] = step
	return nil
}

func (m *mockStepStorage) DeleteStep(ctx context.Context, id string) error {
	if _, ok := m.steps[id]; !ok {
		return storage.ErrStepNotFound
	}
	delete(m.steps, id)
	return nil
}

// mockTimelineStorage is a map-backed TimelineStorage for testing
type mockTimelineStorage struct {
	steps    map[string]*models.TimelineStep
	getError error
}

func newMockTimelineStorage() *mockTimelineStorage {
	return &mockTimelineStorage{steps: make(map[string]*models.TimelineStep)}
}

func (m *mockTimelineStorage) CreateTimelineStep(ctx context.Context, step *models.TimelineStep) error {
	maxOrder := 0
	for _, existing := range m.steps {
		if existing.ItineraryID == step.ItineraryID && existing.StepOrder > maxOrder {
			maxOrder = existing.StepOrder
		}
	}
	step.StepOrder = maxOrder + 1
	m.steps[step.ID] = step
	return nil
}

func (m *mockTimelineStorage) GetTimelineStep(ctx context.Context, id string) (*models.TimelineStep, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	step, ok := m.steps[id]
	if !ok {
		return nil, storage.ErrTimelineStepNotFound
	}
	copied := *step
	return &copied, nil
}

func (m *mockTimelineStorage) ListTimelineSteps(ctx context.Context, itineraryID string) ([]*models.TimelineStep, error) {
	var result []*models.TimelineStep
	for _, step := range m.steps {
		if step.ItineraryID == itineraryID {
			result = append(result, step)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StepOrder < result[j].StepOrder
	})
	return result, nil
}

func (m *mockTimelineStorage) UpdateTimelineStep(ctx context.Context, step *models.TimelineStep) error {
	if _, ok := m.steps[step.ID]; !ok {
		return storage.ErrTimelineStepNotFound
	}
	m.steps[step.ID] = step
	return nil
}

func (m *mockTimelineStorage) DeleteTimelineStep(ctx context.Context, id string) error {
	if _, ok := m.steps[id]; !ok {
		return storage.ErrTimelineStepNotFound
	}
	delete(m.steps, id)
	return nil
}

func (m *mockTimelineStorage) ReorderTimelineStep(ctx context.Context, id string, newOrder int) error {
	step, ok := m.steps[id]
	if !ok {
		return storage.ErrTimelineStepNotFound
	}
	step.StepOrder = newOrder
	return nil
}
