package storage

import (
	"context"

	"github.com/tabitabi/shiori/internal/models"
)

// ItineraryStorage defines the repository contract for itineraries.
// UpdateItinerary persists the whole record: the main row plus the secret
// and walica side tables (upserted when set on the record, removed when
// nil). Side-table writes are applied after the main row, best effort; a
// failure there leaves the main row correctly mutated.
type ItineraryStorage interface {
	CreateItinerary(ctx context.Context, it *models.Itinerary) error
	GetItinerary(ctx context.Context, id string) (*models.Itinerary, error)
	ListItineraries(ctx context.Context) ([]*models.Itinerary, error)
	UpdateItinerary(ctx context.Context, it *models.Itinerary) error
	DeleteItinerary(ctx context.Context, id string) error
}
