package storage

import (
	"context"

	"github.com/tabitabi/shiori/internal/models"
)

// TimelineStorage defines the repository contract for timeline steps.
// CreateTimelineStep assigns the next step order (max+1) within the
// itinerary; ListTimelineSteps returns entries ordered by step order.
type TimelineStorage interface {
	CreateTimelineStep(ctx context.Context, step *models.TimelineStep) error
	GetTimelineStep(ctx context.Context, id string) (*models.TimelineStep, error)
	ListTimelineSteps(ctx context.Context, itineraryID string) ([]*models.TimelineStep, error)
	UpdateTimelineStep(ctx context.Context, step *models.TimelineStep) error
	DeleteTimelineStep(ctx context.Context, id string) error
	ReorderTimelineStep(ctx context.Context, id string, newOrder int) error
}
