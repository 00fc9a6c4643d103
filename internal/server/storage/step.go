package storage

import (
	"context"

	"github.com/tabitabi/shiori/internal/models"
)

// StepStorage defines the repository contract for steps. ListSteps returns
// steps ordered by (date, time) ascending; an unknown itinerary id yields an
// empty slice, not an error.
type StepStorage interface {
	CreateStep(ctx context.Context, step *models.Step) error
	GetStep(ctx context.Context, id string) (*models.Step, error)
	ListSteps(ctx context.Context, itineraryID string) ([]*models.Step, error)
	UpdateStep(ctx context.Context, step *models.Step) error
	DeleteStep(ctx context.Context, id string) error
}
