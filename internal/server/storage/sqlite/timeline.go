package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tabitabi/shiori/internal/models"
	"github.com/tabitabi/shiori/internal/server/storage"
)

// CreateTimelineStep inserts a timeline step, assigning the next step order
// within the itinerary.
func (s *Storage) CreateTimelineStep(ctx context.Context, step *models.TimelineStep) error {
	var maxOrder sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(step_order) FROM timeline_steps WHERE itinerary_id = ?`,
		step.ItineraryID,
	).Scan(&maxOrder)
	if err != nil {
		return fmt.Errorf("failed to get max step order: %w", err)
	}

	step.StepOrder = int(maxOrder.Int64) + 1

	query := `
		INSERT INTO timeline_steps
			(id, itinerary_id, step_order, title, start_time, end_time,
			 duration_minutes, location, latitude, longitude, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		step.ID,
		step.ItineraryID,
		step.StepOrder,
		step.Title,
		step.StartTime,
		nullString(step.EndTime),
		nullInt(step.DurationMinutes),
		nullString(step.Location),
		nullFloat(step.Latitude),
		nullFloat(step.Longitude),
		nullString(step.Notes),
		step.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert timeline step: %w", err)
	}

	return nil
}

// GetTimelineStep retrieves a timeline step by id.
func (s *Storage) GetTimelineStep(ctx context.Context, id string) (*models.TimelineStep, error) {
	query := `
		SELECT id, itinerary_id, step_order, title, start_time, end_time,
		       duration_minutes, location, latitude, longitude, notes, created_at
		FROM timeline_steps
		WHERE id = ?
	`

	step, err := scanTimelineStep(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTimelineStepNotFound
		}
		return nil, fmt.Errorf("failed to get timeline step: %w", err)
	}

	return step, nil
}

// ListTimelineSteps returns an itinerary's timeline ordered by step order.
func (s *Storage) ListTimelineSteps(ctx context.Context, itineraryID string) ([]*models.TimelineStep, error) {
	query := `
		SELECT id, itinerary_id, step_order, title, start_time, end_time,
		       duration_minutes, location, latitude, longitude, notes, created_at
		FROM timeline_steps
		WHERE itinerary_id = ?
		ORDER BY step_order ASC
	`

	rows, err := s.db.QueryContext(ctx, query, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline steps: %w", err)
	}
	defer rows.Close()

	steps := []*models.TimelineStep{}
	for rows.Next() {
		step, err := scanTimelineStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeline step: %w", err)
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timeline steps: %w", err)
	}

	return steps, nil
}

// UpdateTimelineStep persists a timeline step's mutable fields. Step order
// is changed only through ReorderTimelineStep.
func (s *Storage) UpdateTimelineStep(ctx context.Context, step *models.TimelineStep) error {
	query := `
		UPDATE timeline_steps
		SET title = ?, start_time = ?, end_time = ?, duration_minutes = ?,
		    location = ?, latitude = ?, longitude = ?, notes = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		step.Title,
		step.StartTime,
		nullString(step.EndTime),
		nullInt(step.DurationMinutes),
		nullString(step.Location),
		nullFloat(step.Latitude),
		nullFloat(step.Longitude),
		nullString(step.Notes),
		step.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update timeline step: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrTimelineStepNotFound
	}

	return nil
}

// DeleteTimelineStep removes a timeline step by id.
func (s *Storage) DeleteTimelineStep(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM timeline_steps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete timeline step: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrTimelineStepNotFound
	}

	return nil
}

// ReorderTimelineStep moves a timeline step to a new position.
func (s *Storage) ReorderTimelineStep(ctx context.Context, id string, newOrder int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE timeline_steps SET step_order = ? WHERE id = ?`, newOrder, id)
	if err != nil {
		return fmt.Errorf("failed to reorder timeline step: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrTimelineStepNotFound
	}

	return nil
}

func scanTimelineStep(row scanner) (*models.TimelineStep, error) {
	step := &models.TimelineStep{}
	var endTime, location, notes sql.NullString
	var duration sql.NullInt64
	var latitude, longitude sql.NullFloat64

	err := row.Scan(
		&step.ID,
		&step.ItineraryID,
		&step.StepOrder,
		&step.Title,
		&step.StartTime,
		&endTime,
		&duration,
		&location,
		&latitude,
		&longitude,
		&notes,
		&step.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		step.EndTime = &endTime.String
	}
	if duration.Valid {
		d := int(duration.Int64)
		step.DurationMinutes = &d
	}
	if location.Valid {
		step.Location = &location.String
	}
	if latitude.Valid {
		step.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		step.Longitude = &longitude.Float64
	}
	if notes.Valid {
		step.Notes = &notes.String
	}

	return step, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
