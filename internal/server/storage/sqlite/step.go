package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tabitabi/shiori/internal/models"
	"github.com/tabitabi/shiori/internal/server/storage"
)

// CreateStep inserts a new step.
func (s *Storage) CreateStep(ctx context.Context, step *models.Step) error {
	query := `
		INSERT INTO steps (id, itinerary_id, title, date, time, location, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		step.ID,
		step.ItineraryID,
		step.Title,
		step.Date,
		step.Time,
		nullString(step.Location),
		nullString(step.Notes),
		step.CreatedAt,
		step.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert step: %w", err)
	}

	return nil
}

// GetStep retrieves a step by id.
func (s *Storage) GetStep(ctx context.Context, id string) (*models.Step, error) {
	query := `
		SELECT id, itinerary_id, title, date, time, location, notes, created_at, updated_at
		FROM steps
		WHERE id = ?
	`

	step, err := scanStep(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrStepNotFound
		}
		return nil, fmt.Errorf("failed to get step: %w", err)
	}

	return step, nil
}

// ListSteps returns an itinerary's steps ordered by (date, time) ascending.
// An unknown itinerary id yields an empty slice.
func (s *Storage) ListSteps(ctx context.Context, itineraryID string) ([]*models.Step, error) {
	query := `
		SELECT id, itinerary_id, title, date, time, location, notes, created_at, updated_at
		FROM steps
		WHERE itinerary_id = ?
		ORDER BY date ASC, time ASC
	`

	rows, err := s.db.QueryContext(ctx, query, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	steps := []*models.Step{}
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}

	return steps, nil
}

// UpdateStep persists a step's mutable fields.
func (s *Storage) UpdateStep(ctx context.Context, step *models.Step) error {
	query := `
		UPDATE steps
		SET title = ?, date = ?, time = ?, location = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		step.Title,
		step.Date,
		step.Time,
		nullString(step.Location),
		nullString(step.Notes),
		step.UpdatedAt,
		step.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update step: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrStepNotFound
	}

	return nil
}

// DeleteStep removes a step by id.
func (s *Storage) DeleteStep(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM steps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete step: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrStepNotFound
	}

	return nil
}

func scanStep(row scanner) (*models.Step, error) {
	step := &models.Step{}
	var location, notes sql.NullString

	err := row.Scan(
		&step.ID,
		&step.ItineraryID,
		&step.Title,
		&step.Date,
		&step.Time,
		&location,
		&notes,
		&step.CreatedAt,
		&step.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if location.Valid {
		step.Location = &location.String
	}
	if notes.Valid {
		step.Notes = &notes.String
	}

	return step, nil
}
