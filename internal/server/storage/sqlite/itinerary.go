package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tabitabi/shiori/internal/models"
	"github.com/tabitabi/shiori/internal/server/storage"
)

const itinerarySelect = `
	SELECT i.id, i.title, i.theme_id, i.memo, i.password_hash,
	       i.created_at, i.updated_at,
	       s.enabled, s.offset_minutes,
	       w.walica_id
	FROM itineraries i
	LEFT JOIN itinerary_secrets s ON i.id = s.itinerary_id
	LEFT JOIN itinerary_walica_settings w ON i.id = w.itinerary_id
`

// CreateItinerary inserts the itinerary row and its side-table settings.
func (s *Storage) CreateItinerary(ctx context.Context, it *models.Itinerary) error {
	query := `
		INSERT INTO itineraries (id, title, theme_id, memo, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		it.ID,
		it.Title,
		it.ThemeID,
		nullString(it.Memo),
		emptyAsNull(it.PasswordHash),
		it.CreatedAt,
		it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert itinerary: %w", err)
	}

	if it.Secret != nil {
		if err := s.upsertSecret(ctx, it); err != nil {
			return err
		}
	}
	if it.WalicaID != nil {
		if err := s.upsertWalica(ctx, it); err != nil {
			return err
		}
	}

	return nil
}

// GetItinerary retrieves an itinerary with its side-table settings merged.
func (s *Storage) GetItinerary(ctx context.Context, id string) (*models.Itinerary, error) {
	row := s.db.QueryRowContext(ctx, itinerarySelect+" WHERE i.id = ?", id)

	it, err := scanItinerary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrItineraryNotFound
		}
		return nil, fmt.Errorf("failed to get itinerary: %w", err)
	}

	return it, nil
}

// ListItineraries returns all itineraries, newest first.
func (s *Storage) ListItineraries(ctx context.Context) ([]*models.Itinerary, error) {
	rows, err := s.db.QueryContext(ctx, itinerarySelect+" ORDER BY i.created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	itineraries := []*models.Itinerary{}
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan itinerary: %w", err)
		}
		itineraries = append(itineraries, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate itineraries: %w", err)
	}

	return itineraries, nil
}

// UpdateItinerary persists the whole record. The main row is written first;
// side tables follow best effort, so a side-table failure leaves the main
// row correctly mutated.
func (s *Storage) UpdateItinerary(ctx context.Context, it *models.Itinerary) error {
	query := `
		UPDATE itineraries
		SET title = ?, theme_id = ?, memo = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		it.Title,
		it.ThemeID,
		nullString(it.Memo),
		emptyAsNull(it.PasswordHash),
		it.UpdatedAt,
		it.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update itinerary: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrItineraryNotFound
	}

	if it.Secret != nil {
		if err := s.upsertSecret(ctx, it); err != nil {
			return err
		}
	} else {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM itinerary_secrets WHERE itinerary_id = ?`, it.ID); err != nil {
			return fmt.Errorf("failed to remove secret settings: %w", err)
		}
	}

	if it.WalicaID != nil {
		if err := s.upsertWalica(ctx, it); err != nil {
			return err
		}
	} else {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM itinerary_walica_settings WHERE itinerary_id = ?`, it.ID); err != nil {
			return fmt.Errorf("failed to remove walica settings: %w", err)
		}
	}

	return nil
}

// DeleteItinerary removes an itinerary; steps and side-table settings go
// with it via foreign-key cascade.
func (s *Storage) DeleteItinerary(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM itineraries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrItineraryNotFound
	}

	return nil
}

func (s *Storage) upsertSecret(ctx context.Context, it *models.Itinerary) error {
	query := `
		INSERT INTO itinerary_secrets (itinerary_id, enabled, offset_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(itinerary_id) DO UPDATE SET
			enabled = excluded.enabled,
			offset_minutes = excluded.offset_minutes,
			updated_at = excluded.updated_at
	`

	enabled := 0
	if it.Secret.Enabled {
		enabled = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		it.ID, enabled, it.Secret.OffsetMinutes, it.UpdatedAt, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert secret settings: %w", err)
	}
	return nil
}

func (s *Storage) upsertWalica(ctx context.Context, it *models.Itinerary) error {
	query := `
		INSERT INTO itinerary_walica_settings (itinerary_id, walica_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(itinerary_id) DO UPDATE SET
			walica_id = excluded.walica_id,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, it.ID, *it.WalicaID, it.UpdatedAt, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert walica settings: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...any) error
}

func scanItinerary(row scanner) (*models.Itinerary, error) {
	it := &models.Itinerary{}
	var memo, passwordHash, walicaID sql.NullString
	var secretEnabled, secretOffset sql.NullInt64

	err := row.Scan(
		&it.ID,
		&it.Title,
		&it.ThemeID,
		&memo,
		&passwordHash,
		&it.CreatedAt,
		&it.UpdatedAt,
		&secretEnabled,
		&secretOffset,
		&walicaID,
	)
	if err != nil {
		return nil, err
	}

	if memo.Valid {
		it.Memo = &memo.String
	}
	if passwordHash.Valid {
		it.PasswordHash = passwordHash.String
	}
	if walicaID.Valid {
		it.WalicaID = &walicaID.String
	}
	if secretEnabled.Valid {
		it.Secret = &models.SecretSettings{
			Enabled:       secretEnabled.Int64 == 1,
			OffsetMinutes: int(secretOffset.Int64),
		}
	}

	return it, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func emptyAsNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
