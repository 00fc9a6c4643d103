package api

import (
	"encoding/json"
	"time"
)

// SecretSettings configures time-gated step visibility for an itinerary.
// OffsetMinutes is how long before a step's scheduled time it is revealed.
type SecretSettings struct {
	Enabled       bool `json:"enabled"`
	OffsetMinutes int  `json:"offset_minutes"`
}

// Itinerary is the API view of an itinerary. The stored password is never
// exposed; only the derived IsPasswordProtected flag is.
type Itinerary struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	ThemeID             string          `json:"theme_id"`
	Memo                *string         `json:"memo"`
	WalicaID            *string         `json:"walica_id,omitempty"`
	IsPasswordProtected bool            `json:"is_password_protected"`
	SecretSettings      *SecretSettings `json:"secret_settings,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CreateItineraryRequest is the body of POST /api/v1/itineraries.
type CreateItineraryRequest struct {
	Title          string          `json:"title"`
	ThemeID        string          `json:"theme_id"`
	Memo           *string         `json:"memo"`
	WalicaID       *string         `json:"walica_id"`
	Password       string          `json:"password"`
	SecretSettings *SecretSettings `json:"secret_settings"`
}

// UpdateItineraryRequest is the body of PUT /api/v1/itineraries/{id}.
// Absent fields are left unchanged. SecretSettings and WalicaID are raw so
// that an explicit null (remove the setting) can be told apart from an
// absent field (keep it).
type UpdateItineraryRequest struct {
	Title          *string         `json:"title"`
	ThemeID        *string         `json:"theme_id"`
	Memo           *string         `json:"memo"`
	Password       *string         `json:"password"`
	SecretSettings json.RawMessage `json:"secret_settings"`
	WalicaID       json.RawMessage `json:"walica_id"`
}
