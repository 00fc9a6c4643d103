package models

import "time"

// Theme identifiers. A missing or retired theme id is normalized to the
// default on write.
const (
	DefaultThemeID = "standard-autumn"
	LegacyThemeID  = "minimal"
)

// NormalizeThemeID maps empty and retired theme ids to the default theme.
func NormalizeThemeID(themeID string) string {
	if themeID == "" || themeID == LegacyThemeID {
		return DefaultThemeID
	}
	return themeID
}

// SecretSettings is the per-itinerary secret-mode configuration. When
// Enabled, a step stays hidden from viewers until OffsetMinutes before its
// scheduled time.
type SecretSettings struct {
	Enabled       bool
	OffsetMinutes int
}

// Itinerary is the top-level shareable resource. PasswordHash is a bcrypt
// hash; an empty hash means the itinerary is public and editable by anyone.
// Secret and WalicaID live in side tables and may be absent.
type Itinerary struct {
	ID           string
	Title        string
	ThemeID      string
	Memo         *string
	WalicaID     *string
	PasswordHash string
	Secret       *SecretSettings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPasswordProtected reports whether mutations require a capability token
// obtained by presenting the itinerary password.
func (i *Itinerary) IsPasswordProtected() bool {
	return i.PasswordHash != ""
}
