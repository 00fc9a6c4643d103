package models

import "time"

// Step is one scheduled entry within an itinerary. Date (YYYY-MM-DD) and
// Time (HH:mm) together define the scheduled instant used by secret-mode
// gating. Steps are always listed ordered by (Date, Time) ascending.
type Step struct {
	ID          string
	ItineraryID string
	Title       string
	Date        string
	Time        string
	Location    *string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
