package models

import "time"

// TimelineStep is one entry of an itinerary's explicitly ordered timeline.
// StepOrder is assigned on creation (max+1) and can be changed by reorder.
type TimelineStep struct {
	ID              string
	ItineraryID     string
	StepOrder       int
	Title           string
	StartTime       string
	EndTime         *string
	DurationMinutes *int
	Location        *string
	Latitude        *float64
	Longitude       *float64
	Notes           *string
	CreatedAt       time.Time
}
