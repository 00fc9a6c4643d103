package api

import "time"

// TimelineStep is one entry of an itinerary's free-form timeline. Unlike
// steps, timeline entries are ordered explicitly via StepOrder.
type TimelineStep struct {
	ID              string    `json:"id"`
	ItineraryID     string    `json:"itineraryId"`
	StepOrder       int       `json:"stepOrder"`
	Title           string    `json:"title"`
	StartTime       string    `json:"startTime"`
	EndTime         *string   `json:"endTime"`
	DurationMinutes *int      `json:"durationMinutes"`
	Location        *string   `json:"location"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateTimelineStepRequest is the body of
// POST /api/v1/itineraries/{id}/timeline/steps.
type CreateTimelineStepRequest struct {
	Title           string   `json:"title"`
	StartTime       string   `json:"startTime"`
	EndTime         *string  `json:"endTime"`
	DurationMinutes *int     `json:"durationMinutes"`
	Location        *string  `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Notes           *string  `json:"notes"`
}

// UpdateTimelineStepRequest is the body of PUT /api/v1/timeline/steps/{id}.
type UpdateTimelineStepRequest struct {
	Title           *string  `json:"title"`
	StartTime       *string  `json:"startTime"`
	EndTime         *string  `json:"endTime"`
	DurationMinutes *int     `json:"durationMinutes"`
	Location        *string  `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Notes           *string  `json:"notes"`
}

// ReorderTimelineStepRequest is the body of
// POST /api/v1/timeline/steps/{id}/reorder.
type ReorderTimelineStepRequest struct {
	NewOrder int `json:"newOrder"`
}
