package api

import "time"

// Step is the API view of a step. When secret mode hides a step for the
// caller, Title holds a placeholder, Location/Notes are null and IsHidden is
// set; ID, Date and Time stay visible so viewers still see that something is
// scheduled.
type Step struct {
	ID          string    `json:"id"`
	ItineraryID string    `json:"itinerary_id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Location    *string   `json:"location"`
	Notes       *string   `json:"notes"`
	IsHidden    bool      `json:"is_hidden,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateStepRequest is the body of POST /api/v1/steps.
// Date is YYYY-MM-DD, Time is HH:mm.
type CreateStepRequest struct {
	ItineraryID string  `json:"itinerary_id"`
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Location    *string `json:"location"`
	Notes       *string `json:"notes"`
}

// UpdateStepRequest is the body of PUT /api/v1/steps/{id}.
// Absent fields are left unchanged.
type UpdateStepRequest struct {
	Title    *string `json:"title"`
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
}
