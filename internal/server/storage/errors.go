package storage

import "errors"

// Common storage errors
var (
	// ErrItineraryNotFound indicates that the itinerary does not exist
	ErrItineraryNotFound = errors.New("itinerary not found")

	// ErrStepNotFound indicates that the step does not exist
	ErrStepNotFound = errors.New("step not found")

	// ErrTimelineStepNotFound indicates that the timeline step does not exist
	ErrTimelineStepNotFound = errors.New("timeline step not found")
)
