package validation

import (
	"fmt"
	"time"
)

// Accepted layouts for step scheduling fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ValidateDate checks that a step date is in YYYY-MM-DD form and denotes a
// real calendar day.
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return nil
}

// ValidateTime checks that a step time is in HH:mm form.
func ValidateTime(t string) error {
	if t == "" {
		return fmt.Errorf("time is required")
	}
	if _, err := time.Parse(TimeLayout, t); err != nil {
		return fmt.Errorf("time must be in HH:mm format")
	}
	return nil
}
