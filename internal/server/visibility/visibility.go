// Package visibility implements the secret-mode step filter: given an
// itinerary's secret settings and the wall clock, it decides which steps a
// viewer may see in full and redacts the rest.
package visibility

import (
	"time"

	"github.com/tabitabi/shiori/internal/models"
)

// HiddenTitle replaces the title of a redacted step.
const HiddenTitle = "？？？"

// Zone is the single civil time zone used for all step scheduling. Step
// dates and times are entered as Japan local time, so reveal instants are
// computed against UTC+9 regardless of where the server or viewer runs.
var Zone = time.FixedZone("JST", 9*60*60)

const scheduleLayout = "2006-01-02 15:04"

// RevealAt computes the instant a step becomes visible to non-editors: its
// scheduled time minus the configured offset. The second return value is
// false when the scheduled date/time cannot be parsed.
func RevealAt(date, timeOfDay string, offsetMinutes int) (time.Time, bool) {
	scheduled, err := time.ParseInLocation(scheduleLayout, date+" "+timeOfDay, Zone)
	if err != nil {
		return time.Time{}, false
	}
	return scheduled.Add(-time.Duration(offsetMinutes) * time.Minute), true
}

// Hidden reports whether a step must be redacted for the caller. Edit mode
// always sees full content. A step with an unparseable schedule is shown
// rather than hidden, since no reveal instant can be computed for it.
func Hidden(step *models.Step, cfg *models.SecretSettings, now time.Time, editMode bool) bool {
	if editMode {
		return false
	}
	if cfg == nil || !cfg.Enabled {
		return false
	}

	reveal, ok := RevealAt(step.Date, step.Time, cfg.OffsetMinutes)
	if !ok {
		return false
	}

	// Boundary: at exactly the reveal instant the step is visible.
	return now.Before(reveal)
}

// Redact returns the caller-visible copy of a step. Hidden steps keep their
// id, date and time so viewers still see that something is scheduled; title
// is replaced and location/notes are dropped.
func Redact(step *models.Step) models.Step {
	view := *step
	view.Title = HiddenTitle
	view.Location = nil
	view.Notes = nil
	return view
}

// Apply produces the caller-visible view of a step list. The secret config
// is snapshotted once for the whole list so every step gets a consistent
// decision, and redaction never changes list order. The returned slice
// parallels hidden flags for each step.
func Apply(steps []*models.Step, cfg *models.SecretSettings, now time.Time, editMode bool) ([]models.Step, []bool) {
	views := make([]models.Step, len(steps))
	flags := make([]bool, len(steps))

	for i, step := range steps {
		if Hidden(step, cfg, now, editMode) {
			views[i] = Redact(step)
			flags[i] = true
		} else {
			views[i] = *step
		}
	}

	return views, flags
}
