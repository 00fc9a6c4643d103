// Package guard decides whether a write to an itinerary or one of its steps
// may proceed. Decisions are pure functions of the resolved itinerary and
// the caller's verified credential binding; nothing is cached and nothing is
// mutated here.
package guard

import (
	"errors"

	"github.com/tabitabi/shiori/internal/models"
)

var (
	// ErrNotFound means the target itinerary does not exist. Existence is
	// checked before authorization; the authorization state of a missing
	// resource is meaningless.
	ErrNotFound = errors.New("itinerary not found")

	// ErrUnauthorized means a credential was required but none verified.
	ErrUnauthorized = errors.New("valid credential required")

	// ErrForbidden means a verified credential was presented but it is bound
	// to a different itinerary.
	ErrForbidden = errors.New("credential does not authorize this itinerary")
)

// Authorize decides a write against the resolved target itinerary. binding
// is the itinerary id of the caller's verified credential, or "" when no
// credential verified. Public itineraries (no stored password) are writable
// by anyone; that is a deliberate trade-off of the sharing model.
func Authorize(it *models.Itinerary, binding string) error {
	if it == nil {
		return ErrNotFound
	}
	if !it.IsPasswordProtected() {
		return nil
	}
	if binding == "" {
		return ErrUnauthorized
	}
	if binding != it.ID {
		return ErrForbidden
	}
	return nil
}

// AuthorizeStepCreate decides a step creation. On top of the ownership
// check, the step's declared itinerary id must match the credential binding
// when the target is protected, so a token for itinerary A can never inject
// a step claiming to belong elsewhere.
func AuthorizeStepCreate(it *models.Itinerary, binding, declaredItineraryID string) error {
	if it == nil {
		return ErrNotFound
	}
	if it.IsPasswordProtected() && binding != "" && declaredItineraryID != binding {
		return ErrForbidden
	}
	return Authorize(it, binding)
}
