package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabitabi/shiori/internal/models"
)

func publicItinerary() *models.Itinerary {
	return &models.Itinerary{ID: "pub-1", Title: "Kyoto"}
}

func protectedItinerary() *models.Itinerary {
	return &models.Itinerary{ID: "sec-1", Title: "Okinawa", PasswordHash: "$2a$10$fakehash"}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name      string
		itinerary *models.Itinerary
		binding   string
		wantErr   error
	}{
		{
			name:      "missing itinerary",
			itinerary: nil,
			binding:   "sec-1",
			wantErr:   ErrNotFound,
		},
		{
			name:      "public itinerary without credential",
			itinerary: publicItinerary(),
			binding:   "",
			wantErr:   nil,
		},
		{
			name:      "public itinerary with unrelated credential",
			itinerary: publicItinerary(),
			binding:   "other",
			wantErr:   nil,
		},
		{
			name:      "protected itinerary without credential",
			itinerary: protectedItinerary(),
			binding:   "",
			wantErr:   ErrUnauthorized,
		},
		{
			name:      "protected itinerary with matching credential",
			itinerary: protectedItinerary(),
			binding:   "sec-1",
			wantErr:   nil,
		},
		{
			name:      "protected itinerary with credential for another itinerary",
			itinerary: protectedItinerary(),
			binding:   "sec-2",
			wantErr:   ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.itinerary, tt.binding)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthorizeStepCreate(t *testing.T) {
	tests := []struct {
		name      string
		itinerary *models.Itinerary
		binding   string
		declared  string
		wantErr   error
	}{
		{
			name:      "missing itinerary",
			itinerary: nil,
			binding:   "",
			declared:  "gone",
			wantErr:   ErrNotFound,
		},
		{
			name:      "public itinerary, anonymous caller",
			itinerary: publicItinerary(),
			binding:   "",
			declared:  "pub-1",
			wantErr:   nil,
		},
		{
			name:      "protected, matching credential and declaration",
			itinerary: protectedItinerary(),
			binding:   "sec-1",
			declared:  "sec-1",
			wantErr:   nil,
		},
		{
			name:      "protected, credential for another itinerary",
			itinerary: protectedItinerary(),
			binding:   "sec-2",
			declared:  "sec-1",
			wantErr:   ErrForbidden,
		},
		{
			name:      "protected, declaration diverges from binding",
			itinerary: protectedItinerary(),
			binding:   "sec-1",
			declared:  "sec-9",
			wantErr:   ErrForbidden,
		},
		{
			name:      "protected, no credential",
			itinerary: protectedItinerary(),
			binding:   "",
			declared:  "sec-1",
			wantErr:   ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeStepCreate(tt.itinerary, tt.binding, tt.declared)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
