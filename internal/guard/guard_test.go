package guard

import (
	"testing"

	"kosgate/internal/models"

	"github.com/stretchr/testify/assert"
)

func bookings(statuses ...models.BookingStatus) []models.Booking {
	out := make([]models.Booking, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, models.Booking{ID: int64(i + 1), Status: s})
	}
	return out
}

func TestCanCreateBooking(t *testing.T) {
	tests := []struct {
		name     string
		existing []models.Booking
		allowed  bool
	}{
		{
			name:     "no bookings",
			existing: nil,
			allowed:  true,
		},
		{
			name:     "only terminal bookings",
			existing: bookings(models.BookingCancelled, models.BookingCompleted),
			allowed:  true,
		},
		{
			name:     "pending booking blocks",
			existing: bookings(models.BookingPending),
			allowed:  false,
		},
		{
			name:     "confirmed booking blocks",
			existing: bookings(models.BookingCompleted, models.BookingConfirmed),
			allowed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanCreateBooking(tt.existing)
			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.allowed {
				assert.Empty(t, d.Reason)
			} else {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel(models.Booking{Status: models.BookingPending}))
	assert.True(t, CanCancel(models.Booking{Status: models.BookingConfirmed}))
	assert.False(t, CanCancel(models.Booking{Status: models.BookingCancelled}))
	assert.False(t, CanCancel(models.Booking{Status: models.BookingCompleted}))
}
