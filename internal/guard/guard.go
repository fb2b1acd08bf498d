package guard

import "kosgate/internal/models"

// Decision is the guard's verdict. Reason is user-facing and only set when
// the guard blocks.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanCreateBooking blocks when the tenant already holds a non-terminal
// booking. This is a pre-check to save a round-trip, not an enforcement
// point: two tabs can both pass it, and the backend's conflict response on
// the second create remains the authoritative answer.
func CanCreateBooking(existing []models.Booking) Decision {
	for _, b := range existing {
		if b.Status == models.BookingPending || b.Status == models.BookingConfirmed {
			return Decision{
				Allowed: false,
				Reason:  "you already have an active booking; complete or cancel it before booking another room",
			}
		}
	}
	return Decision{Allowed: true}
}

// CanCancel reports whether the booking may be cancelled. Only Pending and
// Confirmed bookings can; cancelling anything else, including an
// already-cancelled booking, is an invalid-state error.
func CanCancel(b models.Booking) bool {
	return b.Status == models.BookingPending || b.Status == models.BookingConfirmed
}
