package workflow

import (
	"context"

	apperr "kosgate/internal/errors"
	"kosgate/internal/guard"
	"kosgate/internal/models"
)

type CancellationState string

const (
	CancelIdle           CancellationState = "Idle"
	CancelConfirmPending CancellationState = "ConfirmPending"
	CancelSubmitting     CancellationState = "Submitting"
	CancelSuccess        CancellationState = "Success"
	CancelFailed         CancellationState = "Failed"
)

type CancelAPI interface {
	CancelBooking(ctx context.Context, bookingID int64) error
}

// Cancellation drives Idle → ConfirmPending → Submitting → Success | Failed.
// The explicit confirmation step exists because the call is irreversible;
// there is no retry: a Failed attempt stays Failed and the tenant starts over.
type Cancellation struct {
	api     CancelAPI
	booking models.Booking

	state   CancellationState
	failure error
}

// NewCancellation starts an attempt. Only Pending and Confirmed bookings can
// be cancelled; anything else, including an already-cancelled booking, is an
// invalid-state error and nothing changes.
func NewCancellation(api CancelAPI, booking models.Booking) (*Cancellation, error) {
	if !guard.CanCancel(booking) {
		return nil, apperr.New(apperr.KindInvalidState, "this booking cannot be cancelled")
	}
	return &Cancellation{api: api, booking: booking, state: CancelIdle}, nil
}

func (c *Cancellation) State() CancellationState { return c.state }
func (c *Cancellation) Failure() error           { return c.failure }

// RequestCancel records the tenant's intent; the irreversible call only
// happens after Confirm.
func (c *Cancellation) RequestCancel() error {
	if c.state != CancelIdle {
		return apperr.New(apperr.KindInvalidState, "cancellation is already in progress")
	}
	c.state = CancelConfirmPending
	return nil
}

// Confirm performs the cancellation. No transition is applied once ctx is
// cancelled.
func (c *Cancellation) Confirm(ctx context.Context) error {
	if c.state != CancelConfirmPending {
		return apperr.New(apperr.KindInvalidState, "confirm is only valid after requesting cancellation")
	}

	c.state = CancelSubmitting

	err := c.api.CancelBooking(ctx, c.booking.ID)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		c.state = CancelFailed
		c.failure = err
		return err
	}

	c.state = CancelSuccess
	return nil
}
