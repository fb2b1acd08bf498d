package workflow

import (
	"context"
	"io"
	"time"

	"kosgate/internal/dates"
	apperr "kosgate/internal/errors"
	"kosgate/internal/models"
)

// ExtensionState tracks one extension attempt.
type ExtensionState string

const (
	ExtIdle             ExtensionState = "Idle"
	ExtDurationSelected ExtensionState = "DurationSelected"
	ExtProofRequired    ExtensionState = "ProofRequired"
	ExtSubmitting       ExtensionState = "Submitting"
	ExtSuccess          ExtensionState = "Success"
	ExtFailed           ExtensionState = "Failed"
)

// ExtendAPI is the slice of the upstream client the extension needs.
type ExtendAPI interface {
	ExtendBooking(ctx context.Context, bookingID int64, extraMonths int, method models.PaymentMethod) (*models.WirePayment, error)
	UploadPaymentProof(ctx context.Context, paymentID int64, filename string, proof io.Reader) error
}

// Preview is what the UI shows while the tenant is choosing a duration.
// Display only: the backend recomputes and persists its own numbers.
type Preview struct {
	NewEndDate time.Time `json:"new_end_date"`
	NewDueDate time.Time `json:"new_due_date"`
	TotalCost  float64   `json:"total_cost"`
}

// Extension drives one extension attempt:
// Idle → DurationSelected → (transfer) ProofRequired → Submitting → Success | Failed.
// Cash skips ProofRequired. The extend call and the proof upload are two
// separate requests; when the upload fails after the payment was created,
// the attempt fails but the payment stays on the backend as Pending with no
// proof, and the projector's actionable-payment mechanism re-surfaces the
// upload on the next load. No rollback is attempted.
type Extension struct {
	api     ExtendAPI
	booking models.Booking

	state       ExtensionState
	extraMonths int
	method      models.PaymentMethod
	proofName   string
	proof       io.Reader

	payment *models.WirePayment
	failure error
}

// NewExtension starts an attempt for the given booking. Terminal bookings
// cannot be extended.
func NewExtension(api ExtendAPI, booking models.Booking) (*Extension, error) {
	if booking.Status.Terminal() {
		return nil, apperr.New(apperr.KindInvalidState, "this booking can no longer be extended")
	}
	return &Extension{api: api, booking: booking, state: ExtIdle, method: models.MethodTransfer}, nil
}

func (e *Extension) State() ExtensionState { return e.state }

// Payment returns the pending payment created by a submit, set on Success
// and on the partial failure where the upload step failed.
func (e *Extension) Payment() *models.WirePayment { return e.payment }

// Failure returns the error that moved the attempt to Failed.
func (e *Extension) Failure() error { return e.failure }

// SelectDuration picks the number of extra months and returns the preview.
func (e *Extension) SelectDuration(extraMonths int) (Preview, error) {
	if e.state == ExtSubmitting || e.state == ExtSuccess {
		return Preview{}, apperr.New(apperr.KindInvalidState, "extension is already submitted")
	}
	if extraMonths < 1 {
		return Preview{}, apperr.New(apperr.KindValidation, "choose at least 1 month")
	}

	newEnd, err := dates.EndDate(e.booking.StartDate, e.booking.DurationMonths+extraMonths)
	if err != nil {
		return Preview{}, apperr.Wrap(apperr.KindValidation, "choose at least 1 month", err)
	}

	e.extraMonths = extraMonths
	e.state = ExtDurationSelected
	if e.method == models.MethodTransfer && e.proof == nil {
		e.state = ExtProofRequired
	}

	return Preview{
		NewEndDate: newEnd,
		NewDueDate: dates.DueDate(newEnd),
		TotalCost:  float64(extraMonths) * e.booking.Room.PricePerMonth,
	}, nil
}

// SelectMethod switches between transfer and cash. Switching to transfer
// without an attached proof moves the attempt back to ProofRequired.
func (e *Extension) SelectMethod(method models.PaymentMethod) error {
	if method != models.MethodTransfer && method != models.MethodCash {
		return apperr.New(apperr.KindValidation, "payment method must be transfer or cash")
	}
	if e.state == ExtSubmitting || e.state == ExtSuccess {
		return apperr.New(apperr.KindInvalidState, "extension is already submitted")
	}

	e.method = method
	if e.state == ExtProofRequired && method == models.MethodCash {
		e.state = ExtDurationSelected
	}
	if e.state == ExtDurationSelected && method == models.MethodTransfer && e.proof == nil {
		e.state = ExtProofRequired
	}
	return nil
}

// AttachProof provides the proof-of-transfer file.
func (e *Extension) AttachProof(filename string, proof io.Reader) error {
	if e.state == ExtSubmitting || e.state == ExtSuccess {
		return apperr.New(apperr.KindInvalidState, "extension is already submitted")
	}

	e.proofName = filename
	e.proof = proof
	if e.state == ExtProofRequired {
		e.state = ExtDurationSelected
	}
	return nil
}

// Submit performs the extend call and, for transfer, the proof upload.
// A transfer attempt with no proof attached never reaches Submitting.
// When ctx is cancelled mid-flight no transition is applied: the caller has
// gone away and must not observe a state change afterwards.
func (e *Extension) Submit(ctx context.Context) error {
	switch e.state {
	case ExtDurationSelected:
		// ready
	case ExtProofRequired:
		return apperr.New(apperr.KindUpload, "attach the transfer proof before submitting")
	case ExtIdle:
		return apperr.New(apperr.KindValidation, "choose a duration first")
	default:
		return apperr.New(apperr.KindInvalidState, "extension is already submitted")
	}
	if e.method == models.MethodTransfer && e.proof == nil {
		e.state = ExtProofRequired
		return apperr.New(apperr.KindUpload, "attach the transfer proof before submitting")
	}

	e.state = ExtSubmitting

	payment, err := e.api.ExtendBooking(ctx, e.booking.ID, e.extraMonths, e.method)
	if payment != nil {
		// The payment exists upstream even when the caller has gone away.
		// Recording it is bookkeeping, not a state transition: callers need
		// it to know their read models changed.
		e.payment = payment
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		e.state = ExtFailed
		e.failure = err
		return err
	}

	if e.method == models.MethodTransfer {
		err := e.api.UploadPaymentProof(ctx, payment.ID, e.proofName, e.proof)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// The payment exists upstream without a proof. Leave it: the
			// actionable-payment projection prompts the upload on next load.
			e.state = ExtFailed
			e.failure = err
			return err
		}
	}

	e.state = ExtSuccess
	return nil
}
