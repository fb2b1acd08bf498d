package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"

	apperr "kosgate/internal/errors"
	"kosgate/internal/models"
)

// Wire request bodies, named after the backend's schema.

type createBookingBody struct {
	KamarID      int64  `json:"kamar_id"`
	TanggalMulai string `json:"tanggal_mulai"`
	DurasiSewa   int    `json:"durasi_sewa"`
}

type extendBookingBody struct {
	Months        int    `json:"months"`
	PaymentMethod string `json:"payment_method"`
}

// FetchMyBookings returns the current tenant's raw bookings. Errors are
// always surfaced; an empty list is a valid answer, a failed fetch is not.
func (c *Client) FetchMyBookings(ctx context.Context) ([]models.WireBooking, error) {
	var bookings []models.WireBooking
	if err := c.getJSON(ctx, "/bookings", &bookings); err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}
	return bookings, nil
}

// CreateBooking submits a new booking. The backend rejects a second active
// booking with a conflict, which is returned verbatim.
func (c *Client) CreateBooking(ctx context.Context, roomID int64, startDate string, durationMonths int) (*models.WireBooking, error) {
	body := createBookingBody{
		KamarID:      roomID,
		TanggalMulai: startDate,
		DurasiSewa:   durationMonths,
	}

	var booking models.WireBooking
	if err := c.postJSON(ctx, "/bookings", body, &booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return &booking, nil
}

// CreateBookingWithProof submits a booking together with its initial payment
// in one multipart request. Proof is mandatory for transfer and ignored for
// cash, matching the backend's contract.
func (c *Client) CreateBookingWithProof(ctx context.Context, roomID int64, startDate string, durationMonths int, method models.PaymentMethod, paymentType models.PaymentType, proofName string, proof io.Reader) (*models.WireBooking, error) {
	if method == models.MethodTransfer && proof == nil {
		return nil, apperr.New(apperr.KindUpload, "payment proof is required for bank transfer")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("kamar_id", fmt.Sprintf("%d", roomID))
	_ = w.WriteField("tanggal_mulai", startDate)
	_ = w.WriteField("durasi_sewa", fmt.Sprintf("%d", durationMonths))
	_ = w.WriteField("payment_method", string(method))
	_ = w.WriteField("payment_type", string(paymentType))

	if proof != nil {
		if err := validateProofName(proofName); err != nil {
			return nil, err
		}
		part, err := w.CreateFormFile("proof", proofName)
		if err != nil {
			return nil, fmt.Errorf("create booking with proof: %w", err)
		}
		if err := copyProof(part, proof); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("create booking with proof: %w", err)
	}

	var booking models.WireBooking
	if err := c.do(ctx, "POST", "/bookings", &buf, w.FormDataContentType(), &booking); err != nil {
		return nil, fmt.Errorf("create booking with proof: %w", err)
	}
	return &booking, nil
}

// ExtendBooking requests an extension and returns the newly created pending
// payment. For transfer, the proof upload is a separate follow-up call.
func (c *Client) ExtendBooking(ctx context.Context, bookingID int64, extraMonths int, method models.PaymentMethod) (*models.WirePayment, error) {
	body := extendBookingBody{
		Months:        extraMonths,
		PaymentMethod: string(method),
	}

	var payment models.WirePayment
	if err := c.postJSON(ctx, fmt.Sprintf("/bookings/%d/extend", bookingID), body, &payment); err != nil {
		return nil, fmt.Errorf("extend booking %d: %w", bookingID, err)
	}
	return &payment, nil
}

// CancelBooking cancels the booking. The backend answers an already
// cancelled booking with an error, which is kept as an error here too;
// cancellation is not idempotent on purpose.
func (c *Client) CancelBooking(ctx context.Context, bookingID int64) error {
	if err := c.postJSON(ctx, fmt.Sprintf("/bookings/%d/cancel", bookingID), struct{}{}, nil); err != nil {
		return fmt.Errorf("cancel booking %d: %w", bookingID, err)
	}
	return nil
}
