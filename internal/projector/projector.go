package projector

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"kosgate/internal/dates"
	apperr "kosgate/internal/errors"
	"kosgate/internal/models"
)

// bookingStatuses is the single place the backend's status_pemesanan
// vocabulary is interpreted. Unmapped values are an error, never a default:
// the previous UI coerced anything unrecognized to Completed, which hid
// cancelled and errored bookings behind a success state.
var bookingStatuses = map[string]models.BookingStatus{
	"Pending":   models.BookingPending,
	"Confirmed": models.BookingConfirmed,
	"Cancelled": models.BookingCancelled,
	"Completed": models.BookingCompleted,
}

var paymentStatuses = map[string]models.PaymentStatus{
	"Pending":   models.PaymentPending,
	"Confirmed": models.PaymentConfirmed,
	"Rejected":  models.PaymentRejected,
}

// Method and type are validated like statuses so no unrecognized wire tag
// slips through as a blind cast. An absent value is tolerated; only a
// present but unmapped one is an error.
var paymentMethods = map[string]models.PaymentMethod{
	"":         "",
	"transfer": models.MethodTransfer,
	"cash":     models.MethodCash,
}

var paymentTypes = map[string]models.PaymentType{
	"":        "",
	"initial": models.PaymentInitial,
	"extend":  models.PaymentExtend,
	"dp":      models.PaymentDP,
}

// Projector turns raw wire bookings into the canonical UI model. It is pure
// apart from memoization: projecting the same raw records for the same day
// returns the cached result, since the projection feeds views that re-render
// far more often than the data changes.
type Projector struct {
	mu       sync.Mutex
	lastKey  [32]byte
	lastOut  []models.Booking
	haveLast bool
}

func New() *Projector {
	return &Projector{}
}

// Project maps raw bookings to the canonical model as of now. The input
// order is preserved.
func (p *Projector) Project(raw []models.WireBooking, now time.Time) ([]models.Booking, error) {
	key := fingerprint(raw, now)

	p.mu.Lock()
	if p.haveLast && p.lastKey == key {
		out := p.lastOut
		p.mu.Unlock()
		return out, nil
	}
	p.mu.Unlock()

	out := make([]models.Booking, 0, len(raw))
	for i := range raw {
		b, err := projectOne(&raw[i], now)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}

	p.mu.Lock()
	p.lastKey = key
	p.lastOut = out
	p.haveLast = true
	p.mu.Unlock()

	return out, nil
}

func projectOne(raw *models.WireBooking, now time.Time) (models.Booking, error) {
	status, ok := bookingStatuses[raw.StatusPemesanan]
	if !ok {
		return models.Booking{}, apperr.Wrap(apperr.KindUnknownStatus,
			"booking has an unrecognized status",
			fmt.Errorf("booking %d: status_pemesanan %q", raw.ID, raw.StatusPemesanan))
	}

	start, err := dates.ParseDay(raw.TanggalMulai)
	if err != nil {
		return models.Booking{}, apperr.Wrap(apperr.KindValidation,
			"booking has an invalid start date", err)
	}

	end, err := dates.EndDate(start, raw.DurasiSewa)
	if err != nil {
		return models.Booking{}, apperr.Wrap(apperr.KindValidation,
			"booking has an invalid duration", err)
	}

	payments, totalPaid, err := projectPayments(raw)
	if err != nil {
		return models.Booking{}, err
	}

	b := models.Booking{
		ID:             raw.ID,
		Room:           projectRoom(raw.Kamar),
		StartDate:      start,
		DurationMonths: raw.DurasiSewa,
		EndDate:        end,
		DueDate:        dates.DueDate(end),
		RemainingDays:  dates.RemainingDays(now, end),
		Status:         status,
		TotalPaid:      totalPaid,
		Payments:       payments,
	}

	// The actionable payment is the most recent Pending or Rejected entry.
	// The wire list is chronological, so scan from the tail; recency wins,
	// not payment id.
	for i := len(payments) - 1; i >= 0; i-- {
		if payments[i].Status == models.PaymentPending || payments[i].Status == models.PaymentRejected {
			b.ActionablePayment = &payments[i]
			break
		}
	}

	return b, nil
}

func projectPayments(raw *models.WireBooking) ([]models.Payment, float64, error) {
	wire := raw.Payments()
	payments := make([]models.Payment, 0, len(wire))
	var totalPaid float64

	for _, wp := range wire {
		status, ok := paymentStatuses[wp.StatusPembayaran]
		if !ok {
			return nil, 0, apperr.Wrap(apperr.KindUnknownStatus,
				"payment has an unrecognized status",
				fmt.Errorf("payment %d: status_pembayaran %q", wp.ID, wp.StatusPembayaran))
		}
		method, ok := paymentMethods[wp.MetodePembayaran]
		if !ok {
			return nil, 0, apperr.Wrap(apperr.KindUnknownStatus,
				"payment has an unrecognized method",
				fmt.Errorf("payment %d: metode_pembayaran %q", wp.ID, wp.MetodePembayaran))
		}
		paymentType, ok := paymentTypes[wp.TipePembayaran]
		if !ok {
			return nil, 0, apperr.Wrap(apperr.KindUnknownStatus,
				"payment has an unrecognized type",
				fmt.Errorf("payment %d: tipe_pembayaran %q", wp.ID, wp.TipePembayaran))
		}

		p := models.Payment{
			ID:        wp.ID,
			BookingID: raw.ID,
			Amount:    wp.JumlahBayar,
			Method:    method,
			Type:      paymentType,
			Status:    status,
			ProofURL:  wp.BuktiTransfer,
		}

		if status == models.PaymentConfirmed {
			totalPaid += wp.JumlahBayar
			if paidAt, err := parseTimestamp(wp.TanggalBayar); err == nil {
				p.PaidAt = &paidAt
			}
		}

		payments = append(payments, p)
	}

	return payments, totalPaid, nil
}

func projectRoom(raw models.WireRoom) models.Room {
	return models.Room{
		ID:            raw.ID,
		Number:        raw.NomorKamar,
		Type:          raw.TipeKamar,
		Floor:         raw.Floor,
		PricePerMonth: raw.HargaPerBulan,
		ImageURL:      raw.ImageURL,
	}
}

// ProjectReminders converts the reminder read model. Reminders carry no
// status machine of their own, so unparseable dates are surfaced, not
// defaulted.
func ProjectReminders(raw []models.WireReminder) ([]models.Reminder, error) {
	out := make([]models.Reminder, 0, len(raw))
	for _, wr := range raw {
		due, err := parseTimestamp(wr.TanggalJatuhTempo)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation,
				"reminder has an invalid due date", err)
		}
		out = append(out, models.Reminder{
			ID:        wr.ID,
			PaymentID: wr.PembayaranID,
			Amount:    wr.JumlahBayar,
			DueDate:   due,
			Status:    wr.StatusReminder,
			Sent:      wr.IsSent,
		})
	}
	return out, nil
}

// parseTimestamp accepts the two formats the backend emits: RFC 3339 for
// gorm timestamps and bare yyyy-mm-dd for date columns.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return dates.ParseDay(s)
}

// fingerprint identifies an input snapshot. The projection depends on the
// calendar day through RemainingDays, so the day participates in the key.
func fingerprint(raw []models.WireBooking, now time.Time) [32]byte {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(raw)
	fmt.Fprint(h, now.Format("2006-01-02"))
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}
