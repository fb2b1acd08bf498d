package models

import "time"

// BookingStatus is the canonical booking state. The backend's
// status_pemesanan vocabulary is mapped onto it at the projection boundary;
// nothing outside the projector compares raw status strings.
type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
	BookingCompleted BookingStatus = "Completed"
)

// Terminal reports whether the booking can no longer change through tenant
// action. Pending and Confirmed bookings block new booking creation.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentConfirmed PaymentStatus = "Confirmed"
	PaymentRejected  PaymentStatus = "Rejected"
)

type PaymentMethod string

const (
	MethodTransfer PaymentMethod = "transfer"
	MethodCash     PaymentMethod = "cash"
)

type PaymentType string

const (
	PaymentInitial PaymentType = "initial"
	PaymentExtend  PaymentType = "extend"
	PaymentDP      PaymentType = "dp"
)

// Room is a read-only snapshot owned by the backend.
type Room struct {
	ID            int64   `json:"id"`
	Number        string  `json:"number"`
	Type          string  `json:"type"`
	Floor         int     `json:"floor"`
	PricePerMonth float64 `json:"price_per_month"`
	ImageURL      string  `json:"image_url"`
}

type Payment struct {
	ID        int64         `json:"id"`
	BookingID int64         `json:"booking_id"`
	Amount    float64       `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Type      PaymentType   `json:"type"`
	Status    PaymentStatus `json:"status"`
	ProofURL  string        `json:"proof_url,omitempty"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
}

// Booking is the projected, UI-ready model. EndDate and DueDate are always
// derived from StartDate and DurationMonths, never taken from the wire.
type Booking struct {
	ID             int64         `json:"id"`
	Room           Room          `json:"room"`
	StartDate      time.Time     `json:"start_date"`
	DurationMonths int           `json:"duration_months"`
	EndDate        time.Time     `json:"end_date"`
	DueDate        time.Time     `json:"due_date"`
	RemainingDays  int           `json:"remaining_days"`
	Status         BookingStatus `json:"status"`
	TotalPaid      float64       `json:"total_paid"`
	// Payments is chronological, most recent last.
	Payments []Payment `json:"payments"`
	// ActionablePayment is the most recent Pending or Rejected payment, the
	// one the tenant still has to act on. Nil when no action is required.
	ActionablePayment *Payment `json:"actionable_payment,omitempty"`
}

type Reminder struct {
	ID        int64     `json:"id"`
	PaymentID int64     `json:"payment_id"`
	Amount    float64   `json:"amount"`
	DueDate   time.Time `json:"due_date"`
	Status    string    `json:"status"`
	Sent      bool      `json:"sent"`
}

// Gateway request models.

type CreateBookingRequest struct {
	RoomID         int64  `json:"room_id" binding:"required"`
	StartDate      string `json:"start_date" binding:"required"` // yyyy-mm-dd
	DurationMonths int    `json:"duration_months" binding:"required,min=1"`
}

type ExtendBookingRequest struct {
	ExtraMonths int           `json:"extra_months" binding:"required,min=1"`
	Method      PaymentMethod `json:"method" binding:"required"`
}
