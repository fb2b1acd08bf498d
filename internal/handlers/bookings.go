package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"kosgate/internal/models"

	"github.com/gin-gonic/gin"
)

// formFile returns the named upload, or a nil file when the part is absent.
// Absence is legal for cash payments; the service layer decides whether a
// proof is required.
func formFile(c *gin.Context, name string) (string, multipart.File) {
	header, err := c.FormFile(name)
	if err != nil {
		return "", nil
	}
	f, err := header.Open()
	if err != nil {
		return "", nil
	}
	return header.Filename, f
}

// ListBookings - GET /api/bookings
func (h *Handlers) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.List(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// CreateBooking - POST /api/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// CreateBookingWithProof - POST /api/bookings/with-proof
// Multipart booking creation carrying the initial payment and, for
// transfer, its proof image.
func (h *Handlers) CreateBookingWithProof(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.PostForm("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id is required"})
		return
	}
	duration, err := strconv.Atoi(c.PostForm("duration_months"))
	if err != nil || duration < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_months must be at least 1"})
		return
	}

	req := models.CreateBookingRequest{
		RoomID:         roomID,
		StartDate:      c.PostForm("start_date"),
		DurationMonths: duration,
	}
	method := models.PaymentMethod(c.PostForm("payment_method"))
	paymentType := models.PaymentType(c.PostForm("payment_type"))
	if paymentType == "" {
		paymentType = models.PaymentInitial
	}

	proofName, proof := formFile(c, "proof")
	if proof != nil {
		defer proof.Close()
	}

	booking, err := h.bookings.CreateWithProof(c.Request.Context(), userID(c), &req, method, paymentType, proofName, proof)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// ExtendBooking - POST /api/bookings/:id/extend
// Multipart form: extra_months, method, optional proof image.
func (h *Handlers) ExtendBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	extraMonths, err := strconv.Atoi(c.PostForm("extra_months"))
	if err != nil || extraMonths < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "extra_months must be at least 1"})
		return
	}

	req := models.ExtendBookingRequest{
		ExtraMonths: extraMonths,
		Method:      models.PaymentMethod(c.PostForm("method")),
	}

	proofName, proof := formFile(c, "proof")
	if proof != nil {
		defer proof.Close()
	}

	payment, err := h.bookings.Extend(c.Request.Context(), userID(c), bookingID, &req, proofName, proof)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// PreviewExtension - GET /api/bookings/:id/extend/preview?months=N
// Display-only preview of the new end date, due date and cost.
func (h *Handlers) PreviewExtension(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	months, err := strconv.Atoi(c.DefaultQuery("months", "1"))
	if err != nil || months < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months must be at least 1"})
		return
	}

	preview, err := h.bookings.PreviewExtension(c.Request.Context(), userID(c), bookingID, months)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// CancelBooking - POST /api/bookings/:id/cancel
func (h *Handlers) CancelBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	if err := h.bookings.Cancel(c.Request.Context(), userID(c), bookingID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}

// UploadPaymentProof - POST /api/payments/:id/proof
// Attaches a proof to an actionable payment, the recovery path after a
// partially failed extension.
func (h *Handlers) UploadPaymentProof(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	proofName, proof := formFile(c, "proof")
	if proof == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proof file is required"})
		return
	}
	defer proof.Close()

	if err := h.bookings.UploadProof(c.Request.Context(), userID(c), paymentID, proofName, proof); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "proof uploaded"})
}

// ListReminders - GET /api/reminders
func (h *Handlers) ListReminders(c *gin.Context) {
	reminders, err := h.bookings.Reminders(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reminders)
}
