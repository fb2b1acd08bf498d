package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"kosgate/internal/api"
	"kosgate/internal/config"
	"kosgate/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend imitates the kos backend's envelope contract. It is
// thread-safe so racing creates can be exercised.
type fakeBackend struct {
	mu       sync.Mutex
	bookings []models.WireBooking
	creates  int

	extendStatus int // 0 means success
	cancelStatus int
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bookings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.respond(w, http.StatusOK, true, f.bookings, "")
	})
	mux.HandleFunc("POST /bookings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.creates++
		for _, b := range f.bookings {
			if b.StatusPemesanan == "Pending" || b.StatusPemesanan == "Confirmed" {
				f.respond(w, http.StatusConflict, false, nil, "anda sudah memiliki pemesanan aktif")
				return
			}
		}
		booking := models.WireBooking{
			ID:              int64(len(f.bookings) + 1),
			TanggalMulai:    "2026-09-01",
			DurasiSewa:      1,
			StatusPemesanan: "Pending",
		}
		f.bookings = append(f.bookings, booking)
		f.respond(w, http.StatusCreated, true, booking, "")
	})
	mux.HandleFunc("POST /bookings/{id}/extend", func(w http.ResponseWriter, r *http.Request) {
		if f.extendStatus != 0 {
			f.respond(w, f.extendStatus, false, nil, "perpanjangan ditolak")
			return
		}
		f.respond(w, http.StatusCreated, true, models.WirePayment{
			ID: 42, StatusPembayaran: "Pending",
		}, "")
	})
	mux.HandleFunc("POST /bookings/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		if f.cancelStatus != 0 {
			f.respond(w, f.cancelStatus, false, nil, "pemesanan tidak dapat dibatalkan")
			return
		}
		f.respond(w, http.StatusOK, true, nil, "")
	})
	mux.HandleFunc("POST /payments/{id}/proof", func(w http.ResponseWriter, r *http.Request) {
		f.respond(w, http.StatusOK, true, nil, "")
	})
	mux.HandleFunc("GET /payments/reminders", func(w http.ResponseWriter, r *http.Request) {
		f.respond(w, http.StatusOK, true, []models.WireReminder{
			{ID: 1, PembayaranID: 10, JumlahBayar: 1500000, TanggalJatuhTempo: "2026-09-28"},
		}, "")
	})
	return mux
}

func (f *fakeBackend) respond(w http.ResponseWriter, status int, success bool, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"data":    json.RawMessage(raw),
		"message": message,
	})
}

func newTestServer(t *testing.T, backend *fakeBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(backend.handler())
	t.Cleanup(upstream.Close)

	cfg := config.Load()
	cfg.GinMode = gin.TestMode
	cfg.RedisEnabled = false
	cfg.NATSEnabled = false
	cfg.Upstream.BaseURL = upstream.URL

	return api.NewServer(cfg).Router()
}

func doRequest(router *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Cookie", "token=tenant-session")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListBookingsRequiresSession(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListBookingsProjects(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{
			ID:              7,
			TanggalMulai:    "2026-08-01",
			DurasiSewa:      2,
			StatusPemesanan: "Confirmed",
			Pembayaran: []models.WirePayment{
				{ID: 1, JumlahBayar: 1500000, StatusPembayaran: "Confirmed", TanggalBayar: "2026-08-01"},
				{ID: 2, JumlahBayar: 1500000, StatusPembayaran: "Pending"},
			},
		},
	}}
	router := newTestServer(t, backend)

	w := doRequest(router, http.MethodGet, "/api/bookings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, models.BookingConfirmed, got[0].Status)
	assert.Equal(t, float64(1500000), got[0].TotalPaid)
	require.NotNil(t, got[0].ActionablePayment)
	assert.Equal(t, int64(2), got[0].ActionablePayment.ID)
}

func TestListBookingsUnknownStatusIsBadGateway(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{ID: 7, TanggalMulai: "2026-08-01", DurasiSewa: 1, StatusPemesanan: "Diproses"},
	}}
	router := newTestServer(t, backend)

	w := doRequest(router, http.MethodGet, "/api/bookings", nil, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCreateBooking(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	body := bytes.NewBufferString(`{"room_id":3,"start_date":"2026-09-01","duration_months":1}`)
	w := doRequest(router, http.MethodPost, "/api/bookings", body, "application/json")

	require.Equal(t, http.StatusCreated, w.Code)
	var got models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.BookingPending, got.Status)
}

func TestCreateBookingGuardBlocksSecondActive(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{ID: 1, TanggalMulai: "2026-08-01", DurasiSewa: 1, StatusPemesanan: "Confirmed"},
	}}
	router := newTestServer(t, backend)

	body := bytes.NewBufferString(`{"room_id":3,"start_date":"2026-09-01","duration_months":1}`)
	w := doRequest(router, http.MethodPost, "/api/bookings", body, "application/json")

	assert.Equal(t, http.StatusConflict, w.Code)
	// The guard saved the round-trip: the backend never saw a create.
	assert.Zero(t, backend.creates)
}

func TestRacingCreatesOnlyOneSucceeds(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := bytes.NewBufferString(`{"room_id":3,"start_date":"2026-09-01","duration_months":1}`)
			w := doRequest(router, http.MethodPost, "/api/bookings", body, "application/json")
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	var created, conflicted int
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		}
	}
	// Both requests may pass the pre-check; the backend conflict on the
	// second create is the authoritative outcome.
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, conflicted)
}

func TestCreateBookingValidation(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	body := bytes.NewBufferString(`{"room_id":3,"start_date":"2026-09-01","duration_months":0}`)
	w := doRequest(router, http.MethodPost, "/api/bookings", body, "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtendBookingCash(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{ID: 7, TanggalMulai: "2026-08-01", DurasiSewa: 1, StatusPemesanan: "Confirmed"},
	}}
	router := newTestServer(t, backend)

	body, contentType := multipartForm(t, map[string]string{
		"extra_months": "2",
		"method":       "cash",
	}, "", nil)
	w := doRequest(router, http.MethodPost, "/api/bookings/7/extend", body, contentType)

	require.Equal(t, http.StatusCreated, w.Code)
	var payment models.WirePayment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payment))
	assert.Equal(t, int64(42), payment.ID)
}

func TestExtendBookingTransferWithoutProof(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{ID: 7, TanggalMulai: "2026-08-01", DurasiSewa: 1, StatusPemesanan: "Confirmed"},
	}}
	router := newTestServer(t, backend)

	body, contentType := multipartForm(t, map[string]string{
		"extra_months": "1",
		"method":       "transfer",
	}, "", nil)
	w := doRequest(router, http.MethodPost, "/api/bookings/7/extend", body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtendBookingTransferWithProof(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{ID: 7, TanggalMulai: "2026-08-01", DurasiSewa: 1, StatusPemesanan: "Confirmed"},
	}}
	router := newTestServer(t, backend)

	body, contentType := multipartForm(t, map[string]string{
		"extra_months": "1",
		"method":       "transfer",
	}, "bukti.jpg", []byte("image-bytes"))
	w := doRequest(router, http.MethodPost, "/api/bookings/7/extend", body, contentType)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestExtendUnknownBookingIsNotFound(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	body, contentType := multipartForm(t, map[string]string{
		"extra_months": "1",
		"method":       "cash",
	}, "", nil)
	w := doRequest(router, http.MethodPost, "/api/bookings/99/extend", body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewExtension(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{
			ID:              7,
			Kamar:           models.WireRoom{HargaPerBulan: 1500000},
			TanggalMulai:    "2026-01-31",
			DurasiSewa:      1,
			StatusPemesanan: "Confirmed",
		},
	}}
	router := newTestServer(t, backend)

	w := doRequest(router, http.MethodGet, "/api/bookings/7/extend/preview?months=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var preview struct {
		NewEndDate string  `json:"new_end_date"`
		TotalCost  float64 `json:"total_cost"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.True(t, strings.HasPrefix(preview.NewEndDate, "2026-03-31"))
	assert.Equal(t, float64(1500000), preview.TotalCost)
}

func TestCancelBooking(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{ID: 7, TanggalMulai: "2026-08-01", DurasiSewa: 1, StatusPemesanan: "Pending"},
	}}
	router := newTestServer(t, backend)

	w := doRequest(router, http.MethodPost, "/api/bookings/7/cancel", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelCompletedBookingIsInvalidState(t *testing.T) {
	backend := &fakeBackend{bookings: []models.WireBooking{
		{ID: 7, TanggalMulai: "2026-08-01", DurasiSewa: 1, StatusPemesanan: "Completed"},
	}}
	router := newTestServer(t, backend)

	w := doRequest(router, http.MethodPost, "/api/bookings/7/cancel", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionExpiryClearsCookie(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(upstream.Close)

	gin.SetMode(gin.TestMode)
	cfg := config.Load()
	cfg.GinMode = gin.TestMode
	cfg.RedisEnabled = false
	cfg.NATSEnabled = false
	cfg.Upstream.BaseURL = upstream.URL
	router := api.NewServer(cfg).Router()

	w := doRequest(router, http.MethodGet, "/api/bookings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	setCookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, setCookie, "token=")
	assert.Contains(t, setCookie, "Max-Age=0")
}

func TestUploadProofRequiresFile(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	body, contentType := multipartForm(t, nil, "", nil)
	w := doRequest(router, http.MethodPost, "/api/payments/42/proof", body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadProof(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	body, contentType := multipartForm(t, nil, "bukti.png", []byte("image"))
	w := doRequest(router, http.MethodPost, "/api/payments/42/proof", body, contentType)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListReminders(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	w := doRequest(router, http.MethodGet, "/api/reminders", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.Reminder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].PaymentID)
}

func TestHealth(t *testing.T) {
	router := newTestServer(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func multipartForm(t *testing.T, fields map[string]string, proofName string, proof []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if proofName != "" {
		part, err := w.CreateFormFile("proof", proofName)
		require.NoError(t, err)
		_, err = part.Write(proof)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
