package handlers

import (
	"net/http"

	apperr "kosgate/internal/errors"
	"kosgate/internal/middleware"
	"kosgate/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	bookings *service.BookingService
}

func NewHandlers(bookings *service.BookingService) *Handlers {
	return &Handlers{bookings: bookings}
}

func userID(c *gin.Context) string {
	id, _ := middleware.UserIDFromContext(c.Request.Context())
	return id
}

// respondError maps the error taxonomy onto HTTP statuses. An auth failure
// also expires the session cookie so the UI drops its local session state.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadGateway

	switch apperr.KindOf(err) {
	case apperr.KindAuth:
		// Session is dead upstream; make the browser forget it too.
		c.SetCookie("token", "", -1, "/", "", false, true)
		status = http.StatusUnauthorized
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict, apperr.KindInvalidState:
		status = http.StatusConflict
	case apperr.KindUpload:
		status = http.StatusBadRequest
	case apperr.KindUnknownStatus:
		status = http.StatusBadGateway
	case apperr.KindNetwork:
		status = http.StatusBadGateway
	}

	c.Error(err)
	c.JSON(status, gin.H{"error": apperr.UserMessage(err)})
}
