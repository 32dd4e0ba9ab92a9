package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation/internal/booking"
)

// statusOf maps a booking error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrCollision):
		return http.StatusConflict
	case errors.Is(err, booking.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": message}.  A collision also tells
// the client to reload availability before retrying.
func writeError(c echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": booking.Message(err)}
	if status == http.StatusConflict {
		body["refresh"] = true
	}
	return c.JSON(status, body)
}
