// Package handler defines the HTTP handlers of the reservation engine.
// Handlers bind request payloads, delegate to the booking services and
// translate the engine's sentinel errors into HTTP responses.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/booking-engine/internal/booking"
)

// getUserID extracts the authenticated user id placed in context by
// the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// respondError maps the engine's errors onto HTTP responses.  Seat
// conflicts carry their per-seat reasons into the body so clients can
// show exactly which seats were lost.
func respondError(c echo.Context, err error) error {
	var conflict *booking.SeatConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "seats_unavailable",
			"conflicts": conflict.Conflicts,
		})
	}
	switch {
	case errors.Is(err, booking.ErrHoldNotFound),
		errors.Is(err, booking.ErrOrderSessionNotFound),
		errors.Is(err, booking.ErrShowtimeNotFound),
		errors.Is(err, booking.ErrRoomNotFound),
		errors.Is(err, booking.ErrMovieNotFound),
		errors.Is(err, booking.ErrConcessionNotFound),
		errors.Is(err, booking.ErrOrderNotFound),
		errors.Is(err, booking.ErrTicketNotFound),
		errors.Is(err, booking.ErrAlreadyDeleted):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrShowtimeConflict),
		errors.Is(err, booking.ErrShowtimeHasSales),
		errors.Is(err, booking.ErrHoldMismatch),
		errors.Is(err, booking.ErrSlotNotHeld),
		errors.Is(err, booking.ErrOrderNotPending),
		errors.Is(err, booking.ErrRoomInactive):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrInvalidInterval),
		errors.Is(err, booking.ErrInvalidQuantity),
		errors.Is(err, booking.ErrEmptySelection):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
