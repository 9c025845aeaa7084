package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

// SeatHandler serves seat selection for a showtime: the public seat
// map plus the hold mutations of the authenticated customer.
type SeatHandler struct {
	Manager *booking.SeatHoldManager
}

func NewSeatHandler(manager *booking.SeatHoldManager) *SeatHandler {
	if manager == nil {
		panic("nil manager passed to NewSeatHandler")
	}
	return &SeatHandler{Manager: manager}
}

type seatBatchRequest struct {
	SeatIDs []uint64 `json:"seat_ids"`
}

type holdResponse struct {
	ShowtimeID uint64   `json:"showtime_id"`
	SeatIDs    []uint64 `json:"seat_ids"`
	ExpiresAt  string   `json:"expires_at"`
}

func toHoldResponse(h *model.Hold) holdResponse {
	seats := h.SeatIDs
	if seats == nil {
		seats = []uint64{}
	}
	return holdResponse{
		ShowtimeID: h.ShowtimeID,
		SeatIDs:    seats,
		ExpiresAt:  h.ExpiresAt.Format(time.RFC3339),
	}
}

// SeatMap handles GET /v1/showtimes/:id/seats.  Public; no hold
// ownership is revealed, only per-seat status.
func (h *SeatHandler) SeatMap(c echo.Context) error {
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	seats, err := h.Manager.SeatMap(c.Request().Context(), showtimeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime_id": showtimeID, "seats": seats})
}

// Select handles POST /v1/showtimes/:id/seats/select.  All requested
// seats are acquired or none are; conflicts return 409 with per-seat
// reasons.
func (h *SeatHandler) Select(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var req seatBatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	hold, err := h.Manager.Select(c.Request().Context(), userID, showtimeID, req.SeatIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toHoldResponse(hold))
}

// Deselect handles POST /v1/showtimes/:id/seats/deselect.
func (h *SeatHandler) Deselect(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var req seatBatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	hold, err := h.Manager.Deselect(c.Request().Context(), userID, showtimeID, req.SeatIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toHoldResponse(hold))
}

// Hold handles GET /v1/showtimes/:id/hold, returning the caller's
// current hold contents (empty when none).
func (h *SeatHandler) Hold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	seats, err := h.Manager.HeldSeats(c.Request().Context(), userID, showtimeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime_id": showtimeID, "seat_ids": seats})
}

// Release handles DELETE /v1/showtimes/:id/hold.  Idempotent.
func (h *SeatHandler) Release(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	if err := h.Manager.Release(c.Request().Context(), userID, showtimeID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Extend handles POST /v1/showtimes/:id/hold/extend.
func (h *SeatHandler) Extend(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	hold, err := h.Manager.Extend(c.Request().Context(), userID, showtimeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toHoldResponse(hold))
}
