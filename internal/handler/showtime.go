package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/booking-engine/internal/booking"
)

// ShowtimeHandler serves showtime scheduling (staff) and public
// showtime lookups.
type ShowtimeHandler struct {
	Guard *booking.ShowtimeGuard
}

func NewShowtimeHandler(guard *booking.ShowtimeGuard) *ShowtimeHandler {
	if guard == nil {
		panic("nil guard passed to NewShowtimeHandler")
	}
	return &ShowtimeHandler{Guard: guard}
}

type scheduleRequest struct {
	RoomID         uint64 `json:"room_id"`
	MovieID        uint64 `json:"movie_id"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	BasePriceCents uint32 `json:"base_price_cents"`
}

type rescheduleRequest struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

func parseInterval(startsAt, endsAt string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startsAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Create handles POST /v1/showtimes.  Staff only; on success the seat
// inventory is seeded, one AVAILABLE slot per non-blocked seat.
func (h *ShowtimeHandler) Create(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, err := parseInterval(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interval timestamps"})
	}
	st, err := h.Guard.Schedule(c.Request().Context(), req.RoomID, req.MovieID, start, end, req.BasePriceCents)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

// Reschedule handles PUT /v1/showtimes/:id/schedule.  Refused while
// any seat of the showtime is held or booked.
func (h *ShowtimeHandler) Reschedule(c echo.Context) error {
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, err := parseInterval(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interval timestamps"})
	}
	st, err := h.Guard.Reschedule(c.Request().Context(), showtimeID, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Get handles GET /v1/showtimes/:id.
func (h *ShowtimeHandler) Get(c echo.Context) error {
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	st, err := h.Guard.Showtime(c.Request().Context(), showtimeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
