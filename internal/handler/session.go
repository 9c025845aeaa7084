package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

// SessionHandler serves the pre-payment cart: tickets mirrored from
// the caller's hold plus concession line items.
type SessionHandler struct {
	Sessions *booking.SessionService
}

func NewSessionHandler(sessions *booking.SessionService) *SessionHandler {
	if sessions == nil {
		panic("nil session service passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: sessions}
}

type comboRequest struct {
	Items []struct {
		ConcessionID uint64 `json:"concession_id"`
		Quantity     uint32 `json:"quantity"`
	} `json:"items"`
}

type sessionResponse struct {
	ShowtimeID uint64            `json:"showtime_id"`
	SeatIDs    []uint64          `json:"seat_ids"`
	Combos     []model.ComboLine `json:"combos"`
	TotalCents uint32            `json:"total_cents"`
	Status     string            `json:"status"`
	ExpiresAt  string            `json:"expires_at"`
}

func toSessionResponse(s *model.OrderSession) sessionResponse {
	seats := s.SeatIDs
	if seats == nil {
		seats = []uint64{}
	}
	combos := s.Combos
	if combos == nil {
		combos = []model.ComboLine{}
	}
	return sessionResponse{
		ShowtimeID: s.ShowtimeID,
		SeatIDs:    seats,
		Combos:     combos,
		TotalCents: s.TotalCents,
		Status:     s.Status,
		ExpiresAt:  s.ExpiresAt.Format(time.RFC3339),
	}
}

// Upsert handles PUT /v1/showtimes/:id/session, creating the session
// or replacing its ticket list with the given held seats.
func (h *SessionHandler) Upsert(c echo.Context) error {
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
	sess, err := h.Sessions.CreateOrUpdate(c.Request().Context(), userID, showtimeID, req.SeatIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Combos handles POST /v1/showtimes/:id/session/combos, merging
// concession lines (quantity zero removes a line).
func (h *SessionHandler) Combos(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var req comboRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	lines := make([]model.ComboLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, model.ComboLine{ConcessionID: it.ConcessionID, Quantity: it.Quantity})
	}
	sess, err := h.Sessions.AddOrUpdateCombos(c.Request().Context(), userID, showtimeID, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// RemoveTickets handles POST /v1/showtimes/:id/session/tickets/remove.
// Dropping the last ticket deletes the session and releases the hold.
func (h *SessionHandler) RemoveTickets(c echo.Context) error {
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
	sess, err := h.Sessions.RemoveTickets(c.Request().Context(), userID, showtimeID, req.SeatIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Extend handles POST /v1/showtimes/:id/session/extend.  Only the
// session window moves; the hold has its own extend endpoint.
func (h *SessionHandler) Extend(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	sess, err := h.Sessions.ExtendTTL(c.Request().Context(), userID, showtimeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Get handles GET /v1/showtimes/:id/session.
func (h *SessionHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	sess, err := h.Sessions.Find(c.Request().Context(), userID, showtimeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Delete handles DELETE /v1/showtimes/:id/session, abandoning the cart
// and releasing the hold.
func (h *SessionHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	if err := h.Sessions.Delete(c.Request().Context(), userID, showtimeID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
