package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
	"github.com/cinetix/booking-engine/internal/qrtoken"
	"github.com/cinetix/booking-engine/internal/repository"
)

// CheckinHandler issues check-in QR tokens to ticket owners and
// validates them at the door.
type CheckinHandler struct {
	QR        *qrtoken.Service
	Orders    *repository.OrderRepository
	Showtimes booking.ShowtimeStore
}

func NewCheckinHandler(qr *qrtoken.Service, orders *repository.OrderRepository, showtimes booking.ShowtimeStore) *CheckinHandler {
	if qr == nil || orders == nil || showtimes == nil {
		panic("nil dependency passed to NewCheckinHandler")
	}
	return &CheckinHandler{QR: qr, Orders: orders, Showtimes: showtimes}
}

// GenerateQR handles POST /v1/tickets/:id/qr.  Only the ticket's owner
// may mint a token; each issue revokes the previous one and counts
// against the reissue allowance.
func (h *CheckinHandler) GenerateQR(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx := c.Request().Context()

	ticket, ownerID, err := h.Orders.Ticket(ctx, ticketID)
	if err != nil {
		return respondError(c, err)
	}
	if ownerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if ticket.Status != model.TicketBooked {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket not booked"})
	}
	st, err := h.Showtimes.Get(ctx, ticket.ShowtimeID)
	if err != nil {
		return respondError(c, err)
	}

	token, err := h.QR.Generate(ctx, ticket, st.StartsAt)
	if err != nil {
		return respondQRError(c, err)
	}
	png, err := h.QR.PNG(token, 256)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_id":  ticket.ID,
		"token":      token,
		"png_base64": base64.StdEncoding.EncodeToString(png),
	})
}

type checkinRequest struct {
	Token string `json:"token"`
}

// Checkin handles POST /v1/checkin.  Staff scan endpoint: validates
// the presented token against signature, lifetime, blacklist and the
// showtime's grace window, then consumes it so it cannot be scanned
// twice.
func (h *CheckinHandler) Checkin(c echo.Context) error {
	var req checkinRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing token"})
	}
	ctx := c.Request().Context()

	// The token is parsed twice: once unsafely to learn the showtime,
	// then fully against that showtime's window.
	claims, err := h.QR.Peek(req.Token)
	if err != nil {
		return respondQRError(c, err)
	}
	st, err := h.Showtimes.Get(ctx, claims.ShowtimeID)
	if err != nil {
		return respondError(c, err)
	}
	claims, err = h.QR.Validate(ctx, req.Token, st.StartsAt)
	if err != nil {
		return respondQRError(c, err)
	}
	if err := h.QR.Revoke(ctx, claims, st.StartsAt); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_id":   claims.TicketID,
		"order_id":    claims.OrderID,
		"seat_id":     claims.SeatID,
		"showtime_id": claims.ShowtimeID,
		"admitted":    true,
	})
}

func respondQRError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, qrtoken.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": err.Error()})
	case errors.Is(err, qrtoken.ErrRevoked):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, qrtoken.ErrRegenLimit):
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": err.Error()})
	case errors.Is(err, qrtoken.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}
	return respondError(c, err)
}
