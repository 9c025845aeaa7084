package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/repository"
)

// CheckoutHandler finalizes carts into orders and serves order
// lookups.
type CheckoutHandler struct {
	Checkout *booking.CheckoutService
	Orders   *repository.OrderRepository
}

func NewCheckoutHandler(checkout *booking.CheckoutService, orders *repository.OrderRepository) *CheckoutHandler {
	if checkout == nil || orders == nil {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Checkout: checkout, Orders: orders}
}

// Finalize handles POST /v1/showtimes/:id/checkout.
func (h *CheckoutHandler) Finalize(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	order, err := h.Checkout.Finalize(c.Request().Context(), userID, showtimeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":    order.ID,
		"public_code": order.PublicCode,
		"total_cents": order.TotalCents,
		"status":      order.Status,
	})
}

// List handles GET /v1/orders, newest first.
func (h *CheckoutHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// Get handles GET /v1/orders/:id with the order's tickets.
func (h *CheckoutHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, err := h.Orders.GetByID(c.Request().Context(), userID, orderID)
	if err != nil {
		return respondError(c, err)
	}
	tickets, err := h.Orders.TicketsByOrder(c.Request().Context(), order.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order, "tickets": tickets})
}
