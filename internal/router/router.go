// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cinetix/booking-engine/internal/config"
	"github.com/cinetix/booking-engine/internal/handler"
	"github.com/cinetix/booking-engine/internal/middleware"
)

// Handlers bundles the handler set the router wires up.
type Handlers struct {
	Seats     *handler.SeatHandler
	Sessions  *handler.SessionHandler
	Checkout  *handler.CheckoutHandler
	Showtimes *handler.ShowtimeHandler
	Checkin   *handler.CheckinHandler
}

// Register wires every route of the engine onto the Echo instance.
//
// Public routes expose the health check and read-only showtime data.
// Customer routes sit behind JWT auth and, on the seat-action hot
// path, the Redis rate limiter.  Staff routes additionally require the
// OWNER or STAFF role.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Public browse: seat maps must stay fresh so held seats appear
	// held the moment the claim lands.
	e.GET("/v1/showtimes/:id", h.Showtimes.Get)
	e.GET("/v1/showtimes/:id/seats", h.Seats.SeatMap)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	limited := auth.Group("")
	limited.Use(middleware.NewTokenBucket(rlCfg, rdb))

	// Seat holds.  Selection and deselection ride the rate limiter.
	limited.POST("/showtimes/:id/seats/select", h.Seats.Select)
	limited.POST("/showtimes/:id/seats/deselect", h.Seats.Deselect)
	auth.GET("/showtimes/:id/hold", h.Seats.Hold)
	auth.DELETE("/showtimes/:id/hold", h.Seats.Release)
	auth.POST("/showtimes/:id/hold/extend", h.Seats.Extend)

	// Order sessions.
	auth.PUT("/showtimes/:id/session", h.Sessions.Upsert)
	auth.GET("/showtimes/:id/session", h.Sessions.Get)
	auth.DELETE("/showtimes/:id/session", h.Sessions.Delete)
	auth.POST("/showtimes/:id/session/combos", h.Sessions.Combos)
	auth.POST("/showtimes/:id/session/tickets/remove", h.Sessions.RemoveTickets)
	auth.POST("/showtimes/:id/session/extend", h.Sessions.Extend)

	// Checkout and orders.
	auth.POST("/showtimes/:id/checkout", h.Checkout.Finalize)
	auth.GET("/orders", h.Checkout.List)
	auth.GET("/orders/:id", h.Checkout.Get)

	// Ticket QR tokens.
	auth.POST("/tickets/:id/qr", h.Checkin.GenerateQR)

	// Staff: scheduling and the door scanner.
	staff := e.Group("/v1")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole("OWNER", "STAFF"))
	staff.POST("/showtimes", h.Showtimes.Create)
	staff.PUT("/showtimes/:id/schedule", h.Showtimes.Reschedule)
	staff.POST("/checkin", h.Checkin.Checkin)
}
