// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderConfirmedEvent is published when a checkout completes.  It
// carries enough for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type OrderConfirmedEvent struct {
	OrderID     uint64   `json:"order_id"`
	PublicCode  string   `json:"public_code"`
	UserID      uint64   `json:"user_id"`
	ShowtimeID  uint64   `json:"showtime_id"`
	SeatIDs     []uint64 `json:"seat_ids"`
	TotalCents  uint32   `json:"total_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}
