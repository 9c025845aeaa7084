package model

import "time"

// Slot status values.  A slot transitions BOOKED only from HELD; the
// reconciliation sweeper is the single exception allowed to force a
// BOOKED slot back to AVAILABLE when a stale pending order is
// cancelled.
const (
	SlotAvailable = "AVAILABLE"
	SlotHeld      = "HELD"
	SlotBooked    = "BOOKED"
)

// Slot is the bookable unit: one (seat, showtime) pair.  Slots are
// created in bulk when a showtime is scheduled, one per non-blocked
// seat in the room.  At most one non-expired hold or booking may
// reference a slot at any time.
//
// Fields:
//  ID         – primary key identifier.
//  ShowtimeID – the showtime this slot belongs to.
//  SeatID     – the physical seat being made available.
//  Status     – AVAILABLE, HELD or BOOKED.
//  PriceCents – price for this slot in cents.
//  CreatedAt  – timestamp when the record was created.
//  UpdatedAt  – timestamp when the record was last updated.
type Slot struct {
	ID         uint64    // seat_showtime_slots.id
	ShowtimeID uint64    // seat_showtime_slots.showtime_id
	SeatID     uint64    // seat_showtime_slots.seat_id
	Status     string    // seat_showtime_slots.status
	PriceCents uint32    // seat_showtime_slots.price_cents
	CreatedAt  time.Time // seat_showtime_slots.created_at
	UpdatedAt  time.Time // seat_showtime_slots.updated_at
}

// SeatStatus pairs a seat with its slot status for per-seat result
// lists returned to callers.
type SeatStatus struct {
	SeatID uint64 `json:"seat_id"`
	Status string `json:"status"`
}
