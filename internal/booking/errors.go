// Package booking implements the seat reservation engine: the seat
// hold manager and slot state machine, the order-session cart, the
// checkout path and the showtime scheduling guard.  This file defines
// the sentinel errors shared by the engine and its stores.  Handlers
// translate them into HTTP responses; sweeps log and retry them.
package booking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHoldNotFound is returned when an operation targets a hold that
// has expired or never existed.  An expired hold is authoritative:
// its seats are free regardless of what the inventory still shows.
var ErrHoldNotFound = errors.New("hold not found")

// ErrOrderSessionNotFound is returned when a mutation targets an
// expired or missing order session.
var ErrOrderSessionNotFound = errors.New("order session not found")

// ErrInvalidQuantity is returned when a concession line item exceeds
// available stock, references an inactive item, or has an invalid
// quantity.  The session is left untouched.
var ErrInvalidQuantity = errors.New("invalid quantity")

// ErrShowtimeConflict is returned when a showtime's interval overlaps
// another showtime scheduled in the same room.
var ErrShowtimeConflict = errors.New("showtime overlaps an existing showtime")

// ErrShowtimeNotFound is returned when a showtime lookup yields no row.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrRoomNotFound is returned when a room lookup yields no row.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomInactive is returned when scheduling is attempted against a
// room that no longer accepts showtimes.
var ErrRoomInactive = errors.New("room inactive")

// ErrMovieNotFound is returned when the movie catalog has no entry
// for the requested id.
var ErrMovieNotFound = errors.New("movie not found")

// ErrConcessionNotFound is returned when the concession catalog has
// no active entry for the requested id.
var ErrConcessionNotFound = errors.New("concession not found")

// ErrInvalidInterval is returned when a showtime's start/end times are
// inverted or too short to fit the movie's duration.
var ErrInvalidInterval = errors.New("invalid showtime interval")

// ErrShowtimeHasSales is returned when a reschedule is attempted while
// any slot of the showtime is HELD or BOOKED.
var ErrShowtimeHasSales = errors.New("showtime has held or booked seats")

// ErrHoldMismatch is returned by checkout when the live hold's seat
// set does not exactly match the session's ticket list.  The mismatch
// is never auto-corrected.
var ErrHoldMismatch = errors.New("hold does not match order session")

// ErrSlotNotHeld is returned when a slot expected to be HELD was
// concurrently released or consumed.
var ErrSlotNotHeld = errors.New("slot no longer held")

// ErrOrderNotFound is returned when an order lookup yields no row the
// caller may see.
var ErrOrderNotFound = errors.New("order not found")

// ErrTicketNotFound is returned when a ticket lookup yields no row.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrOrderNotPending is returned when a lifecycle transition requires
// a PENDING order.
var ErrOrderNotPending = errors.New("order not pending")

// ErrAlreadyDeleted is returned when a delete targets a record that
// was already removed.
var ErrAlreadyDeleted = errors.New("already deleted")

// ErrEmptySelection is returned when a seat batch request names no
// seats after de-duplication.
var ErrEmptySelection = errors.New("no seats selected")

// Per-seat conflict reasons used in SeatConflict.Reason.
const (
	ConflictBooked      = "BOOKED"
	ConflictHeldByOther = "HELD_BY_OTHER"
	ConflictNotFound    = "NOT_FOUND"
	ConflictNotHeld     = "NOT_HELD"
)

// SeatConflict identifies one seat that could not be acquired and why.
type SeatConflict struct {
	SeatID uint64 `json:"seat_id"`
	Reason string `json:"reason"`
}

// SeatConflictError reports every seat that made a batch request fail.
// The whole batch fails atomically: when this error is returned, no
// seat from the request is left HELD by the caller.
type SeatConflictError struct {
	Conflicts []SeatConflict
}

// Error lists the conflicting seat ids.
func (e *SeatConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%d(%s)", c.SeatID, c.Reason))
	}
	return "seats unavailable: " + strings.Join(parts, ", ")
}
