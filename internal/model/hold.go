package model

import "time"

// Hold is an ephemeral, TTL-bound claim on one or more slots by a
// user, keyed by (user, showtime).  The store enforces expiry via its
// native TTL; CreatedAt and ExpiresAt are carried explicitly so that
// reconciliation logic and tests can reason about a hold's lifetime
// without depending on store-internal expiry semantics.  An expired or
// missing hold is authoritative proof that its seats are free.
//
// Fields:
//  UserID     – user who owns the hold.
//  ShowtimeID – showtime the held seats belong to.
//  SeatIDs    – ordered set of held seat IDs.
//  CreatedAt  – when the hold was first created.
//  ExpiresAt  – when the hold lapses.
type Hold struct {
	UserID     uint64    `json:"user_id"`
	ShowtimeID uint64    `json:"showtime_id"`
	SeatIDs    []uint64  `json:"seat_ids"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Contains reports whether the hold references the given seat.
func (h *Hold) Contains(seatID uint64) bool {
	for _, id := range h.SeatIDs {
		if id == seatID {
			return true
		}
	}
	return false
}

// Remove deletes the given seats from the hold's ordered set,
// preserving the order of the remaining entries.
func (h *Hold) Remove(seatIDs []uint64) {
	drop := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		drop[id] = struct{}{}
	}
	kept := h.SeatIDs[:0]
	for _, id := range h.SeatIDs {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	h.SeatIDs = kept
}
