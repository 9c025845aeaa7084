package model

import "time"

// Order session status values.
const (
	SessionOpen      = "OPEN"
	SessionCancelled = "CANCELLED"
	SessionExpired   = "EXPIRED"
	SessionConverted = "CONVERTED"
)

// ComboLine is a concession line item in an order session.  Lines are
// merged by concession ID (last write wins) and validated against the
// concession catalog's stock before being applied.
type ComboLine struct {
	ConcessionID   uint64 `json:"concession_id"`
	Quantity       uint32 `json:"quantity"`
	UnitPriceCents uint32 `json:"unit_price_cents"`
}

// OrderSession is the ephemeral shopping cart layered on a hold: the
// ticket list mirrors the hold's seats, combos add concession items,
// and TotalCents is recomputed on every mutation.  A session lives
// one-to-one with its hold while OPEN and follows the same TTL
// discipline; both records are always extended together.
//
// Fields:
//  UserID     – user who owns the session.
//  ShowtimeID – showtime the cart is for.
//  SeatIDs    – slots selected as tickets.
//  Combos     – concession line items.
//  TotalCents – computed total (tickets + combos).
//  Status     – OPEN, CANCELLED, EXPIRED or CONVERTED.
//  CreatedAt  – when the session was created.
//  ExpiresAt  – when the session lapses.
type OrderSession struct {
	UserID     uint64      `json:"user_id"`
	ShowtimeID uint64      `json:"showtime_id"`
	SeatIDs    []uint64    `json:"seat_ids"`
	Combos     []ComboLine `json:"combos"`
	TotalCents uint32      `json:"total_cents"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// SetCombo merges a line into the session's combo list by concession
// id, last write wins.  Quantity zero removes the line.
func (s *OrderSession) SetCombo(ln ComboLine) {
	for i, cur := range s.Combos {
		if cur.ConcessionID == ln.ConcessionID {
			if ln.Quantity == 0 {
				s.Combos = append(s.Combos[:i], s.Combos[i+1:]...)
			} else {
				s.Combos[i] = ln
			}
			return
		}
	}
	if ln.Quantity > 0 {
		s.Combos = append(s.Combos, ln)
	}
}
