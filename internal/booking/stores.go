package booking

import (
	"context"
	"time"

	"github.com/cinetix/booking-engine/internal/model"
)

// SlotStore is the durable seat inventory.  Status changes ride on a
// compare-and-set primitive so the store itself arbitrates races
// between server instances; the engine never takes an in-process lock.
type SlotStore interface {
	// CreateBulk materializes slots when a showtime is scheduled.
	CreateBulk(ctx context.Context, slots []model.Slot) error
	// Statuses returns the status of each requested seat's slot for
	// the showtime.  Seats without a slot are absent from the map.
	Statuses(ctx context.Context, showtimeID uint64, seatIDs []uint64) (map[uint64]string, error)
	// ListByShowtime returns every slot of a showtime.
	ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Slot, error)
	// CompareAndSet transitions one slot from expected to next and
	// reports whether the update won.  false means another actor moved
	// the slot first.
	CompareAndSet(ctx context.Context, showtimeID, seatID uint64, expected, next string) (bool, error)
	// ReleaseHeld flips the given seats from HELD back to AVAILABLE.
	// Seats in any other state are left untouched.
	ReleaseHeld(ctx context.Context, showtimeID uint64, seatIDs []uint64) error
	// PricesBySeat returns the slot price per seat.
	PricesBySeat(ctx context.Context, showtimeID uint64, seatIDs []uint64) (map[uint64]uint32, error)
	// CountNonAvailable counts slots of the showtime not AVAILABLE.
	CountNonAvailable(ctx context.Context, showtimeID uint64) (int, error)
}

// HoldStore keeps the ephemeral hold records and the per-seat claim
// keys.  Both carry the same TTL; the store's native expiry is the
// sole cancellation mechanism for idle clients.  A claim is the
// liveness marker for a HELD slot: a HELD slot without a claim is
// stale and may be flipped back by any reader.
type HoldStore interface {
	// Get returns the hold for (user, showtime) or ErrHoldNotFound.
	Get(ctx context.Context, userID, showtimeID uint64) (*model.Hold, error)
	// Put writes the hold record with the given TTL.
	Put(ctx context.Context, h *model.Hold, ttl time.Duration) error
	// Delete removes the hold record.  Missing records are not an error.
	Delete(ctx context.Context, userID, showtimeID uint64) error
	// ClaimSeat atomically claims a seat for the user.  claimed is true
	// when this call took the claim; otherwise owner reports who holds
	// it (which may be the caller on an idempotent re-select).
	ClaimSeat(ctx context.Context, showtimeID, seatID, userID uint64, ttl time.Duration) (claimed bool, owner uint64, err error)
	// ClaimOwner reports the live claim owner of a seat, if any.
	ClaimOwner(ctx context.Context, showtimeID, seatID uint64) (owner uint64, ok bool, err error)
	// ReleaseClaim removes the seat's claim if owned by the user.
	ReleaseClaim(ctx context.Context, showtimeID, seatID, userID uint64) error
	// RefreshClaims resets the TTL of the user's claims on the given
	// seats, keeping claim expiry in lockstep with the hold record.
	RefreshClaims(ctx context.Context, showtimeID uint64, seatIDs []uint64, userID uint64, ttl time.Duration) error
}

// SessionStore keeps the ephemeral order sessions under the same TTL
// discipline as holds.
type SessionStore interface {
	Get(ctx context.Context, userID, showtimeID uint64) (*model.OrderSession, error)
	Put(ctx context.Context, s *model.OrderSession, ttl time.Duration) error
	Delete(ctx context.Context, userID, showtimeID uint64) error
}

// ShowtimeStore persists showtimes and answers overlap queries.
type ShowtimeStore interface {
	Get(ctx context.Context, id uint64) (*model.Showtime, error)
	Create(ctx context.Context, st *model.Showtime) error
	// FindOverlapping returns showtimes in the room whose [start, end)
	// interval overlaps the given one.  excludeID skips a showtime
	// (self, during reschedule); zero skips nothing.
	FindOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error)
	UpdateSchedule(ctx context.Context, id uint64, start, end time.Time) error
}

// SeatCatalog exposes the room/seat layout owned by the external
// catalog; the engine reads it only when seeding inventories.
type SeatCatalog interface {
	Room(ctx context.Context, roomID uint64) (*model.Room, error)
	ListNonBlocked(ctx context.Context, roomID uint64) ([]model.Seat, error)
}

// MovieCatalog supplies the runtime used to validate showtime length.
type MovieCatalog interface {
	Movie(ctx context.Context, id uint64) (*model.Movie, error)
}

// ConcessionCatalog validates cart line items against price, stock
// and active status.
type ConcessionCatalog interface {
	GetActive(ctx context.Context, id uint64) (*model.Concession, error)
}

// OrderStore converts a session into durable order/ticket/payment
// rows.  CreateFromSession must be atomic: either the order, all its
// tickets, the payment stub and the HELD→BOOKED slot transitions
// commit together, or nothing does (ErrSlotNotHeld when a slot was
// concurrently released).
type OrderStore interface {
	CreateFromSession(ctx context.Context, sess *model.OrderSession) (*model.Order, error)
}

// Publisher emits the order.confirmed event after a successful
// checkout.  Publish failures are logged, never fatal to the request.
type Publisher interface {
	OrderConfirmed(ctx context.Context, o *model.Order, seatIDs []uint64) error
}
