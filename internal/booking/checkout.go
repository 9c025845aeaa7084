package booking

import (
	"context"
	"log"

	"github.com/cinetix/booking-engine/internal/model"
)

// CheckoutService finalizes an order session into durable order,
// ticket and payment rows.  The ephemeral hold and session are proof
// of intent; the durable write is a single transaction so a crash at
// any point leaves either a complete PENDING order or nothing.
type CheckoutService struct {
	sessions  SessionStore
	holds     HoldStore
	orders    OrderStore
	manager   *SeatHoldManager
	publisher Publisher
}

// NewCheckoutService wires a checkout service.  publisher may be nil
// when no broker is configured.
func NewCheckoutService(sessions SessionStore, holds HoldStore, orders OrderStore, manager *SeatHoldManager, publisher Publisher) *CheckoutService {
	return &CheckoutService{
		sessions:  sessions,
		holds:     holds,
		orders:    orders,
		manager:   manager,
		publisher: publisher,
	}
}

// Finalize converts the user's session for the showtime into an order.
// It requires a live non-empty session and a live hold whose seat set
// matches the session's tickets exactly; any drift between the two is
// ErrHoldMismatch and nothing is written.  On success the slots are
// BOOKED, the hold and session are destroyed and an order.confirmed
// event is published best-effort.
func (c *CheckoutService) Finalize(ctx context.Context, userID, showtimeID uint64) (*model.Order, error) {
	sess, err := c.sessions.Get(ctx, userID, showtimeID)
	if err != nil {
		return nil, err
	}
	if len(sess.SeatIDs) == 0 {
		return nil, ErrOrderSessionNotFound
	}
	h, err := c.holds.Get(ctx, userID, showtimeID)
	if err != nil {
		return nil, err
	}
	if !sameSeatSet(sess.SeatIDs, h.SeatIDs) {
		return nil, ErrHoldMismatch
	}

	order, err := c.orders.CreateFromSession(ctx, sess)
	if err != nil {
		return nil, err
	}

	// The durable side is committed; ephemeral cleanup failures only
	// delay expiry, they cannot undo the sale.
	if err := c.manager.Consume(ctx, userID, showtimeID, sess.SeatIDs); err != nil {
		log.Printf("[checkout] consume hold user=%d showtime=%d: %v", userID, showtimeID, err)
	}
	if err := c.sessions.Delete(ctx, userID, showtimeID); err != nil {
		log.Printf("[checkout] delete session user=%d showtime=%d: %v", userID, showtimeID, err)
	}

	if c.publisher != nil {
		if err := c.publisher.OrderConfirmed(ctx, order, sess.SeatIDs); err != nil {
			log.Printf("[checkout] publish order.confirmed order=%d: %v", order.ID, err)
		}
	}
	return order, nil
}

func sameSeatSet(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uint64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
