// Package sweeper runs the periodic reconciliation jobs: cancelling
// stale pending orders and purging inventory of past showtimes.  The
// jobs are idempotent; running a sweep twice in a row is harmless.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/clock"
)

// OrderSweepStore is what the stale-order sweep needs from the order
// repository.
type OrderSweepStore interface {
	ListStalePendingIDs(ctx context.Context, cutoff time.Time) ([]uint64, error)
	CancelStale(ctx context.Context, orderID uint64) error
	PurgeBlockedTickets(ctx context.Context, showtimeID uint64) (int64, error)
}

// ShowtimeSweepStore is what the purge sweep needs from the showtime
// repository.
type ShowtimeSweepStore interface {
	ListEndedBefore(ctx context.Context, cutoff time.Time) ([]uint64, error)
	MarkFinished(ctx context.Context, id uint64) error
}

// SlotSweepStore is what the purge sweep needs from the slot
// repository.
type SlotSweepStore interface {
	PurgeAvailable(ctx context.Context, showtimeID uint64) (int64, error)
}

// Sweeper owns the background reconciliation loop.
type Sweeper struct {
	orders    OrderSweepStore
	showtimes ShowtimeSweepStore
	slots     SlotSweepStore
	clock     clock.Clock

	interval time.Duration
	staleAge time.Duration
	done     chan struct{}
}

// New wires a sweeper.  interval is how often both sweeps run;
// staleAge is how old a PENDING order must be before it is cancelled.
func New(orders OrderSweepStore, showtimes ShowtimeSweepStore, slots SlotSweepStore, clk clock.Clock, interval, staleAge time.Duration) *Sweeper {
	return &Sweeper{
		orders:    orders,
		showtimes: showtimes,
		slots:     slots,
		clock:     clk,
		interval:  interval,
		staleAge:  staleAge,
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop.  One pass runs immediately so a
// restart catches up without waiting a full interval.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop terminates the loop.
func (s *Sweeper) Stop() {
	close(s.done)
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if n, err := s.SweepStaleOrders(ctx); err != nil {
		log.Printf("[sweeper] stale orders: %v", err)
	} else if n > 0 {
		log.Printf("[sweeper] cancelled %d stale orders", n)
	}
	if n, err := s.PurgePastShowtimes(ctx); err != nil {
		log.Printf("[sweeper] purge showtimes: %v", err)
	} else if n > 0 {
		log.Printf("[sweeper] purged %d past showtimes", n)
	}
}

// SweepStaleOrders cancels PENDING orders older than the stale age:
// order CANCELED, payments FAILED, booked slots back to AVAILABLE.
// Orders that completed payment between listing and cancel are skipped.
func (s *Sweeper) SweepStaleOrders(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.staleAge)
	ids, err := s.orders.ListStalePendingIDs(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, id := range ids {
		switch err := s.orders.CancelStale(ctx, id); err {
		case nil:
			cancelled++
		case booking.ErrOrderNotPending:
			// lost the race to a payment; fine
		default:
			log.Printf("[sweeper] cancel order %d: %v", id, err)
		}
	}
	return cancelled, nil
}

// PurgePastShowtimes removes never-sold AVAILABLE slots and BLOCKED
// tickets of showtimes that have already ended, then marks each
// showtime FINISHED.
func (s *Sweeper) PurgePastShowtimes(ctx context.Context) (int, error) {
	ids, err := s.showtimes.ListEndedBefore(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, id := range ids {
		if _, err := s.slots.PurgeAvailable(ctx, id); err != nil {
			log.Printf("[sweeper] purge slots showtime=%d: %v", id, err)
			continue
		}
		if _, err := s.orders.PurgeBlockedTickets(ctx, id); err != nil {
			log.Printf("[sweeper] purge blocked tickets showtime=%d: %v", id, err)
			continue
		}
		if err := s.showtimes.MarkFinished(ctx, id); err != nil {
			log.Printf("[sweeper] mark finished showtime=%d: %v", id, err)
			continue
		}
		purged++
	}
	return purged, nil
}
