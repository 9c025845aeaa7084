package booking

import (
	"context"
	"log"
	"time"

	"github.com/cinetix/booking-engine/internal/clock"
	"github.com/cinetix/booking-engine/internal/model"
)

// SeatHoldManager arbitrates seat selection for a showtime.  Every
// acquisition runs claim-first: the seat's claim key is taken in the
// hold store before the slot row is flipped AVAILABLE→HELD, so two
// users racing for one seat are serialized by the store and exactly
// one wins.  Batches are all-or-nothing: on any conflict the manager
// rolls back every claim and slot transition it applied and reports
// the full conflict list.
type SeatHoldManager struct {
	slots   SlotStore
	holds   HoldStore
	clock   clock.Clock
	holdTTL time.Duration
}

// NewSeatHoldManager wires a manager over the given stores.
func NewSeatHoldManager(slots SlotStore, holds HoldStore, clk clock.Clock, holdTTL time.Duration) *SeatHoldManager {
	return &SeatHoldManager{slots: slots, holds: holds, clock: clk, holdTTL: holdTTL}
}

// HoldTTL reports the configured hold lifetime.
func (m *SeatHoldManager) HoldTTL() time.Duration { return m.holdTTL }

// Select acquires the given seats for the user, all or nothing.  Seats
// already held by the same user are accepted idempotently.  On success
// the user's hold is created or extended to a fresh TTL covering every
// seat it now contains.  On conflict a *SeatConflictError lists each
// seat that could not be taken and no requested seat stays acquired.
func (m *SeatHoldManager) Select(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*model.Hold, error) {
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrEmptySelection
	}

	statuses, err := m.slots.Statuses(ctx, showtimeID, seatIDs)
	if err != nil {
		return nil, err
	}

	var (
		conflicts []SeatConflict
		claimed   []uint64 // claims this call took
		flipped   []uint64 // slots this call moved AVAILABLE→HELD
	)
	rollback := func() {
		for _, id := range flipped {
			if _, err := m.slots.CompareAndSet(ctx, showtimeID, id, model.SlotHeld, model.SlotAvailable); err != nil {
				log.Printf("[booking] rollback: release slot %d/%d: %v", showtimeID, id, err)
			}
		}
		for _, id := range claimed {
			if err := m.holds.ReleaseClaim(ctx, showtimeID, id, userID); err != nil {
				log.Printf("[booking] rollback: release claim %d/%d: %v", showtimeID, id, err)
			}
		}
	}

	for _, seatID := range seatIDs {
		status, found := statuses[seatID]
		if !found {
			conflicts = append(conflicts, SeatConflict{SeatID: seatID, Reason: ConflictNotFound})
			continue
		}
		if status == model.SlotBooked {
			conflicts = append(conflicts, SeatConflict{SeatID: seatID, Reason: ConflictBooked})
			continue
		}

		// An inventory row stuck in HELD with no live claim belongs
		// to an expired hold; the claim's absence wins and the row is
		// reconciled back to AVAILABLE before this seat is judged.
		if status == model.SlotHeld {
			owner, live, err := m.holds.ClaimOwner(ctx, showtimeID, seatID)
			if err != nil {
				rollback()
				return nil, err
			}
			switch {
			case !live:
				if _, err := m.slots.CompareAndSet(ctx, showtimeID, seatID, model.SlotHeld, model.SlotAvailable); err != nil {
					rollback()
					return nil, err
				}
			case owner == userID:
				continue // already ours, idempotent
			default:
				conflicts = append(conflicts, SeatConflict{SeatID: seatID, Reason: ConflictHeldByOther})
				continue
			}
		}

		took, owner, err := m.holds.ClaimSeat(ctx, showtimeID, seatID, userID, m.holdTTL)
		if err != nil {
			rollback()
			return nil, err
		}
		if !took {
			if owner == userID {
				// A claim of ours predates this call, yet the row read
				// AVAILABLE: a racing release drifted the inventory.
				// Re-assert HELD; the seat is legitimately ours so the
				// repair stands even if the rest of the batch fails.
				if _, err := m.slots.CompareAndSet(ctx, showtimeID, seatID, model.SlotAvailable, model.SlotHeld); err != nil {
					rollback()
					return nil, err
				}
				continue
			}
			conflicts = append(conflicts, SeatConflict{SeatID: seatID, Reason: ConflictHeldByOther})
			continue
		}
		claimed = append(claimed, seatID)

		won, err := m.slots.CompareAndSet(ctx, showtimeID, seatID, model.SlotAvailable, model.SlotHeld)
		if err != nil {
			rollback()
			return nil, err
		}
		if !won {
			conflicts = append(conflicts, SeatConflict{SeatID: seatID, Reason: ConflictHeldByOther})
			continue
		}
		flipped = append(flipped, seatID)
	}

	if len(conflicts) > 0 {
		rollback()
		return nil, &SeatConflictError{Conflicts: conflicts}
	}

	return m.commitHold(ctx, userID, showtimeID, seatIDs)
}

// commitHold merges the acquired seats into the user's hold record and
// resets the TTL of the record and every claim it covers.
func (m *SeatHoldManager) commitHold(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*model.Hold, error) {
	now := m.clock.Now()
	h, err := m.holds.Get(ctx, userID, showtimeID)
	if err == ErrHoldNotFound {
		h = &model.Hold{UserID: userID, ShowtimeID: showtimeID, CreatedAt: now}
	} else if err != nil {
		return nil, err
	}
	for _, id := range seatIDs {
		if !h.Contains(id) {
			h.SeatIDs = append(h.SeatIDs, id)
		}
	}
	h.ExpiresAt = now.Add(m.holdTTL)
	if err := m.holds.Put(ctx, h, m.holdTTL); err != nil {
		return nil, err
	}
	if err := m.holds.RefreshClaims(ctx, showtimeID, h.SeatIDs, userID, m.holdTTL); err != nil {
		return nil, err
	}
	return h, nil
}

// Deselect removes the given seats from the user's hold, releasing
// their claims and flipping their slots back to AVAILABLE.  Seats not
// in the hold are ignored.  The remaining hold gets a fresh TTL; when
// the last seat is removed the hold record is deleted.
func (m *SeatHoldManager) Deselect(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*model.Hold, error) {
	h, err := m.holds.Get(ctx, userID, showtimeID)
	if err != nil {
		return nil, err
	}
	var dropped []uint64
	for _, id := range dedupe(seatIDs) {
		if h.Contains(id) {
			dropped = append(dropped, id)
		}
	}
	// Slot first, claim second: while the claim is still live no other
	// user can take the seat, so the freshly AVAILABLE row cannot be
	// flipped back over somebody else's new hold.
	for _, id := range dropped {
		if _, err := m.slots.CompareAndSet(ctx, showtimeID, id, model.SlotHeld, model.SlotAvailable); err != nil {
			return nil, err
		}
		if err := m.holds.ReleaseClaim(ctx, showtimeID, id, userID); err != nil {
			return nil, err
		}
	}
	h.Remove(dropped)
	if len(h.SeatIDs) == 0 {
		if err := m.holds.Delete(ctx, userID, showtimeID); err != nil {
			return nil, err
		}
		return h, nil
	}
	h.ExpiresAt = m.clock.Now().Add(m.holdTTL)
	if err := m.holds.Put(ctx, h, m.holdTTL); err != nil {
		return nil, err
	}
	if err := m.holds.RefreshClaims(ctx, showtimeID, h.SeatIDs, userID, m.holdTTL); err != nil {
		return nil, err
	}
	return h, nil
}

// Release drops the user's entire hold for the showtime: claims gone,
// slots back to AVAILABLE, record deleted.  Releasing a hold that no
// longer exists is a no-op.
func (m *SeatHoldManager) Release(ctx context.Context, userID, showtimeID uint64) error {
	h, err := m.holds.Get(ctx, userID, showtimeID)
	if err == ErrHoldNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	// Same ordering as Deselect: flip the row while the claim still
	// guards the seat, then drop the claim.
	for _, id := range h.SeatIDs {
		if _, err := m.slots.CompareAndSet(ctx, showtimeID, id, model.SlotHeld, model.SlotAvailable); err != nil {
			return err
		}
		if err := m.holds.ReleaseClaim(ctx, showtimeID, id, userID); err != nil {
			return err
		}
	}
	return m.holds.Delete(ctx, userID, showtimeID)
}

// Extend resets the hold's TTL window without changing its contents.
func (m *SeatHoldManager) Extend(ctx context.Context, userID, showtimeID uint64) (*model.Hold, error) {
	h, err := m.holds.Get(ctx, userID, showtimeID)
	if err != nil {
		return nil, err
	}
	h.ExpiresAt = m.clock.Now().Add(m.holdTTL)
	if err := m.holds.Put(ctx, h, m.holdTTL); err != nil {
		return nil, err
	}
	if err := m.holds.RefreshClaims(ctx, showtimeID, h.SeatIDs, userID, m.holdTTL); err != nil {
		return nil, err
	}
	return h, nil
}

// HeldSeats returns the seats the user currently holds for the
// showtime, or an empty list when no hold exists.
func (m *SeatHoldManager) HeldSeats(ctx context.Context, userID, showtimeID uint64) ([]uint64, error) {
	h, err := m.holds.Get(ctx, userID, showtimeID)
	if err == ErrHoldNotFound {
		return []uint64{}, nil
	}
	if err != nil {
		return nil, err
	}
	return h.SeatIDs, nil
}

// Consume discards the user's claims and hold record after checkout
// booked the slots.  Slot statuses are left alone: they are BOOKED now
// and no longer belong to the hold lifecycle.
func (m *SeatHoldManager) Consume(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) error {
	for _, id := range seatIDs {
		if err := m.holds.ReleaseClaim(ctx, showtimeID, id, userID); err != nil {
			return err
		}
	}
	return m.holds.Delete(ctx, userID, showtimeID)
}

// SeatMap returns the status of every slot of a showtime, reconciling
// stale HELD rows on the way so read traffic converges the inventory
// toward claim reality between sweeps.
func (m *SeatHoldManager) SeatMap(ctx context.Context, showtimeID uint64) ([]model.SeatStatus, error) {
	slots, err := m.slots.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	out := make([]model.SeatStatus, 0, len(slots))
	for _, s := range slots {
		status := s.Status
		if status == model.SlotHeld {
			_, live, err := m.holds.ClaimOwner(ctx, showtimeID, s.SeatID)
			if err != nil {
				return nil, err
			}
			if !live {
				if _, err := m.slots.CompareAndSet(ctx, showtimeID, s.SeatID, model.SlotHeld, model.SlotAvailable); err != nil {
					return nil, err
				}
				status = model.SlotAvailable
			}
		}
		out = append(out, model.SeatStatus{SeatID: s.SeatID, Status: status})
	}
	return out, nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
