package booking

import (
	"context"
	"time"

	"github.com/cinetix/booking-engine/internal/clock"
	"github.com/cinetix/booking-engine/internal/model"
)

// SessionService maintains the pre-payment cart: one OrderSession per
// (user, showtime) holding the ticket list, the concession lines and a
// running total.  Seat legality is the hold manager's business; the
// service only verifies that every ticket in the cart is backed by the
// user's live hold.
type SessionService struct {
	sessions    SessionStore
	concessions ConcessionCatalog
	slots       SlotStore
	manager     *SeatHoldManager
	clock       clock.Clock
	sessionTTL  time.Duration
}

// NewSessionService wires a session service over its stores.
func NewSessionService(sessions SessionStore, concessions ConcessionCatalog, slots SlotStore, manager *SeatHoldManager, clk clock.Clock, sessionTTL time.Duration) *SessionService {
	return &SessionService{
		sessions:    sessions,
		concessions: concessions,
		slots:       slots,
		manager:     manager,
		clock:       clk,
		sessionTTL:  sessionTTL,
	}
}

// CreateOrUpdate opens the user's session for the showtime, or replaces
// its ticket list when one already exists.  Every requested seat must
// be covered by the user's live hold; seats outside the hold fail the
// whole call with a *SeatConflictError and leave the session untouched.
func (s *SessionService) CreateOrUpdate(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*model.OrderSession, error) {
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrEmptySelection
	}
	held, err := s.manager.HeldSeats(ctx, userID, showtimeID)
	if err != nil {
		return nil, err
	}
	heldSet := make(map[uint64]struct{}, len(held))
	for _, id := range held {
		heldSet[id] = struct{}{}
	}
	var conflicts []SeatConflict
	for _, id := range seatIDs {
		if _, ok := heldSet[id]; !ok {
			conflicts = append(conflicts, SeatConflict{SeatID: id, Reason: ConflictNotHeld})
		}
	}
	if len(conflicts) > 0 {
		return nil, &SeatConflictError{Conflicts: conflicts}
	}

	now := s.clock.Now()
	sess, err := s.sessions.Get(ctx, userID, showtimeID)
	if err == ErrOrderSessionNotFound {
		sess = &model.OrderSession{
			UserID:     userID,
			ShowtimeID: showtimeID,
			Status:     model.SessionOpen,
			CreatedAt:  now,
		}
	} else if err != nil {
		return nil, err
	}
	sess.SeatIDs = seatIDs
	return s.save(ctx, sess, now)
}

// AddOrUpdateCombos merges concession lines into the session.  Each
// line is last-write-wins by concession id; quantity zero removes the
// line.  Every line is validated against the catalog before anything
// is applied, so a bad line leaves the session exactly as it was.
func (s *SessionService) AddOrUpdateCombos(ctx context.Context, userID, showtimeID uint64, lines []model.ComboLine) (*model.OrderSession, error) {
	sess, err := s.sessions.Get(ctx, userID, showtimeID)
	if err != nil {
		return nil, err
	}

	priced := make([]model.ComboLine, 0, len(lines))
	for _, ln := range lines {
		if ln.Quantity < 0 {
			return nil, ErrInvalidQuantity
		}
		if ln.Quantity == 0 {
			priced = append(priced, ln)
			continue
		}
		item, err := s.concessions.GetActive(ctx, ln.ConcessionID)
		if err == ErrConcessionNotFound {
			return nil, ErrInvalidQuantity
		}
		if err != nil {
			return nil, err
		}
		if ln.Quantity > item.Stock {
			return nil, ErrInvalidQuantity
		}
		ln.UnitPriceCents = item.PriceCents
		priced = append(priced, ln)
	}

	for _, ln := range priced {
		sess.SetCombo(ln)
	}
	return s.save(ctx, sess, s.clock.Now())
}

// RemoveTickets drops seats from the session's ticket list and
// deselects them from the backing hold so cart and hold stay in step.
// Removing the last ticket deletes the session and releases the hold
// entirely, combo lines included.
func (s *SessionService) RemoveTickets(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*model.OrderSession, error) {
	sess, err := s.sessions.Get(ctx, userID, showtimeID)
	if err != nil {
		return nil, err
	}
	remaining := sess.SeatIDs[:0:0]
	removed := make([]uint64, 0, len(seatIDs))
	drop := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		drop[id] = struct{}{}
	}
	for _, id := range sess.SeatIDs {
		if _, ok := drop[id]; ok {
			removed = append(removed, id)
		} else {
			remaining = append(remaining, id)
		}
	}
	if len(removed) > 0 {
		if _, err := s.manager.Deselect(ctx, userID, showtimeID, removed); err != nil && err != ErrHoldNotFound {
			return nil, err
		}
	}
	sess.SeatIDs = remaining
	if len(remaining) == 0 {
		if err := s.Delete(ctx, userID, showtimeID); err != nil {
			return nil, err
		}
		sess.Status = model.SessionCancelled
		sess.TotalCents = 0
		sess.Combos = nil
		return sess, nil
	}
	return s.save(ctx, sess, s.clock.Now())
}

// ExtendTTL pushes out the session's expiry window.  The backing hold
// has its own extend call; the two windows can drift when a client
// extends one but not the other, and checkout surfaces that drift as
// a hard mismatch instead of papering over it.
func (s *SessionService) ExtendTTL(ctx context.Context, userID, showtimeID uint64) (*model.OrderSession, error) {
	sess, err := s.sessions.Get(ctx, userID, showtimeID)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, sess, s.clock.Now())
}

// Find returns the user's session for the showtime.
func (s *SessionService) Find(ctx context.Context, userID, showtimeID uint64) (*model.OrderSession, error) {
	return s.sessions.Get(ctx, userID, showtimeID)
}

// Delete removes the session and releases the backing hold.  Hold and
// session are created together and die together.  Deleting a session
// that no longer exists reports ErrAlreadyDeleted.
func (s *SessionService) Delete(ctx context.Context, userID, showtimeID uint64) error {
	if _, err := s.sessions.Get(ctx, userID, showtimeID); err == ErrOrderSessionNotFound {
		return ErrAlreadyDeleted
	} else if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, userID, showtimeID); err != nil {
		return err
	}
	return s.manager.Release(ctx, userID, showtimeID)
}

// save reprices the session from current slot and combo prices, resets
// its expiry and writes it back.
func (s *SessionService) save(ctx context.Context, sess *model.OrderSession, now time.Time) (*model.OrderSession, error) {
	prices, err := s.slots.PricesBySeat(ctx, sess.ShowtimeID, sess.SeatIDs)
	if err != nil {
		return nil, err
	}
	var total uint32
	for _, id := range sess.SeatIDs {
		total += prices[id]
	}
	for _, ln := range sess.Combos {
		total += ln.UnitPriceCents * ln.Quantity
	}
	sess.TotalCents = total
	sess.ExpiresAt = now.Add(s.sessionTTL)
	if err := s.sessions.Put(ctx, sess, s.sessionTTL); err != nil {
		return nil, err
	}
	return sess, nil
}
