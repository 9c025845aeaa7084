package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/booking-engine/internal/model"
)

func newTestSessionService() (*SessionService, *SeatHoldManager, *fakeSlotStore, *fakeHoldStore, *fakeSessionStore, *fakeClock) {
	slots := newFakeSlotStore()
	holds := newFakeHoldStore()
	sessions := newFakeSessionStore()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
	manager := NewSeatHoldManager(slots, holds, clk, 5*time.Minute)
	concessions := &fakeConcessionCatalog{items: map[uint64]model.Concession{
		100: {ID: 100, Name: "popcorn combo", PriceCents: 800, Stock: 5, IsActive: true},
		101: {ID: 101, Name: "soda", PriceCents: 300, Stock: 2, IsActive: true},
		102: {ID: 102, Name: "retired", PriceCents: 100, Stock: 9, IsActive: false},
	}}
	svc := NewSessionService(sessions, concessions, slots, manager, clk, 10*time.Minute)
	return svc, manager, slots, holds, sessions, clk
}

func holdSeats(t *testing.T, m *SeatHoldManager, slots *fakeSlotStore, user uint64, seatIDs []uint64) {
	t.Helper()
	for _, id := range seatIDs {
		slots.seed(testShowtime, id, model.SlotAvailable, 1500)
	}
	_, err := m.Select(context.Background(), user, testShowtime, seatIDs)
	require.NoError(t, err)
}

func TestCreateSessionComputesTicketTotal(t *testing.T) {
	svc, m, slots, _, _, clk := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1, 2})

	sess, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, uint32(3000), sess.TotalCents)
	assert.Equal(t, model.SessionOpen, sess.Status)
	assert.Equal(t, clk.now.Add(10*time.Minute), sess.ExpiresAt)
}

func TestCreateSessionRejectsUnheldSeats(t *testing.T) {
	svc, m, slots, _, sessions, _ := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1})

	_, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1, 7})
	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, uint64(7), conflict.Conflicts[0].SeatID)
	assert.Equal(t, ConflictNotHeld, conflict.Conflicts[0].Reason)
	assert.Empty(t, sessions.sessions)
}

func TestCombosMergeAndReprice(t *testing.T) {
	svc, m, slots, _, _, _ := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1})
	_, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	sess, err := svc.AddOrUpdateCombos(context.Background(), alice, testShowtime, []model.ComboLine{
		{ConcessionID: 100, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1500+1600), sess.TotalCents)

	// Last write wins per concession.
	sess, err = svc.AddOrUpdateCombos(context.Background(), alice, testShowtime, []model.ComboLine{
		{ConcessionID: 100, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1500+800), sess.TotalCents)

	// Quantity zero removes the line.
	sess, err = svc.AddOrUpdateCombos(context.Background(), alice, testShowtime, []model.ComboLine{
		{ConcessionID: 100, Quantity: 0},
	})
	require.NoError(t, err)
	assert.Empty(t, sess.Combos)
	assert.Equal(t, uint32(1500), sess.TotalCents)
}

func TestCombosValidateBeforeApplying(t *testing.T) {
	svc, m, slots, _, _, _ := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1})
	_, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	// Second line exceeds stock; the first must not be applied either.
	_, err = svc.AddOrUpdateCombos(context.Background(), alice, testShowtime, []model.ComboLine{
		{ConcessionID: 100, Quantity: 1},
		{ConcessionID: 101, Quantity: 3},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	sess, err := svc.Find(context.Background(), alice, testShowtime)
	require.NoError(t, err)
	assert.Empty(t, sess.Combos)
	assert.Equal(t, uint32(1500), sess.TotalCents)
}

func TestCombosRejectInactiveItem(t *testing.T) {
	svc, m, slots, _, _, _ := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1})
	_, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	_, err = svc.AddOrUpdateCombos(context.Background(), alice, testShowtime, []model.ComboLine{
		{ConcessionID: 102, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveTicketsDeselectsSeats(t *testing.T) {
	svc, m, slots, holds, _, _ := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1, 2})
	_, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1, 2})
	require.NoError(t, err)

	sess, err := svc.RemoveTickets(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, sess.SeatIDs)
	assert.Equal(t, uint32(1500), sess.TotalCents)
	assert.Equal(t, model.SlotAvailable, slots.status[key{testShowtime, 1}])
	_, claimed := holds.claims[key{testShowtime, 1}]
	assert.False(t, claimed)
}

func TestRemoveLastTicketDeletesSessionAndHold(t *testing.T) {
	svc, m, slots, holds, sessions, _ := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1})
	_, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	_, err = svc.RemoveTickets(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	assert.Empty(t, sessions.sessions)
	assert.Empty(t, holds.holds)
	assert.Equal(t, model.SlotAvailable, slots.status[key{testShowtime, 1}])
}

func TestExtendTTLMovesOnlySessionWindow(t *testing.T) {
	svc, m, slots, holds, _, clk := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1})
	_, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)
	holdExpiry := holds.holds[key{testShowtime, alice}].ExpiresAt

	clk.advance(4 * time.Minute)
	sess, err := svc.ExtendTTL(context.Background(), alice, testShowtime)
	require.NoError(t, err)
	assert.Equal(t, clk.now.Add(10*time.Minute), sess.ExpiresAt)

	// The hold keeps its old window; extending it is a separate call.
	h := holds.holds[key{testShowtime, alice}]
	require.NotNil(t, h)
	assert.Equal(t, holdExpiry, h.ExpiresAt)
}

func TestDeleteSessionReleasesHold(t *testing.T) {
	svc, m, slots, holds, sessions, _ := newTestSessionService()
	holdSeats(t, m, slots, alice, []uint64{1})
	_, err := svc.CreateOrUpdate(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), alice, testShowtime))
	assert.Empty(t, sessions.sessions)
	assert.Empty(t, holds.holds)
	assert.Equal(t, model.SlotAvailable, slots.status[key{testShowtime, 1}])

	err = svc.Delete(context.Background(), alice, testShowtime)
	assert.ErrorIs(t, err, ErrAlreadyDeleted)
}
