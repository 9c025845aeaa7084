package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/booking-engine/internal/model"
)

func newTestCheckout() (*CheckoutService, *SeatHoldManager, *fakeSlotStore, *fakeHoldStore, *fakeSessionStore, *fakeOrderStore, *fakePublisher) {
	slots := newFakeSlotStore()
	holds := newFakeHoldStore()
	sessions := newFakeSessionStore()
	orders := &fakeOrderStore{}
	pub := &fakePublisher{}
	clk := &fakeClock{now: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
	manager := NewSeatHoldManager(slots, holds, clk, 5*time.Minute)
	svc := NewCheckoutService(sessions, holds, orders, manager, pub)
	return svc, manager, slots, holds, sessions, orders, pub
}

func openSession(t *testing.T, m *SeatHoldManager, slots *fakeSlotStore, sessions *fakeSessionStore, seatIDs []uint64) {
	t.Helper()
	for _, id := range seatIDs {
		slots.seed(testShowtime, id, model.SlotAvailable, 1500)
	}
	h, err := m.Select(context.Background(), alice, testShowtime, seatIDs)
	require.NoError(t, err)
	require.NoError(t, sessions.Put(context.Background(), &model.OrderSession{
		UserID:     alice,
		ShowtimeID: testShowtime,
		SeatIDs:    h.SeatIDs,
		TotalCents: uint32(1500 * len(seatIDs)),
		Status:     model.SessionOpen,
	}, 10*time.Minute))
}

func TestFinalizeCreatesOrderAndDestroysEphemera(t *testing.T) {
	svc, m, slots, holds, sessions, orders, pub := newTestCheckout()
	openSession(t, m, slots, sessions, []uint64{1, 2})

	order, err := svc.Finalize(context.Background(), alice, testShowtime)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, uint32(3000), order.TotalCents)
	require.Len(t, orders.created, 1)

	assert.Empty(t, sessions.sessions)
	assert.Empty(t, holds.holds)
	assert.Empty(t, holds.claims)
	assert.Equal(t, []uint64{order.ID}, pub.events)
}

func TestFinalizeWithoutSession(t *testing.T) {
	svc, _, _, _, _, orders, _ := newTestCheckout()
	_, err := svc.Finalize(context.Background(), alice, testShowtime)
	assert.ErrorIs(t, err, ErrOrderSessionNotFound)
	assert.Empty(t, orders.created)
}

func TestFinalizeAfterHoldExpiry(t *testing.T) {
	svc, m, slots, holds, sessions, orders, _ := newTestCheckout()
	openSession(t, m, slots, sessions, []uint64{1})

	holds.expire(alice, testShowtime)

	_, err := svc.Finalize(context.Background(), alice, testShowtime)
	assert.ErrorIs(t, err, ErrHoldNotFound)
	assert.Empty(t, orders.created)
	// The abandoned session survives; only its hold lapsed.
	assert.Len(t, sessions.sessions, 1)
}

func TestFinalizeHoldMismatch(t *testing.T) {
	svc, m, slots, holds, sessions, orders, _ := newTestCheckout()
	openSession(t, m, slots, sessions, []uint64{1, 2})

	// Drift: the hold lost a seat after the session recorded both.
	h := holds.holds[key{testShowtime, alice}]
	h.SeatIDs = []uint64{1}

	_, err := svc.Finalize(context.Background(), alice, testShowtime)
	assert.ErrorIs(t, err, ErrHoldMismatch)
	assert.Empty(t, orders.created)
}

func TestFinalizeSlotRace(t *testing.T) {
	svc, m, slots, _, sessions, orders, pub := newTestCheckout()
	openSession(t, m, slots, sessions, []uint64{1})
	orders.err = ErrSlotNotHeld

	_, err := svc.Finalize(context.Background(), alice, testShowtime)
	assert.ErrorIs(t, err, ErrSlotNotHeld)
	assert.Empty(t, pub.events)
	// Ephemeral state is kept so the customer can retry or re-select.
	assert.Len(t, sessions.sessions, 1)
}
