package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/booking-engine/internal/model"
)

const (
	testShowtime = uint64(10)
	alice        = uint64(1)
	bob          = uint64(2)
)

func newTestManager() (*SeatHoldManager, *fakeSlotStore, *fakeHoldStore, *fakeClock) {
	slots := newFakeSlotStore()
	holds := newFakeHoldStore()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
	m := NewSeatHoldManager(slots, holds, clk, 5*time.Minute)
	return m, slots, holds, clk
}

func TestSelectAcquiresSeats(t *testing.T) {
	m, slots, holds, clk := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)
	slots.seed(testShowtime, 2, model.SlotAvailable, 1200)

	h, err := m.Select(context.Background(), alice, testShowtime, []uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, h.SeatIDs)
	assert.Equal(t, clk.now.Add(5*time.Minute), h.ExpiresAt)

	assert.Equal(t, model.SlotHeld, slots.status[key{testShowtime, 1}])
	assert.Equal(t, model.SlotHeld, slots.status[key{testShowtime, 2}])
	assert.Equal(t, alice, holds.claims[key{testShowtime, 1}])
	assert.Equal(t, alice, holds.claims[key{testShowtime, 2}])
}

func TestSelectConflictRollsBackWholeBatch(t *testing.T) {
	m, slots, holds, _ := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)
	slots.seed(testShowtime, 3, model.SlotHeld, 1200)
	holds.claims[key{testShowtime, 3}] = bob

	_, err := m.Select(context.Background(), alice, testShowtime, []uint64{1, 3})
	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, uint64(3), conflict.Conflicts[0].SeatID)
	assert.Equal(t, ConflictHeldByOther, conflict.Conflicts[0].Reason)

	// Seat 1 must not stay acquired.
	assert.Equal(t, model.SlotAvailable, slots.status[key{testShowtime, 1}])
	_, claimed := holds.claims[key{testShowtime, 1}]
	assert.False(t, claimed)
	_, err = m.holds.Get(context.Background(), alice, testShowtime)
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestSelectReportsEveryConflict(t *testing.T) {
	m, slots, holds, _ := newTestManager()
	slots.seed(testShowtime, 1, model.SlotBooked, 1200)
	slots.seed(testShowtime, 2, model.SlotHeld, 1200)
	holds.claims[key{testShowtime, 2}] = bob

	_, err := m.Select(context.Background(), alice, testShowtime, []uint64{1, 2, 9})
	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	reasons := map[uint64]string{}
	for _, c := range conflict.Conflicts {
		reasons[c.SeatID] = c.Reason
	}
	assert.Equal(t, ConflictBooked, reasons[1])
	assert.Equal(t, ConflictHeldByOther, reasons[2])
	assert.Equal(t, ConflictNotFound, reasons[9])
}

func TestSelectIsIdempotentForOwner(t *testing.T) {
	m, slots, _, _ := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)

	_, err := m.Select(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)
	h, err := m.Select(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, h.SeatIDs)
}

func TestSelectRepairsDriftedRowUnderLiveClaim(t *testing.T) {
	m, slots, holds, clk := newTestManager()
	// A racing release can leave the row AVAILABLE while the user's
	// claim and hold record are still live.  Re-selecting must put the
	// row back in HELD, otherwise checkout keeps failing until the
	// claim expires.
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)
	holds.claims[key{testShowtime, 1}] = alice
	require.NoError(t, holds.Put(context.Background(), &model.Hold{
		UserID:     alice,
		ShowtimeID: testShowtime,
		SeatIDs:    []uint64{1},
		CreatedAt:  clk.now,
		ExpiresAt:  clk.now.Add(5 * time.Minute),
	}, 5*time.Minute))

	h, err := m.Select(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, h.SeatIDs)
	assert.Equal(t, model.SlotHeld, slots.status[key{testShowtime, 1}])
	assert.Equal(t, alice, holds.claims[key{testShowtime, 1}])
}

func TestSelectIncrementalAddExtendsHold(t *testing.T) {
	m, slots, _, clk := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)
	slots.seed(testShowtime, 2, model.SlotAvailable, 1200)

	_, err := m.Select(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	clk.advance(3 * time.Minute)
	h, err := m.Select(context.Background(), alice, testShowtime, []uint64{2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, h.SeatIDs)
	assert.Equal(t, clk.now.Add(5*time.Minute), h.ExpiresAt)
}

func TestExpiredHoldLosesSeat(t *testing.T) {
	m, slots, holds, _ := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)

	_, err := m.Select(context.Background(), bob, testShowtime, []uint64{1})
	require.NoError(t, err)

	// Bob's hold expires: claims and hold record vanish but the slot
	// row still says HELD.  The missing claim is authoritative.
	holds.expire(bob, testShowtime)
	require.Equal(t, model.SlotHeld, slots.status[key{testShowtime, 1}])

	h, err := m.Select(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, h.SeatIDs)
	assert.Equal(t, alice, holds.claims[key{testShowtime, 1}])
	assert.Equal(t, model.SlotHeld, slots.status[key{testShowtime, 1}])
}

func TestDeselectReleasesOnlyRequestedSeats(t *testing.T) {
	m, slots, holds, _ := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)
	slots.seed(testShowtime, 2, model.SlotAvailable, 1200)

	_, err := m.Select(context.Background(), alice, testShowtime, []uint64{1, 2})
	require.NoError(t, err)

	h, err := m.Deselect(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, h.SeatIDs)
	assert.Equal(t, model.SlotAvailable, slots.status[key{testShowtime, 1}])
	assert.Equal(t, model.SlotHeld, slots.status[key{testShowtime, 2}])
	_, claimed := holds.claims[key{testShowtime, 1}]
	assert.False(t, claimed)
}

func TestDeselectLastSeatDeletesHold(t *testing.T) {
	m, slots, _, _ := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)

	_, err := m.Select(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)
	_, err = m.Deselect(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	seats, err := m.HeldSeats(context.Background(), alice, testShowtime)
	require.NoError(t, err)
	assert.Empty(t, seats)
}

func TestReleaseIsIdempotent(t *testing.T) {
	m, _, _, _ := newTestManager()
	require.NoError(t, m.Release(context.Background(), alice, testShowtime))
}

func TestReleaseFreesEverything(t *testing.T) {
	m, slots, holds, _ := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)
	slots.seed(testShowtime, 2, model.SlotAvailable, 1200)

	_, err := m.Select(context.Background(), alice, testShowtime, []uint64{1, 2})
	require.NoError(t, err)
	require.NoError(t, m.Release(context.Background(), alice, testShowtime))

	assert.Equal(t, model.SlotAvailable, slots.status[key{testShowtime, 1}])
	assert.Equal(t, model.SlotAvailable, slots.status[key{testShowtime, 2}])
	assert.Empty(t, holds.claims)
	assert.Empty(t, holds.holds)
}

func TestExtendResetsExpiry(t *testing.T) {
	m, slots, _, clk := newTestManager()
	slots.seed(testShowtime, 1, model.SlotAvailable, 1200)

	_, err := m.Select(context.Background(), alice, testShowtime, []uint64{1})
	require.NoError(t, err)

	clk.advance(4 * time.Minute)
	h, err := m.Extend(context.Background(), alice, testShowtime)
	require.NoError(t, err)
	assert.Equal(t, clk.now.Add(5*time.Minute), h.ExpiresAt)
}

func TestExtendMissingHold(t *testing.T) {
	m, _, _, _ := newTestManager()
	_, err := m.Extend(context.Background(), alice, testShowtime)
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestSeatMapReconcilesStaleHeld(t *testing.T) {
	m, slots, _, _ := newTestManager()
	slots.seed(testShowtime, 1, model.SlotHeld, 1200) // stale: no claim
	slots.seed(testShowtime, 2, model.SlotBooked, 1200)

	statuses, err := m.SeatMap(context.Background(), testShowtime)
	require.NoError(t, err)

	byID := map[uint64]string{}
	for _, s := range statuses {
		byID[s.SeatID] = s.Status
	}
	assert.Equal(t, model.SlotAvailable, byID[1])
	assert.Equal(t, model.SlotBooked, byID[2])
	assert.Equal(t, model.SlotAvailable, slots.status[key{testShowtime, 1}])
}

func TestSelectEmptyRequest(t *testing.T) {
	m, _, _, _ := newTestManager()
	_, err := m.Select(context.Background(), alice, testShowtime, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)
}
