package qrtoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/booking-engine/internal/model"
)

// In-memory Store; TTLs are ignored because the tests drive time
// through the injected clock, not through key expiry.

type fakeStore struct {
	counts    map[uint64]int64
	current   map[uint64]string
	blacklist map[string]struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		counts:    map[uint64]int64{},
		current:   map[uint64]string{},
		blacklist: map[string]struct{}{},
	}
}

func (f *fakeStore) CountIssue(_ context.Context, ticketID uint64, _ time.Duration) (int64, error) {
	f.counts[ticketID]++
	return f.counts[ticketID], nil
}

func (f *fakeStore) CurrentTokenID(_ context.Context, ticketID uint64) (string, error) {
	return f.current[ticketID], nil
}

func (f *fakeStore) SetCurrentTokenID(_ context.Context, ticketID uint64, jti string, _ time.Duration) error {
	f.current[ticketID] = jti
	return nil
}

func (f *fakeStore) Blacklist(_ context.Context, jti string, _ time.Duration) error {
	f.blacklist[jti] = struct{}{}
	return nil
}

func (f *fakeStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := f.blacklist[jti]
	return ok, nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService() (*Service, *fakeStore, *fakeClock) {
	store := newFakeStore()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
	svc := New(store, []byte("test-secret"), clk, 10*time.Minute, 30*time.Minute, 3)
	return svc, store, clk
}

func testTicket() *model.Ticket {
	return &model.Ticket{ID: 7, OrderID: 3, SeatID: 42, ShowtimeID: 10}
}

func TestGenerateAndValidate(t *testing.T) {
	svc, _, clk := newTestService()
	start := clk.now.Add(5 * time.Minute)

	token, err := svc.Generate(context.Background(), testTicket(), start)
	require.NoError(t, err)

	claims, err := svc.Validate(context.Background(), token, start)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.TicketID)
	assert.Equal(t, uint64(42), claims.SeatID)
	assert.Equal(t, uint64(10), claims.ShowtimeID)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc, _, clk := newTestService()
	start := clk.now.Add(5 * time.Minute)

	token, err := svc.Generate(context.Background(), testTicket(), start)
	require.NoError(t, err)

	clk.advance(11 * time.Minute)
	_, err = svc.Validate(context.Background(), token, start)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateRejectsAfterWindowClose(t *testing.T) {
	svc, _, clk := newTestService()
	// Window closes at start+30m; expiry is clamped to it, so a token
	// minted near the close dies with the window no matter its ttl.
	start := clk.now.Add(-25 * time.Minute)

	token, err := svc.Generate(context.Background(), testTicket(), start)
	require.NoError(t, err)

	clk.advance(4 * time.Minute)
	_, err = svc.Validate(context.Background(), token, start)
	require.NoError(t, err)

	clk.advance(2 * time.Minute)
	_, err = svc.Validate(context.Background(), token, start)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateWindowDominatesFreshToken(t *testing.T) {
	svc, _, clk := newTestService()

	token, err := svc.Generate(context.Background(), testTicket(), clk.now.Add(5*time.Minute))
	require.NoError(t, err)

	// The showtime was moved earlier and its window already closed;
	// the token's own remaining lifetime does not matter.
	_, err = svc.Validate(context.Background(), token, clk.now.Add(-31*time.Minute))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestRevokedTokenStaysRejected(t *testing.T) {
	svc, _, clk := newTestService()
	start := clk.now.Add(5 * time.Minute)

	token, err := svc.Generate(context.Background(), testTicket(), start)
	require.NoError(t, err)
	claims, err := svc.Validate(context.Background(), token, start)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), claims, start))

	// Plenty of lifetime left; the blacklist wins anyway.
	_, err = svc.Validate(context.Background(), token, start)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestReissueRevokesPreviousToken(t *testing.T) {
	svc, _, clk := newTestService()
	start := clk.now.Add(5 * time.Minute)

	first, err := svc.Generate(context.Background(), testTicket(), start)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), testTicket(), start)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), first, start)
	assert.ErrorIs(t, err, ErrRevoked)
	_, err = svc.Validate(context.Background(), second, start)
	assert.NoError(t, err)
}

func TestGenerateEnforcesReissueLimit(t *testing.T) {
	svc, _, clk := newTestService()
	start := clk.now.Add(5 * time.Minute)

	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), testTicket(), start)
		require.NoError(t, err)
	}
	_, err := svc.Generate(context.Background(), testTicket(), start)
	assert.ErrorIs(t, err, ErrRegenLimit)
}

func TestGenerateRefusesClosedWindow(t *testing.T) {
	svc, store, clk := newTestService()

	_, err := svc.Generate(context.Background(), testTicket(), clk.now.Add(-31*time.Minute))
	assert.ErrorIs(t, err, ErrExpired)
	assert.Empty(t, store.counts)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	svc, _, clk := newTestService()
	other := New(newFakeStore(), []byte("other-secret"), clk, 10*time.Minute, 30*time.Minute, 3)
	start := clk.now.Add(5 * time.Minute)

	token, err := other.Generate(context.Background(), testTicket(), start)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token, start)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
