package booking

import (
	"context"
	"time"

	"github.com/cinetix/booking-engine/internal/model"
)

// In-memory stand-ins for the stores.  They keep the same contracts
// as the real MySQL/Redis implementations minus durability; tests
// simulate TTL expiry by deleting claims and holds directly.

type key struct{ a, b uint64 }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeSlotStore struct {
	status map[key]string // (showtime, seat) -> status
	prices map[key]uint32
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{status: map[key]string{}, prices: map[key]uint32{}}
}

func (f *fakeSlotStore) seed(showtimeID, seatID uint64, status string, price uint32) {
	f.status[key{showtimeID, seatID}] = status
	f.prices[key{showtimeID, seatID}] = price
}

func (f *fakeSlotStore) CreateBulk(_ context.Context, slots []model.Slot) error {
	for _, s := range slots {
		f.seed(s.ShowtimeID, s.SeatID, s.Status, s.PriceCents)
	}
	return nil
}

func (f *fakeSlotStore) Statuses(_ context.Context, showtimeID uint64, seatIDs []uint64) (map[uint64]string, error) {
	out := map[uint64]string{}
	for _, id := range seatIDs {
		if st, ok := f.status[key{showtimeID, id}]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (f *fakeSlotStore) ListByShowtime(_ context.Context, showtimeID uint64) ([]model.Slot, error) {
	var out []model.Slot
	for k, st := range f.status {
		if k.a == showtimeID {
			out = append(out, model.Slot{ShowtimeID: k.a, SeatID: k.b, Status: st, PriceCents: f.prices[k]})
		}
	}
	return out, nil
}

func (f *fakeSlotStore) CompareAndSet(_ context.Context, showtimeID, seatID uint64, expected, next string) (bool, error) {
	k := key{showtimeID, seatID}
	if f.status[k] != expected {
		return false, nil
	}
	f.status[k] = next
	return true, nil
}

func (f *fakeSlotStore) ReleaseHeld(_ context.Context, showtimeID uint64, seatIDs []uint64) error {
	for _, id := range seatIDs {
		k := key{showtimeID, id}
		if f.status[k] == model.SlotHeld {
			f.status[k] = model.SlotAvailable
		}
	}
	return nil
}

func (f *fakeSlotStore) PricesBySeat(_ context.Context, showtimeID uint64, seatIDs []uint64) (map[uint64]uint32, error) {
	out := map[uint64]uint32{}
	for _, id := range seatIDs {
		if p, ok := f.prices[key{showtimeID, id}]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeSlotStore) CountNonAvailable(_ context.Context, showtimeID uint64) (int, error) {
	n := 0
	for k, st := range f.status {
		if k.a == showtimeID && st != model.SlotAvailable {
			n++
		}
	}
	return n, nil
}

type fakeHoldStore struct {
	holds  map[key]*model.Hold // (showtime, user)
	claims map[key]uint64      // (showtime, seat) -> owner
}

func newFakeHoldStore() *fakeHoldStore {
	return &fakeHoldStore{holds: map[key]*model.Hold{}, claims: map[key]uint64{}}
}

func (f *fakeHoldStore) Get(_ context.Context, userID, showtimeID uint64) (*model.Hold, error) {
	h, ok := f.holds[key{showtimeID, userID}]
	if !ok {
		return nil, ErrHoldNotFound
	}
	cp := *h
	cp.SeatIDs = append([]uint64(nil), h.SeatIDs...)
	return &cp, nil
}

func (f *fakeHoldStore) Put(_ context.Context, h *model.Hold, _ time.Duration) error {
	cp := *h
	cp.SeatIDs = append([]uint64(nil), h.SeatIDs...)
	f.holds[key{h.ShowtimeID, h.UserID}] = &cp
	return nil
}

func (f *fakeHoldStore) Delete(_ context.Context, userID, showtimeID uint64) error {
	delete(f.holds, key{showtimeID, userID})
	return nil
}

func (f *fakeHoldStore) ClaimSeat(_ context.Context, showtimeID, seatID, userID uint64, _ time.Duration) (bool, uint64, error) {
	k := key{showtimeID, seatID}
	if owner, ok := f.claims[k]; ok {
		return false, owner, nil
	}
	f.claims[k] = userID
	return true, userID, nil
}

func (f *fakeHoldStore) ClaimOwner(_ context.Context, showtimeID, seatID uint64) (uint64, bool, error) {
	owner, ok := f.claims[key{showtimeID, seatID}]
	return owner, ok, nil
}

func (f *fakeHoldStore) ReleaseClaim(_ context.Context, showtimeID, seatID, userID uint64) error {
	k := key{showtimeID, seatID}
	if f.claims[k] == userID {
		delete(f.claims, k)
	}
	return nil
}

func (f *fakeHoldStore) RefreshClaims(_ context.Context, _ uint64, _ []uint64, _ uint64, _ time.Duration) error {
	return nil
}

// expire simulates Redis TTL expiry of a user's ephemeral state.
func (f *fakeHoldStore) expire(userID, showtimeID uint64) {
	h, ok := f.holds[key{showtimeID, userID}]
	if ok {
		for _, seatID := range h.SeatIDs {
			k := key{showtimeID, seatID}
			if f.claims[k] == userID {
				delete(f.claims, k)
			}
		}
	}
	delete(f.holds, key{showtimeID, userID})
}

type fakeSessionStore struct {
	sessions map[key]*model.OrderSession // (showtime, user)
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[key]*model.OrderSession{}}
}

func (f *fakeSessionStore) Get(_ context.Context, userID, showtimeID uint64) (*model.OrderSession, error) {
	s, ok := f.sessions[key{showtimeID, userID}]
	if !ok {
		return nil, ErrOrderSessionNotFound
	}
	cp := *s
	cp.SeatIDs = append([]uint64(nil), s.SeatIDs...)
	cp.Combos = append([]model.ComboLine(nil), s.Combos...)
	return &cp, nil
}

func (f *fakeSessionStore) Put(_ context.Context, s *model.OrderSession, _ time.Duration) error {
	cp := *s
	cp.SeatIDs = append([]uint64(nil), s.SeatIDs...)
	cp.Combos = append([]model.ComboLine(nil), s.Combos...)
	f.sessions[key{s.ShowtimeID, s.UserID}] = &cp
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, userID, showtimeID uint64) error {
	delete(f.sessions, key{showtimeID, userID})
	return nil
}

type fakeConcessionCatalog struct {
	items map[uint64]model.Concession
}

func (f *fakeConcessionCatalog) GetActive(_ context.Context, id uint64) (*model.Concession, error) {
	c, ok := f.items[id]
	if !ok || !c.IsActive {
		return nil, ErrConcessionNotFound
	}
	cp := c
	return &cp, nil
}

type fakeOrderStore struct {
	nextID  uint64
	created []*model.Order
	err     error
}

func (f *fakeOrderStore) CreateFromSession(_ context.Context, sess *model.OrderSession) (*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	o := &model.Order{
		ID:         f.nextID,
		PublicCode: "TEST",
		UserID:     sess.UserID,
		ShowtimeID: sess.ShowtimeID,
		TotalCents: sess.TotalCents,
		Status:     model.OrderPending,
	}
	f.created = append(f.created, o)
	return o, nil
}

type fakePublisher struct {
	events []uint64 // order ids
}

func (f *fakePublisher) OrderConfirmed(_ context.Context, o *model.Order, _ []uint64) error {
	f.events = append(f.events, o.ID)
	return nil
}

type fakeShowtimeStore struct {
	nextID    uint64
	showtimes map[uint64]*model.Showtime
}

func newFakeShowtimeStore() *fakeShowtimeStore {
	return &fakeShowtimeStore{showtimes: map[uint64]*model.Showtime{}}
}

func (f *fakeShowtimeStore) Get(_ context.Context, id uint64) (*model.Showtime, error) {
	st, ok := f.showtimes[id]
	if !ok {
		return nil, ErrShowtimeNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeShowtimeStore) Create(_ context.Context, st *model.Showtime) error {
	f.nextID++
	st.ID = f.nextID
	cp := *st
	f.showtimes[st.ID] = &cp
	return nil
}

func (f *fakeShowtimeStore) FindOverlapping(_ context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error) {
	var out []model.Showtime
	for _, st := range f.showtimes {
		if st.RoomID != roomID || st.ID == excludeID || st.Status == model.ShowtimeCancelled {
			continue
		}
		if !(st.EndsAt.Before(start) || st.EndsAt.Equal(start) || st.StartsAt.After(end) || st.StartsAt.Equal(end)) {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (f *fakeShowtimeStore) UpdateSchedule(_ context.Context, id uint64, start, end time.Time) error {
	st, ok := f.showtimes[id]
	if !ok {
		return ErrShowtimeNotFound
	}
	st.StartsAt = start
	st.EndsAt = end
	return nil
}

type fakeSeatCatalog struct {
	rooms map[uint64]model.Room
	seats map[uint64][]model.Seat // by room
}

func (f *fakeSeatCatalog) Room(_ context.Context, roomID uint64) (*model.Room, error) {
	r, ok := f.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := r
	return &cp, nil
}

func (f *fakeSeatCatalog) ListNonBlocked(_ context.Context, roomID uint64) ([]model.Seat, error) {
	var out []model.Seat
	for _, s := range f.seats[roomID] {
		if !s.IsBlocked {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeMovieCatalog struct {
	movies map[uint64]model.Movie
}

func (f *fakeMovieCatalog) Movie(_ context.Context, id uint64) (*model.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	cp := m
	return &cp, nil
}
