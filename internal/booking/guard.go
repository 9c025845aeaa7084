package booking

import (
	"context"
	"time"

	"github.com/cinetix/booking-engine/internal/clock"
	"github.com/cinetix/booking-engine/internal/model"
)

// ShowtimeGuard validates showtime scheduling and seeds the seat
// inventory.  Two showtimes in the same room may never overlap, and a
// showtime must be long enough to fit its movie.
type ShowtimeGuard struct {
	showtimes ShowtimeStore
	seats     SeatCatalog
	movies    MovieCatalog
	slots     SlotStore
	clock     clock.Clock
}

// NewShowtimeGuard wires a guard over its stores.
func NewShowtimeGuard(showtimes ShowtimeStore, seats SeatCatalog, movies MovieCatalog, slots SlotStore, clk clock.Clock) *ShowtimeGuard {
	return &ShowtimeGuard{showtimes: showtimes, seats: seats, movies: movies, slots: slots, clock: clk}
}

// Schedule validates and creates a showtime, then materializes one
// AVAILABLE slot per non-blocked seat of the room at the base price.
// Validation failures create nothing.
func (g *ShowtimeGuard) Schedule(ctx context.Context, roomID, movieID uint64, start, end time.Time, basePriceCents uint32) (*model.Showtime, error) {
	if err := g.validateInterval(ctx, movieID, start, end); err != nil {
		return nil, err
	}
	room, err := g.seats.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, ErrRoomInactive
	}
	overlapping, err := g.showtimes.FindOverlapping(ctx, roomID, start, end, 0)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, ErrShowtimeConflict
	}

	st := &model.Showtime{
		RoomID:         roomID,
		MovieID:        movieID,
		StartsAt:       start.UTC(),
		EndsAt:         end.UTC(),
		BasePriceCents: basePriceCents,
		Status:         model.ShowtimeScheduled,
	}
	if err := g.showtimes.Create(ctx, st); err != nil {
		return nil, err
	}

	seats, err := g.seats.ListNonBlocked(ctx, roomID)
	if err != nil {
		return nil, err
	}
	slots := make([]model.Slot, 0, len(seats))
	for _, seat := range seats {
		slots = append(slots, model.Slot{
			ShowtimeID: st.ID,
			SeatID:     seat.ID,
			Status:     model.SlotAvailable,
			PriceCents: basePriceCents,
		})
	}
	if err := g.slots.CreateBulk(ctx, slots); err != nil {
		return nil, err
	}
	return st, nil
}

// Reschedule moves an existing showtime to a new interval.  The move
// is refused while any of its slots is HELD or BOOKED; the inventory
// already sold or spoken for is pinned to the published schedule.
func (g *ShowtimeGuard) Reschedule(ctx context.Context, showtimeID uint64, start, end time.Time) (*model.Showtime, error) {
	st, err := g.showtimes.Get(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if err := g.validateInterval(ctx, st.MovieID, start, end); err != nil {
		return nil, err
	}
	overlapping, err := g.showtimes.FindOverlapping(ctx, st.RoomID, start, end, showtimeID)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, ErrShowtimeConflict
	}
	taken, err := g.slots.CountNonAvailable(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, ErrShowtimeHasSales
	}
	if err := g.showtimes.UpdateSchedule(ctx, showtimeID, start.UTC(), end.UTC()); err != nil {
		return nil, err
	}
	st.StartsAt = start.UTC()
	st.EndsAt = end.UTC()
	return st, nil
}

// Showtime returns the showtime by id.
func (g *ShowtimeGuard) Showtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return g.showtimes.Get(ctx, id)
}

func (g *ShowtimeGuard) validateInterval(ctx context.Context, movieID uint64, start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidInterval
	}
	movie, err := g.movies.Movie(ctx, movieID)
	if err != nil {
		return err
	}
	if end.Sub(start) < time.Duration(movie.DurationMin)*time.Minute {
		return ErrInvalidInterval
	}
	return nil
}
