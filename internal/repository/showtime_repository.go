package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

// ShowtimeRepository persists showtimes and answers the overlap
// queries the scheduling guard relies on.
type ShowtimeRepository struct {
	db *sql.DB
}

func NewShowtimeRepository(db *sql.DB) *ShowtimeRepository {
	return &ShowtimeRepository{db: db}
}

// Get fetches a showtime by id.
func (r *ShowtimeRepository) Get(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, room_id, movie_id, starts_at, ends_at, base_price_cents, status, created_at, updated_at
	           FROM showtimes WHERE id = ?`
	var st model.Showtime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&st.ID, &st.RoomID, &st.MovieID, &st.StartsAt, &st.EndsAt,
		&st.BasePriceCents, &st.Status, &st.CreatedAt, &st.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, booking.ErrShowtimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Create inserts a showtime and backfills its id.
func (r *ShowtimeRepository) Create(ctx context.Context, st *model.Showtime) error {
	const q = `INSERT INTO showtimes (room_id, movie_id, starts_at, ends_at, base_price_cents, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, st.RoomID, st.MovieID, st.StartsAt, st.EndsAt, st.BasePriceCents, st.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	return nil
}

// FindOverlapping returns showtimes in the room whose [starts_at,
// ends_at) interval intersects the given one.  Two intervals overlap
// unless one ends at or before the other begins.  excludeID skips a
// showtime, used when a reschedule checks against everything but
// itself; zero skips nothing.
func (r *ShowtimeRepository) FindOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error) {
	const q = `SELECT id, room_id, movie_id, starts_at, ends_at, base_price_cents, status, created_at, updated_at
	           FROM showtimes
	           WHERE room_id = ?
	             AND status <> 'CANCELLED'
	             AND id <> ?
	             AND NOT (ends_at <= ? OR starts_at >= ?)`
	rows, err := r.db.QueryContext(ctx, q, roomID, excludeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Showtime
	for rows.Next() {
		var st model.Showtime
		if err := rows.Scan(&st.ID, &st.RoomID, &st.MovieID, &st.StartsAt, &st.EndsAt,
			&st.BasePriceCents, &st.Status, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpdateSchedule moves a showtime to a new interval.
func (r *ShowtimeRepository) UpdateSchedule(ctx context.Context, id uint64, start, end time.Time) error {
	const q = `UPDATE showtimes SET starts_at = ?, ends_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, start, end, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrShowtimeNotFound
	}
	return nil
}

// ListEndedBefore returns ids of showtimes that finished before the
// cutoff and have not yet been marked FINISHED.  The purge sweep walks
// this list.
func (r *ShowtimeRepository) ListEndedBefore(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	const q = `SELECT id FROM showtimes WHERE ends_at < ? AND status = 'SCHEDULED'`
	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkFinished transitions a showtime to FINISHED after its purge.
func (r *ShowtimeRepository) MarkFinished(ctx context.Context, id uint64) error {
	const q = `UPDATE showtimes SET status = 'FINISHED' WHERE id = ? AND status = 'SCHEDULED'`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
