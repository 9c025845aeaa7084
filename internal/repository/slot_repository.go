package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cinetix/booking-engine/internal/model"
)

// SlotRepository persists the per-showtime seat inventory.  The status
// column is the durable side of the slot state machine; every
// transition goes through a conditional UPDATE so concurrent writers
// are arbitrated by the database, not by application locks.
type SlotRepository struct {
	db *sql.DB
}

func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// CreateBulk inserts slots in a single multi-row statement.  Called
// once per showtime at scheduling time.
func (r *SlotRepository) CreateBulk(ctx context.Context, slots []model.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO seat_showtime_slots (showtime_id, seat_id, status, price_cents) VALUES `)
	args := make([]interface{}, 0, len(slots)*4)
	for i, s := range slots {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, s.ShowtimeID, s.SeatID, s.Status, s.PriceCents)
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// Statuses returns the slot status per seat for the showtime.  Seats
// without a slot are simply absent from the result.
func (r *SlotRepository) Statuses(ctx context.Context, showtimeID uint64, seatIDs []uint64) (map[uint64]string, error) {
	if len(seatIDs) == 0 {
		return map[uint64]string{}, nil
	}
	q := `SELECT seat_id, status FROM seat_showtime_slots
	      WHERE showtime_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showtimeID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]string, len(seatIDs))
	for rows.Next() {
		var seatID uint64
		var status string
		if err := rows.Scan(&seatID, &status); err != nil {
			return nil, err
		}
		out[seatID] = status
	}
	return out, rows.Err()
}

// ListByShowtime returns every slot of a showtime ordered by seat.
func (r *SlotRepository) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Slot, error) {
	const q = `SELECT id, showtime_id, seat_id, status, price_cents, created_at, updated_at
	           FROM seat_showtime_slots WHERE showtime_id = ? ORDER BY seat_id`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Slot
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.ID, &s.ShowtimeID, &s.SeatID, &s.Status,
			&s.PriceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CompareAndSet transitions one slot from expected to next.  The
// affected-row count decides the race: zero rows means another writer
// moved the slot first.
func (r *SlotRepository) CompareAndSet(ctx context.Context, showtimeID, seatID uint64, expected, next string) (bool, error) {
	const q = `UPDATE seat_showtime_slots SET status = ?
	           WHERE showtime_id = ? AND seat_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, next, showtimeID, seatID, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReleaseHeld flips the given seats from HELD back to AVAILABLE,
// leaving seats in any other state untouched.
func (r *SlotRepository) ReleaseHeld(ctx context.Context, showtimeID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seat_showtime_slots SET status = 'AVAILABLE'
	      WHERE showtime_id = ? AND status = 'HELD' AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showtimeID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// PricesBySeat returns the slot price per seat.
func (r *SlotRepository) PricesBySeat(ctx context.Context, showtimeID uint64, seatIDs []uint64) (map[uint64]uint32, error) {
	if len(seatIDs) == 0 {
		return map[uint64]uint32{}, nil
	}
	q := `SELECT seat_id, price_cents FROM seat_showtime_slots
	      WHERE showtime_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showtimeID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]uint32, len(seatIDs))
	for rows.Next() {
		var seatID uint64
		var price uint32
		if err := rows.Scan(&seatID, &price); err != nil {
			return nil, err
		}
		out[seatID] = price
	}
	return out, rows.Err()
}

// CountNonAvailable counts slots of the showtime that are HELD or
// BOOKED.  The reschedule guard refuses to move a showtime while this
// is non-zero.
func (r *SlotRepository) CountNonAvailable(ctx context.Context, showtimeID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM seat_showtime_slots
	           WHERE showtime_id = ? AND status <> 'AVAILABLE'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, showtimeID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// PurgeAvailable deletes the showtime's never-sold AVAILABLE slots.
// Used by the past-showtime purge once the screening has elapsed.
func (r *SlotRepository) PurgeAvailable(ctx context.Context, showtimeID uint64) (int64, error) {
	const q = `DELETE FROM seat_showtime_slots WHERE showtime_id = ? AND status = 'AVAILABLE'`
	res, err := r.db.ExecContext(ctx, q, showtimeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// placeholders builds "?, ?, ..., ?" for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
