// Package repository contains the MySQL persistence layer.  Each
// repository owns one aggregate's SQL and returns the booking
// package's sentinel errors so handlers and services never see
// database/sql details.
package repository

import (
	"context"
	"database/sql"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

// RoomRepository reads the room and seat layout.  The engine only
// consumes the layout when seeding slot inventories; rooms and seats
// are administered by the catalog side of the system.
type RoomRepository struct {
	db *sql.DB
}

// NewRoomRepository returns a repository bound to the given handle.
func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Room fetches a room by id.
func (r *RoomRepository) Room(ctx context.Context, roomID uint64) (*model.Room, error) {
	const q = `SELECT id, theater_id, name, is_active, created_at, updated_at
	           FROM rooms WHERE id = ?`
	var room model.Room
	err := r.db.QueryRowContext(ctx, q, roomID).Scan(
		&room.ID, &room.TheaterID, &room.Name, &room.IsActive,
		&room.CreatedAt, &room.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, booking.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListNonBlocked returns the room's seats that can be sold, ordered by
// row and column.
func (r *RoomRepository) ListNonBlocked(ctx context.Context, roomID uint64) ([]model.Seat, error) {
	const q = `SELECT id, room_id, row_index, col_index, seat_type_id, is_blocked, created_at, updated_at
	           FROM seats
	           WHERE room_id = ? AND is_blocked = 0
	           ORDER BY row_index, col_index`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.RoomID, &s.RowIndex, &s.ColIndex,
			&s.SeatTypeID, &s.IsBlocked, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
