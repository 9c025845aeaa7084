package model

import "time"

// Room represents a screening room in a theater.  Rooms own the
// physical seat layout; showtimes are scheduled against a room and
// seat inventories are seeded from its non-blocked seats.
//
// Fields:
//  ID        – primary key identifier.
//  TheaterID – theater to which this room belongs.
//  Name      – room name, unique per theater.
//  IsActive  – whether the room accepts new showtimes.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64    // rooms.id
	TheaterID uint64    // rooms.theater_id
	Name      string    // rooms.name
	IsActive  bool      // rooms.is_active
	CreatedAt time.Time // rooms.created_at
	UpdatedAt time.Time // rooms.updated_at
}

// Seat describes a physical seat in a room, independent of any
// showtime.  Seats are identified by their room, row index and
// column index.  A blocked seat is permanently out of service and
// never receives a per-showtime slot.
//
// Fields:
//  ID         – primary key identifier.
//  RoomID     – room to which this seat belongs.
//  RowIndex   – zero-based row position.
//  ColIndex   – zero-based column position.
//  SeatTypeID – seat category (standard, VIP, accessible).
//  IsBlocked  – permanently out of service.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64    // seats.id
	RoomID     uint64    // seats.room_id
	RowIndex   uint32    // seats.row_index
	ColIndex   uint32    // seats.col_index
	SeatTypeID uint64    // seats.seat_type_id
	IsBlocked  bool      // seats.is_blocked
	CreatedAt  time.Time // seats.created_at
	UpdatedAt  time.Time // seats.updated_at
}
