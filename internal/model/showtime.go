package model

import "time"

// Showtime status values.
const (
	ShowtimeScheduled = "SCHEDULED"
	ShowtimeCancelled = "CANCELLED"
	ShowtimeFinished  = "FINISHED"
)

// Showtime represents a scheduled screening of a movie in a
// particular room.  Two showtimes in the same room must never have
// overlapping [StartsAt, EndsAt) intervals, and the interval must be
// long enough to fit the movie's duration.
//
// Fields:
//  ID             – primary key identifier.
//  RoomID         – room where the screening takes place.
//  MovieID        – movie being screened (catalog metadata is external).
//  StartsAt       – when the screening begins (UTC).
//  EndsAt         – when the screening ends (UTC, exclusive).
//  BasePriceCents – default per-seat price in cents.
//  Status         – SCHEDULED, CANCELLED or FINISHED.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Showtime struct {
	ID             uint64    // showtimes.id
	RoomID         uint64    // showtimes.room_id
	MovieID        uint64    // showtimes.movie_id
	StartsAt       time.Time // showtimes.starts_at
	EndsAt         time.Time // showtimes.ends_at
	BasePriceCents uint32    // showtimes.base_price_cents
	Status         string    // showtimes.status
	CreatedAt      time.Time // showtimes.created_at
	UpdatedAt      time.Time // showtimes.updated_at
}
