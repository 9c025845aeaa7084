package repository

import (
	"context"
	"database/sql"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

// MovieRepository reads the movie catalog entries the scheduler needs
// to validate showtime length.
type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Movie fetches a movie by id.
func (r *MovieRepository) Movie(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT id, title, duration_min FROM movies WHERE id = ?`
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.DurationMin)
	if err == sql.ErrNoRows {
		return nil, booking.ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
