package repository

import (
	"context"
	"database/sql"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

// ConcessionRepository reads the concession catalog for cart
// validation and pricing.
type ConcessionRepository struct {
	db *sql.DB
}

func NewConcessionRepository(db *sql.DB) *ConcessionRepository {
	return &ConcessionRepository{db: db}
}

// GetActive fetches an active concession by id.  Inactive items are
// indistinguishable from missing ones.
func (r *ConcessionRepository) GetActive(ctx context.Context, id uint64) (*model.Concession, error) {
	const q = `SELECT id, name, price_cents, stock, is_active
	           FROM concessions WHERE id = ? AND is_active = 1`
	var c model.Concession
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.PriceCents, &c.Stock, &c.IsActive)
	if err == sql.ErrNoRows {
		return nil, booking.ErrConcessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
