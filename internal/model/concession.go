package model

// Concession is a sellable snack/combo item.  The catalog that
// manages concessions is external; the engine reads price, stock and
// active status when validating cart line items.
type Concession struct {
	ID         uint64 // concessions.id
	Name       string // concessions.name
	PriceCents uint32 // concessions.price_cents
	Stock      uint32 // concessions.stock
	IsActive   bool   // concessions.is_active
}

// Movie carries the minimal catalog metadata the scheduling guard
// needs: the runtime used to validate that a showtime interval can
// physically fit the screening.
type Movie struct {
	ID          uint64 // movies.id
	Title       string // movies.title
	DurationMin uint32 // movies.duration_min
}
