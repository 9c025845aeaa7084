package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

// OrderRepository owns the durable side of checkout: orders, tickets
// and payments, plus the stale-order cancellation the sweeper runs.
// Checkout is a single transaction so a crash leaves either a complete
// PENDING order or nothing at all.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateFromSession converts a session into an order with one ticket
// per seat and a PENDING payment stub, booking the slots in the same
// transaction.  Every slot must still be HELD when the transaction
// locks it; otherwise booking.ErrSlotNotHeld is returned and nothing
// is written.  Combo lines decrement concession stock; insufficient
// stock at commit time fails with booking.ErrInvalidQuantity.
func (r *OrderRepository) CreateFromSession(ctx context.Context, sess *model.OrderSession) (*model.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	// Lock the session's slots and verify every one is still HELD.
	q := `SELECT id, seat_id, price_cents FROM seat_showtime_slots
	      WHERE showtime_id = ? AND status = 'HELD' AND seat_id IN (` + placeholders(len(sess.SeatIDs)) + `)
	      FOR UPDATE`
	args := make([]interface{}, 0, len(sess.SeatIDs)+1)
	args = append(args, sess.ShowtimeID)
	for _, id := range sess.SeatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	type lockedSlot struct {
		id    uint64
		price uint32
	}
	locked := make(map[uint64]lockedSlot, len(sess.SeatIDs))
	for rows.Next() {
		var slotID, seatID uint64
		var price uint32
		if err := rows.Scan(&slotID, &seatID, &price); err != nil {
			rows.Close()
			return nil, err
		}
		locked[seatID] = lockedSlot{id: slotID, price: price}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(locked) != len(sess.SeatIDs) {
		return nil, booking.ErrSlotNotHeld
	}

	// Total is recomputed from the locked prices plus combo lines so
	// the order never trusts a stale session figure.
	var total uint32
	for _, s := range locked {
		total += s.price
	}
	for _, ln := range sess.Combos {
		total += ln.UnitPriceCents * ln.Quantity
	}

	order := &model.Order{
		PublicCode: newPublicCode(),
		UserID:     sess.UserID,
		ShowtimeID: sess.ShowtimeID,
		TotalCents: total,
		Status:     model.OrderPending,
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (public_code, user_id, showtime_id, total_cents, status) VALUES (?, ?, ?, ?, ?)`,
		order.PublicCode, order.UserID, order.ShowtimeID, order.TotalCents, order.Status)
	if err != nil {
		return nil, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	order.ID = uint64(orderID)

	for _, seatID := range sess.SeatIDs {
		s := locked[seatID]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tickets (order_id, slot_id, seat_id, showtime_id, price_cents, status) VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, s.id, seatID, sess.ShowtimeID, s.price, model.TicketBooked); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payments (order_id, amount_cents, status) VALUES (?, ?, ?)`,
		order.ID, order.TotalCents, model.PaymentPending); err != nil {
		return nil, err
	}

	for _, ln := range sess.Combos {
		res, err := tx.ExecContext(ctx,
			`UPDATE concessions SET stock = stock - ? WHERE id = ? AND stock >= ?`,
			ln.Quantity, ln.ConcessionID, ln.Quantity)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, booking.ErrInvalidQuantity
		}
	}

	for _, s := range locked {
		if _, err := tx.ExecContext(ctx,
			`UPDATE seat_showtime_slots SET status = 'BOOKED' WHERE id = ? AND status = 'HELD'`,
			s.id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return order, nil
}

// GetByID fetches an order owned by the user.
func (r *OrderRepository) GetByID(ctx context.Context, userID, orderID uint64) (*model.Order, error) {
	const q = `SELECT id, public_code, user_id, showtime_id, total_cents, status, created_at, updated_at
	           FROM orders WHERE id = ? AND user_id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, orderID, userID).Scan(
		&o.ID, &o.PublicCode, &o.UserID, &o.ShowtimeID, &o.TotalCents,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, booking.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	const q = `SELECT id, public_code, user_id, showtime_id, total_cents, status, created_at, updated_at
	           FROM orders WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.PublicCode, &o.UserID, &o.ShowtimeID,
			&o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Ticket fetches a ticket by id together with its owning order's user.
func (r *OrderRepository) Ticket(ctx context.Context, ticketID uint64) (*model.Ticket, uint64, error) {
	const q = `SELECT t.id, t.order_id, t.slot_id, t.seat_id, t.showtime_id, t.price_cents, t.status, t.created_at, o.user_id
	           FROM tickets t JOIN orders o ON o.id = t.order_id
	           WHERE t.id = ?`
	var t model.Ticket
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, ticketID).Scan(
		&t.ID, &t.OrderID, &t.SlotID, &t.SeatID, &t.ShowtimeID,
		&t.PriceCents, &t.Status, &t.CreatedAt, &ownerID,
	)
	if err == sql.ErrNoRows {
		return nil, 0, booking.ErrTicketNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return &t, ownerID, nil
}

// TicketsByOrder returns the order's tickets.
func (r *OrderRepository) TicketsByOrder(ctx context.Context, orderID uint64) ([]model.Ticket, error) {
	const q = `SELECT id, order_id, slot_id, seat_id, showtime_id, price_cents, status, created_at
	           FROM tickets WHERE order_id = ?`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.OrderID, &t.SlotID, &t.SeatID,
			&t.ShowtimeID, &t.PriceCents, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListStalePendingIDs returns ids of PENDING orders created before the
// cutoff.  The stale-order sweep cancels each one individually so a
// single bad row cannot wedge the whole pass.
func (r *OrderRepository) ListStalePendingIDs(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	const q = `SELECT id FROM orders WHERE status = 'PENDING' AND created_at < ?`
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

// CancelStale cancels one stale PENDING order: the order goes
// CANCELED, its pending payments FAILED, and the slots its tickets
// booked return to AVAILABLE, all in one transaction.  The order must
// still be PENDING; a concurrent payment completion wins the race and
// the sweep returns booking.ErrOrderNotPending.
func (r *OrderRepository) CancelStale(ctx context.Context, orderID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = 'CANCELED' WHERE id = ? AND status = 'PENDING'`, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrOrderNotPending
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = 'FAILED' WHERE order_id = ? AND status = 'PENDING'`, orderID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE seat_showtime_slots SET status = 'AVAILABLE'
		 WHERE status = 'BOOKED' AND id IN (SELECT slot_id FROM tickets WHERE order_id = ?)`, orderID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// PurgeBlockedTickets deletes the showtime's BLOCKED tickets once the
// screening has elapsed.
func (r *OrderRepository) PurgeBlockedTickets(ctx context.Context, showtimeID uint64) (int64, error) {
	const q = `DELETE FROM tickets WHERE showtime_id = ? AND status = 'BLOCKED'`
	res, err := r.db.ExecContext(ctx, q, showtimeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// newPublicCode derives a short customer-facing order reference.
func newPublicCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
