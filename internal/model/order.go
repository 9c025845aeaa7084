package model

import "time"

// Order status values.
const (
	OrderPending   = "PENDING"
	OrderCompleted = "COMPLETED"
	OrderCanceled  = "CANCELED"
)

// Ticket status values.  BLOCKED marks tickets set aside by an
// administrator; the past-showtime purge removes them together with
// never-sold AVAILABLE slots once the showtime has elapsed.
const (
	TicketBooked  = "BOOKED"
	TicketBlocked = "BLOCKED"
)

// Payment status values.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

// Order is the durable record created at checkout.  An order owns its
// tickets and payments for cascade-delete purposes.
//
// Fields:
//  ID         – primary key identifier.
//  PublicCode – short public reference shown to the customer.
//  UserID     – purchasing user.
//  ShowtimeID – showtime the tickets are for.
//  TotalCents – total charged in cents.
//  Status     – PENDING, COMPLETED or CANCELED.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Order struct {
	ID         uint64    // orders.id
	PublicCode string    // orders.public_code
	UserID     uint64    // orders.user_id
	ShowtimeID uint64    // orders.showtime_id
	TotalCents uint32    // orders.total_cents
	Status     string    // orders.status
	CreatedAt  time.Time // orders.created_at
	UpdatedAt  time.Time // orders.updated_at
}

// Ticket captures one booked slot with a price snapshot taken at
// checkout.  A ticket references exactly one slot it consumed.
//
// Fields:
//  ID         – primary key identifier.
//  OrderID    – owning order.
//  SlotID     – the slot this ticket consumed.
//  SeatID     – seat snapshot, denormalized for check-in.
//  ShowtimeID – showtime snapshot.
//  PriceCents – price snapshot in cents.
//  Status     – BOOKED or BLOCKED.
//  CreatedAt  – creation timestamp.
type Ticket struct {
	ID         uint64    // tickets.id
	OrderID    uint64    // tickets.order_id
	SlotID     uint64    // tickets.slot_id
	SeatID     uint64    // tickets.seat_id
	ShowtimeID uint64    // tickets.showtime_id
	PriceCents uint32    // tickets.price_cents
	Status     string    // tickets.status
	CreatedAt  time.Time // tickets.created_at
}

// Payment records one payment attempt against an order.  The payment
// gateway protocol itself is external; the engine only tracks the
// lifecycle state it must honor.
//
// Fields:
//  ID          – primary key identifier.
//  OrderID     – owning order.
//  AmountCents – amount in cents.
//  Status      – PENDING, PAID or FAILED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Payment struct {
	ID          uint64    // payments.id
	OrderID     uint64    // payments.order_id
	AmountCents uint32    // payments.amount_cents
	Status      string    // payments.status
	CreatedAt   time.Time // payments.created_at
	UpdatedAt   time.Time // payments.updated_at
}
