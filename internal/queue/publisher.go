package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cinetix/booking-engine/internal/model"
)

// Publisher emits domain events to RabbitMQ.  Errors are logged and
// returned so callers can ignore failures without interrupting the
// main request flow.
type Publisher struct{}

// NewPublisher returns a publisher.  Connections are dialed per
// publish; checkout volume is low enough that robustness beats a
// long-lived channel here.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// OrderConfirmed publishes an OrderConfirmedEvent to the
// order.confirmed queue.  Messages are marked persistent.
func (p *Publisher) OrderConfirmed(ctx context.Context, o *model.Order, seatIDs []uint64) error {
	conn, err := amqp.Dial(brokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	ev := OrderConfirmedEvent{
		OrderID:     o.ID,
		PublicCode:  o.PublicCode,
		UserID:      o.UserID,
		ShowtimeID:  o.ShowtimeID,
		SeatIDs:     seatIDs,
		TotalCents:  o.TotalCents,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", orderQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
