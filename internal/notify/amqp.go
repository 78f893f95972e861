package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"fleetconsole/internal/domain/models"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPSource is the background channel: notifications queued while the
// console was not connected are drained from a durable queue.
type AMQPSource struct {
	URL   string
	Queue string
}

func (a *AMQPSource) Name() string { return "amqp" }

func (a *AMQPSource) Run(ctx context.Context, sink *Sink) error {
	conn, err := amqp091.Dial(a.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		a.Queue,
		true,  // durable
		false, // auto-deleted
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", a.Queue, err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "fleetconsole", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", a.Queue, err)
	}
	return consume(ctx, deliveries, sink, a.Name())
}

// acknowledger is the part of amqp091.Delivery consume needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func consume(ctx context.Context, deliveries <-chan amqp091.Delivery, sink *Sink, source string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			handleDelivery(d.Body, &d, sink, source)
		}
	}
}

func handleDelivery(body []byte, ack acknowledger, sink *Sink, source string) {
	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		// malformed payloads would be redelivered forever
		_ = ack.Nack(false, false)
		return
	}
	sink.Push(source, n)
	_ = ack.Ack(false)
}
