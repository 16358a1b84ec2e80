package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/training-centre-booking/internal/queue"
)

// AMQPPublisher publishes booking events to a durable RabbitMQ queue
// through the default exchange. It dials per publish, so a broker outage
// only affects the events sent while it lasts.
type AMQPPublisher struct {
	URL   string
	Queue string
}

func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	if queueName == "" {
		queueName = queue.DefaultQueue
	}
	return &AMQPPublisher{URL: url, Queue: queueName}
}

// Publish sends ev as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// NopPublisher drops every event. It stands in when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

// publishAll sends events after a commit. Failures are logged and never
// reach the caller: the booking is already durable.
func publishAll(ctx context.Context, pub EventPublisher, events []queue.BookingEvent) {
	if pub == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	for _, ev := range events {
		if err := pub.Publish(ctx, ev); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event":          ev.Type,
				"reservation_id": ev.ReservationID,
			}).Warn("publish booking event failed")
		}
	}
}
