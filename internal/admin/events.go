package admin

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const StatusChangedQueue = "entry.status_changed"

// EventPublisher delivers review events. Callers treat failures as
// non-fatal.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

// RabbitPublisher opens a connection per publish.
type RabbitPublisher struct {
	URL string
}

func (p *RabbitPublisher) Publish(ctx context.Context, queue string, payload any) error {
	conn, err := amqp.Dial(p.URL)
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

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// NewPublisher returns nil when no broker is configured.
func NewPublisher(url string) EventPublisher {
	if url == "" {
		return nil
	}
	return &RabbitPublisher{URL: url}
}
