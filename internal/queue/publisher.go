package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AuditQueueName is the durable queue carrying AuditEvent messages.
const AuditQueueName = "openmic.audit"

// Sink accepts audit events.  Implementations must be safe for
// concurrent use.
type Sink interface {
	Publish(ctx context.Context, ev AuditEvent) error
}

// NopSink discards every event.  It is used when no broker is configured.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(context.Context, AuditEvent) error { return nil }

// Publisher sends audit events to RabbitMQ.  Each Publish dials, declares
// the queue and publishes a persistent message; volume is a handful of
// messages per signup, so no connection is held open between calls.
type Publisher struct {
	url   string
	queue string
	log   zerolog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, queue: AuditQueueName, log: log}
}

// Publish marshals ev and publishes it to the audit queue.  Errors are
// logged and returned so the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev AuditEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Kind),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
