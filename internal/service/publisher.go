package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher sends a domain event to a named queue.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

// AMQPPublisher publishes JSON events to durable RabbitMQ queues through the
// default exchange.  Each call opens its own connection; events are rare
// (one per activation or provisioning) so no pool is kept.
type AMQPPublisher struct {
	URL string
	Log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Log: log.Named("publisher")}
}

// Publish declares the queue (idempotent) and sends event as a persistent
// message.  Errors are logged and returned so callers may ignore them.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.Log.Error("marshal event failed", zap.String("queue", queue), zap.Error(err))
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("dial broker failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("channel open failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		p.Log.Warn("queue declare failed", zap.String("queue", queue), zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.Log.Warn("publish failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	return nil
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// publishQuietly sends an event on a detached, bounded context and never
// fails the caller.
func publishQuietly(ctx context.Context, p EventPublisher, log *zap.Logger, queue string, event any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, queue, event); err != nil {
		log.Warn("event not published", zap.String("queue", queue), zap.Error(err))
	}
}
