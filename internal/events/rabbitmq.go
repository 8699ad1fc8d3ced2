package events

import (
	"context"
	"encoding/json"
	"time"

	"anonpair/backend/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the part of *amqp.Channel used by RabbitSink.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitSink publishes persistent JSON messages to a durable queue.
type RabbitSink struct {
	conn  *amqp.Connection
	ch    AMQPChannel
	queue string
}

// NewRabbitSink dials url and declares queue.
func NewRabbitSink(url, queue string) (*RabbitSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &RabbitSink{conn: conn, ch: ch, queue: queue}, nil
}

// NewRabbitSinkWithChannel wraps an already configured channel.
func NewRabbitSinkWithChannel(ch AMQPChannel, queue string) *RabbitSink {
	return &RabbitSink{ch: ch, queue: queue}
}

func (s *RabbitSink) Name() string { return "rabbitmq" }

func (s *RabbitSink) Deliver(ctx context.Context, ev models.LifecycleEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.ch.PublishWithContext(ctx,
		"",      // default exchange
		s.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Type:         string(ev.Type),
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

func (s *RabbitSink) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
