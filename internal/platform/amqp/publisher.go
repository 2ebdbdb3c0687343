package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rabbitmq/amqp091-go"

	"github.com/tasktracker/reminder-worker/internal/events"
	"github.com/tasktracker/reminder-worker/internal/redact"
)

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("amqp publisher is closed")

// Channel is the subset of *amqp091.Channel used by the publisher.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher forwards events to an exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  Channel
	exchange string
	closed   bool
	logger   *slog.Logger
}

// Compile-time check that Publisher implements events.EventHandler.
var _ events.EventHandler = (*Publisher)(nil)

// Dial connects to the broker, opens a channel and declares the exchange.
func Dial(url, exchange string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ at %s: %s", redact.URL(url), redact.Error(err))
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := NewPublisher(ch, exchange, log)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher declares a durable topic exchange on ch and returns a
// publisher for it.
func NewPublisher(ch Channel, exchange string, log *slog.Logger) (*Publisher, error) {
	if ch == nil {
		return nil, errors.New("amqp channel cannot be nil")
	}
	if exchange == "" {
		return nil, errors.New("amqp exchange cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   log.With(slog.String("component", "amqp_publisher"), slog.String("exchange", exchange)),
	}, nil
}

// HandleEvent publishes the event as a persistent JSON message.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("event_id", event.ID.String()),
		slog.String("routing_key", event.Type))
	return nil
}

// Close closes the channel and, when owned, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.channel.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
