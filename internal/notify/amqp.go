package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const BookingConfirmedQueue = "booking.confirmed"

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes BookingConfirmed events to a durable queue for downstream
// consumers. A connection is opened per event; confirmations are rare.
type AMQP struct {
	url    string
	logger *slog.Logger
	open   func(url string) (channel, func() error, error)
}

func NewAMQP(url string, logger *slog.Logger) *AMQP {
	return &AMQP{
		url:    url,
		logger: logger,
		open:   dialChannel,
	}
}

func dialChannel(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	return ch, conn.Close, nil
}

func (a *AMQP) BookingConfirmed(ctx context.Context, event domain.BookingConfirmed) error {
	ch, closeConn, err := a.open(a.url)
	if err != nil {
		return err
	}
	defer func() { _ = closeConn() }()
	defer func() { _ = ch.Close() }()

	_, err = ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err = ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish booking confirmed: %w", err)
	}

	a.logger.Debug("booking confirmed event published", "queue", BookingConfirmedQueue)

	return nil
}

func (a *AMQP) String() string {
	return "amqp"
}
