package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/desk-reservation/internal/booking"
	"github.com/iliyamo/desk-reservation/internal/config"
)

// Publisher sends reservation events to a durable queue.  The broker
// connection is opened on first use and reopened after a failure, so a
// broker outage only costs the events published while it lasts.
type Publisher struct {
	url   string
	queue string

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	downUntil time.Time // no dial attempts before this after a failure
	now       func() time.Time
}

const (
	dialTimeout  = 2 * time.Second
	dialCooldown = 10 * time.Second
)

// errBrokerDown is returned while the publisher waits out dialCooldown.
var errBrokerDown = errors.New("broker unavailable")

// NewPublisher does not dial; the first Publish does.
func NewPublisher(cfg config.QueueConfig) *Publisher {
	return &Publisher{url: cfg.URL, queue: cfg.Queue, now: time.Now}
}

// Publish implements booking.EventPublisher.  Messages are persistent.
func (p *Publisher) Publish(ctx context.Context, ev booking.Event) error {
	body, err := json.Marshal(FromBookingEvent(ev))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		p.reset()
		return err
	}
	return nil
}

// channel returns the open channel, dialing when needed.  Callers hold mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if p.now().Before(p.downUntil) {
		return nil, errBrokerDown
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		p.downUntil = p.now().Add(dialCooldown)
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declare(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
