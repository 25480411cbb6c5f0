package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"happy-sandwich/models"
)

// OrderEvent is the JSON body published for each order event.
type OrderEvent struct {
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Order      models.Order    `json:"order"`
	Summary    *models.Summary `json:"summary,omitempty"`
	Text       string          `json:"text"`
}

// amqpDialTimeout bounds a dial when the send context carries no deadline.
const amqpDialTimeout = 5 * time.Second

// AMQPPublisher publishes order events to a durable fanout exchange. It dials
// lazily and redials when the connection has dropped. Dial, handshake and the
// wait for the connection slot are all bounded by the send context.
type AMQPPublisher struct {
	url      string
	exchange string

	// sem holds the connection slot; a buffered channel so waiting respects ctx.
	sem     chan struct{}
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewAMQPPublisher(url, exchange string) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: exchange, sem: make(chan struct{}, 1)}
}

func (p *AMQPPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for amqp connection: %w", ctx.Err())
	}
}

func (p *AMQPPublisher) unlock() { <-p.sem }

func (p *AMQPPublisher) Name() string { return "amqp" }

func (p *AMQPPublisher) Send(ctx context.Context, msg Message) error {
	body, err := encodeEvent(msg, time.Now().UTC())
	if err != nil {
		return err
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()
	if err := p.connect(ctx); err != nil {
		return err
	}
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		msg.Event,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to exchange %s: %w", p.exchange, err)
	}
	return nil
}

func encodeEvent(msg Message, now time.Time) ([]byte, error) {
	body, err := json.Marshal(OrderEvent{
		Event:      msg.Event,
		OccurredAt: now,
		Order:      msg.Order,
		Summary:    msg.Summary,
		Text:       msg.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order event: %w", err)
	}
	return body, nil
}

// dialer opens the TCP connection within ctx and keeps the ctx deadline on it
// for the AMQP handshake. amqp091 clears the deadline once the connection is open.
func dialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(amqpDialTimeout)
	}
	return func(network, addr string) (net.Conn, error) {
		d := net.Dialer{Deadline: deadline}
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

// connect requires the connection slot.
func (p *AMQPPublisher) connect(ctx context.Context) error {
	if p.conn != nil && !p.conn.IsClosed() && p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	p.closeLocked()

	conn, err := amqp091.DialConfig(p.url, amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      dialer(ctx),
	})
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		p.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.conn = conn
	p.channel = ch
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPPublisher) Close() error {
	if err := p.lock(context.Background()); err != nil {
		return err
	}
	defer p.unlock()
	p.closeLocked()
	return nil
}
