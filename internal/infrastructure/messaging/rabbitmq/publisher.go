package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

const (
	DefaultExchange = "identity.events"

	// RoutingEmailRequested is consumed by the email service.
	RoutingEmailRequested = "identity.email.requested"

	// How long to wait for the broker confirm.
	defaultConfirmWait = 2 * time.Second
)

// EmailRequested is the wire payload. ID doubles as the AMQP message id so the
// consumer can deduplicate redeliveries.
type EmailRequested struct {
	ID          string    `json:"id"`
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	RequestedAt time.Time `json:"requested_at"`
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type session struct {
	ch       publishChannel
	conn     io.Closer
	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return
	closed   func() bool
}

func (s *session) close() {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// Mailer publishes outbound email to a topic exchange in confirm mode. Send
// returns only after the broker acked a routable message.
type Mailer struct {
	lg       zerolog.Logger
	exchange string
	wait     time.Duration
	dial     func() (*session, error)
	now      func() time.Time

	mu sync.Mutex
	s  *session
}

func NewMailer(url, exchange string, lg zerolog.Logger) (*Mailer, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	m := newMailer(exchange, func() (*session, error) { return dialAMQP(url, exchange) }, lg)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureConnected(); err != nil {
		return nil, err
	}
	return m, nil
}

func newMailer(exchange string, dial func() (*session, error), lg zerolog.Logger) *Mailer {
	return &Mailer{
		lg:       lg.With().Str("component", "rabbitmq_mailer").Logger(),
		exchange: exchange,
		wait:     defaultConfirmWait,
		dial:     dial,
		now:      time.Now,
	}
}

func (m *Mailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s != nil {
		m.s.close()
		m.s = nil
	}
	return nil
}

func (m *Mailer) Send(ctx context.Context, msg domain.Email) error {
	evt := EmailRequested{
		ID:          uuid.NewString(),
		To:          msg.To,
		Subject:     msg.Subject,
		Body:        msg.Body,
		RequestedAt: m.now().UTC(),
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureConnected(); err != nil {
		return err
	}
	s := m.s

	// drop stale confirms/returns from an earlier timed-out publish
drain:
	for {
		select {
		case <-s.confirms:
		case <-s.returns:
		default:
			break drain
		}
	}

	if err := s.ch.PublishWithContext(ctx, m.exchange, RoutingEmailRequested,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    evt.ID,
			Timestamp:    evt.RequestedAt,
			Body:         body,
		},
	); err != nil {
		m.resetLocked()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	select {
	case ret := <-s.returns:
		return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", RoutingEmailRequested, ret.ReplyCode, ret.ReplyText)

	case conf, ok := <-s.confirms:
		if !ok {
			m.resetLocked()
			return fmt.Errorf("rabbitmq channel closed before confirm")
		}
		// A mandatory return is dispatched before its ack on the same reader.
		select {
		case ret := <-s.returns:
			return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", RoutingEmailRequested, ret.ReplyCode, ret.ReplyText)
		default:
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack: key=%s tag=%d", RoutingEmailRequested, conf.DeliveryTag)
		}
		m.lg.Debug().Str("message_id", evt.ID).Msg("email request published")
		return nil

	case <-timer.C:
		return fmt.Errorf("rabbitmq confirm timeout: key=%s", RoutingEmailRequested)

	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mailer) ensureConnected() error {
	if m.s != nil && (m.s.closed == nil || !m.s.closed()) {
		return nil
	}
	s, err := m.dial()
	if err != nil {
		return err
	}
	m.s = s
	return nil
}

func (m *Mailer) resetLocked() {
	if m.s != nil {
		m.s.close()
		m.s = nil
	}
}

func dialAMQP(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("confirm mode: %w", err)
	}

	return &session{
		ch:       ch,
		conn:     conn,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		returns:  ch.NotifyReturn(make(chan amqp.Return, 1)),
		closed:   func() bool { return conn.IsClosed() || ch.IsClosed() },
	}, nil
}
