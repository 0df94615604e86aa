package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bookme/auth-service/internal/application/auth"
)

const (
	DefaultExchange = "bookme.notifications"

	routingOtpIssued    = "auth.otp.issued"
	routingUserVerified = "auth.user.verified"

	// Window to wait for the broker's Return/Confirm after a publish.
	confirmWait = 2 * time.Second
)

// Publisher emits notification events to a durable topic exchange in confirm
// mode. The email service binds queues on the routing keys above and renders
// the actual mail; this service never speaks SMTP.
type Publisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return
}

func NewPublisher(url string) (*Publisher, error) {
	p := &Publisher{url: url, exchange: DefaultExchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) SetExchange(name string) {
	if name == "" {
		return
	}
	p.mu.Lock()
	p.exchange = name
	p.mu.Unlock()
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardown()
	return nil
}

func (p *Publisher) PublishOtpIssued(ctx context.Context, evt auth.OtpIssuedEvent) error {
	return p.publishJSON(ctx, routingOtpIssued, evt)
}

func (p *Publisher) PublishWelcome(ctx context.Context, evt auth.WelcomeEvent) error {
	return p.publishJSON(ctx, routingUserVerified, evt)
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	fail := func(step string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%s: %w", step, err)
	}

	// Idempotent: durable topic exchange shared with the consumers.
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("exchange declare", err)
	}
	if err := ch.Confirm(false); err != nil {
		return fail("confirm mode", err)
	}

	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returns = ch.NotifyReturn(make(chan amqp.Return, 1))
	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) ensureChannel() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return nil
	}
	return p.connect()
}

func (p *Publisher) teardown() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// drainStale discards confirms/returns left over from a previous publish so
// they cannot be attributed to the current one.
func (p *Publisher) drainStale() {
	for {
		select {
		case <-p.confirms:
		case <-p.returns:
		default:
			return
		}
	}
}

func unroutable(key string, ret amqp.Return) error {
	return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", key, ret.ReplyCode, ret.ReplyText)
}

func (p *Publisher) publishJSON(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, confirmWait)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}
	p.drainStale()

	err = p.ch.PublishWithContext(ctx, p.exchange, key,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		p.teardown()
		return fmt.Errorf("publish: %w", err)
	}

	select {
	case ret := <-p.returns:
		return unroutable(key, ret)

	case conf := <-p.confirms:
		// A Return for a mandatory publish normally precedes the Ack, but
		// both channels can be ready at once.
		select {
		case ret := <-p.returns:
			return unroutable(key, ret)
		default:
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack: key=%s tag=%d", key, conf.DeliveryTag)
		}
		return nil

	case <-time.After(confirmWait):
		return fmt.Errorf("rabbitmq confirm timeout: key=%s", key)

	case <-ctx.Done():
		return ctx.Err()
	}
}
