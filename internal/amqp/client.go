package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"dompet/internal/core"
	"dompet/internal/router"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxRetries     = 3
	prefetchCount  = 10
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Queues names the queues bound to the exchange. Each queue uses its own
// name as routing key. Empty names are skipped.
type Queues struct {
	Inbound  string
	Outbound string
	Ledger   string
}

func (q Queues) all() []string {
	var out []string
	for _, name := range []string{q.Inbound, q.Outbound, q.Ledger} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

type Client struct {
	url          string
	exchangeName string
	queues       Queues

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName string, queues Queues) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queues:       queues,
	}
	if _, err := client.ensureChannel(); err != nil {
		return nil, err
	}
	return client, nil
}

// ensureChannel returns the open channel, dialing again when the
// connection was lost.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn, c.channel = nil, nil
	}

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(channel); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	c.conn, c.channel = conn, channel
	return channel, nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range c.queues.all() {
		if _, err := ch.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return ch.Qos(prefetchCount, 0, false)
}

// Circuit breaker

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// publish sends body to routingKey, redialing with backoff on connection
// errors.
func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: %w", routingKey, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		ch, err := c.ensureChannel()
		if err == nil {
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err = ch.PublishWithContext(
				pubCtx,
				c.exchangeName, // exchange
				routingKey,     // routing key
				false,          // mandatory
				false,          // immediate
				amqp091.Publishing{
					ContentType:  "application/json",
					DeliveryMode: amqp091.Persistent,
					Timestamp:    time.Now(),
					Body:         body,
				},
			)
			cancel()
		}
		if err == nil {
			c.recordSuccess()
			return nil
		}

		lastErr = err
		c.recordFailure()
		if !isConnectionError(err) {
			break
		}
		slog.WarnContext(ctx, "AMQP publish failed, retrying",
			"error", err,
			"attempt", attempt+1,
			"routing_key", routingKey)
	}
	return fmt.Errorf("publish message: %w", lastErr)
}

// Send publishes a chat reply on the outbound queue.
func (c *Client) Send(ctx context.Context, conversationID, text string) error {
	body, err := NewOutboundMessage(conversationID, text).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queues.Outbound, body); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Published reply", "conversation_id", conversationID, "queue", c.queues.Outbound)
	return nil
}

// PublishLedgerRecorded announces a persisted ledger entry.
func (c *Client) PublishLedgerRecorded(ctx context.Context, e core.LedgerEntry, category string) error {
	body, err := NewLedgerRecordedMessage(e, category).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queues.Ledger, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published ledger recorded message",
		"entry_id", e.ID,
		"exchange", c.exchangeName,
		"queue", c.queues.Ledger)
	return nil
}

// ConsumeMessages feeds inbound chat messages to handler. A failed message
// is dropped rather than requeued, since its commands may already have run.
func (c *Client) ConsumeMessages(ctx context.Context, handler func(context.Context, router.Message) error) error {
	return c.consume(ctx, c.queues.Inbound, false, func(ctx context.Context, body []byte) (string, error) {
		msg, err := InboundMessageFromJSON(body)
		if err != nil {
			return "", errDecode{err}
		}
		return msg.ID, handler(ctx, msg)
	})
}

// ConsumeLedgerRecorded feeds ledger events to handler. Failed events are
// requeued.
func (c *Client) ConsumeLedgerRecorded(ctx context.Context, handler func(context.Context, *LedgerRecordedMessage) error) error {
	return c.consume(ctx, c.queues.Ledger, true, func(ctx context.Context, body []byte) (string, error) {
		msg, err := LedgerRecordedMessageFromJSON(body)
		if err != nil {
			return "", errDecode{err}
		}
		return fmt.Sprint(msg.ID), handler(ctx, msg)
	})
}

type errDecode struct{ err error }

func (e errDecode) Error() string { return "decode message: " + e.err.Error() }
func (e errDecode) Unwrap() error { return e.err }

func (c *Client) consume(ctx context.Context, queue string, requeue bool, handle func(context.Context, []byte) (string, error)) error {
	for attempt := 0; ; attempt++ {
		ch, err := c.ensureChannel()
		if err != nil {
			slog.WarnContext(ctx, "AMQP connection unavailable", "error", err, "queue", queue)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(exponentialBackoff(attempt)):
				continue
			}
		}

		msgs, err := ch.Consume(
			queue, // queue
			"",    // consumer
			false, // auto-ack (we want manual ack)
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("start consuming %s: %w", queue, err)
		}
		slog.InfoContext(ctx, "Started consuming", "queue", queue)
		attempt = 0

		if err := c.drain(ctx, msgs, requeue, handle); err != nil {
			return err
		}
		slog.WarnContext(ctx, "Delivery channel closed, reconnecting", "queue", queue)
	}
}

// drain handles deliveries until msgs closes (nil) or ctx ends.
func (c *Client) drain(ctx context.Context, msgs <-chan amqp091.Delivery, requeue bool, handle func(context.Context, []byte) (string, error)) error {
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return nil
			}
			id, err := handle(ctx, delivery.Body)
			var decodeErr errDecode
			switch {
			case errors.As(err, &decodeErr):
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
			case err != nil:
				slog.ErrorContext(ctx, "Failed to handle message", "error", err, "id", id, "requeue", requeue)
				delivery.Nack(false, requeue)
			default:
				delivery.Ack(false)
				slog.DebugContext(ctx, "Message processed", "id", id)
			}
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
