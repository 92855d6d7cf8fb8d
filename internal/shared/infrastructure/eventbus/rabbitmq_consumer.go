package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the queue used when none is configured.
const DefaultConsumerQueueName = "homework.events.tail"

var errUnboundKey = errors.New("routing key is not bound")

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	// Bindings are exact routing keys bound when the consumer connects.
	// Keys of consumers registered later are bound as they register.
	Bindings []string
	// Transient declares an exclusive queue that is deleted when the
	// consumer disconnects.
	Transient bool
	Logger    *slog.Logger
}

// RabbitMQConsumer reads event envelopes from a queue bound to the homework
// exchange and dispatches them through a ConsumerRegistry.
//
// Deliveries are settled one at a time:
//   - handled events are acked
//   - a failed dispatch is requeued once, then dropped on redelivery
//   - envelopes that cannot be decoded, or arrive under a key the queue was
//     never bound to, are rejected without requeue
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu      sync.Mutex
	bound   map[string]struct{}
	running bool
	done    chan struct{}
}

type settlement int

const (
	settleAck settlement = iota
	settleRequeue
	settleReject
)

func (s settlement) String() string {
	switch s {
	case settleAck:
		return "ack"
	case settleRequeue:
		return "requeue"
	default:
		return "reject"
	}
}

// NewRabbitMQConsumer connects, declares the exchange and queue, and binds
// cfg.Bindings.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	c := newConsumer(cfg, registry)

	conn, ch, err := dialExchange(cfg.URL, c.exchange)
	if err != nil {
		return nil, err
	}
	durable := !cfg.Transient
	if _, err := ch.QueueDeclare(c.queue, durable, cfg.Transient, cfg.Transient, false, nil); err != nil {
		closeQuietly(conn, ch)
		return nil, fmt.Errorf("failed to declare queue %s: %w", c.queue, err)
	}
	c.conn, c.channel = conn, ch

	if err := c.bind(cfg.Bindings...); err != nil {
		closeQuietly(conn, ch)
		return nil, err
	}

	c.logger.Info("RabbitMQ consumer connected",
		"queue", c.queue,
		"exchange", c.exchange,
		"bindings", len(cfg.Bindings),
	)
	return c, nil
}

func newConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) *RabbitMQConsumer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if registry == nil {
		registry = NewConsumerRegistry(cfg.Logger)
	}
	return &RabbitMQConsumer{
		queue:    cfg.QueueName,
		exchange: cfg.Exchange,
		registry: registry,
		logger:   cfg.Logger,
		bound:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// RegisterConsumer adds consumer to the registry and binds any of its
// routing keys the queue is not bound to yet.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)
	if err := c.bind(consumer.EventTypes()...); err != nil {
		c.logger.Error("failed to bind consumer routing keys", "error", err)
	}
}

func (c *RabbitMQConsumer) bind(keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if _, ok := c.bound[key]; ok {
			continue
		}
		if c.channel != nil {
			if err := c.channel.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
				return fmt.Errorf("bind %s to %s: %w", c.queue, key, err)
			}
		}
		c.bound[key] = struct{}{}
		c.logger.Debug("bound routing key", "queue", c.queue, "routing_key", key)
	}
	return nil
}

func (c *RabbitMQConsumer) isBound(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.bound[key]
	return ok
}

// Start consumes until ctx is cancelled or Close is called. It blocks.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}

	c.logger.Info("consuming task events", "queue", c.queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}
			c.settle(d, c.handle(ctx, d))
		}
	}
}

// handle decodes and dispatches one delivery and decides how to settle it.
func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) settlement {
	event, err := c.decode(d)
	if err != nil {
		c.logger.Warn("rejecting delivery",
			"routing_key", d.RoutingKey,
			"message_id", d.MessageId,
			"error", err,
		)
		return settleReject
	}

	start := time.Now()
	err = c.registry.Dispatch(ctx, event)
	attrs := []any{
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"task_id", event.AggregateID,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err == nil {
		c.logger.Debug("event handled", attrs...)
		return settleAck
	}
	if d.Redelivered {
		c.logger.Error("dropping event that failed twice", append(attrs, "error", err)...)
		return settleReject
	}
	c.logger.Warn("event handling failed, requeueing", append(attrs, "error", err)...)
	return settleRequeue
}

// decode turns a delivery into an envelope. Fields the publisher lifted into
// message properties fill gaps in the body.
func (c *RabbitMQConsumer) decode(d amqp.Delivery) (*ConsumedEvent, error) {
	if !c.isBound(d.RoutingKey) {
		return nil, fmt.Errorf("%w: %q", errUnboundKey, d.RoutingKey)
	}

	event := &ConsumedEvent{}
	if err := json.Unmarshal(d.Body, event); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch event.RoutingKey {
	case "":
		event.RoutingKey = d.RoutingKey
	case d.RoutingKey:
	default:
		return nil, fmt.Errorf("envelope routing key %q does not match delivery key %q", event.RoutingKey, d.RoutingKey)
	}

	if event.EventID == uuid.Nil {
		id, err := uuid.Parse(d.MessageId)
		if err != nil {
			return nil, errors.New("envelope has no event id")
		}
		event.EventID = id
	}
	if event.Metadata.CorrelationID == "" {
		event.Metadata.CorrelationID = d.CorrelationId
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.Timestamp
	}
	return event, nil
}

func (c *RabbitMQConsumer) settle(d amqp.Delivery, s settlement) {
	var err error
	switch s {
	case settleAck:
		err = d.Ack(false)
	case settleRequeue:
		err = d.Nack(false, true)
	default:
		err = d.Reject(false)
	}
	if err != nil {
		c.logger.Error("failed to settle delivery", "settlement", s, "routing_key", d.RoutingKey, "error", err)
	}
}

// Close stops a running Start and closes the channel and connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.done)
		c.running = false
	}

	var errs []error
	if c.channel != nil {
		errs = append(errs, c.channel.Close())
	}
	if c.conn != nil && !c.conn.IsClosed() {
		errs = append(errs, c.conn.Close())
	}
	c.logger.Info("RabbitMQ consumer closed", "queue", c.queue)
	return errors.Join(errs...)
}
