package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/homework/internal/shared/domain"
	"github.com/felixgeelhaar/homework/pkg/observability"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keyCreated = "homework.task.created"
	keyDeleted = "homework.task.deleted"
)

type recordingAcknowledger struct {
	acked    int
	requeued int
	rejected int
}

func (a *recordingAcknowledger) Ack(uint64, bool) error { a.acked++; return nil }

func (a *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	if requeue {
		a.requeued++
	} else {
		a.rejected++
	}
	return nil
}

func (a *recordingAcknowledger) Reject(uint64, bool) error { a.rejected++; return nil }

func testConsumer(t *testing.T, bindings ...string) (*RabbitMQConsumer, *ConsumerRegistry) {
	t.Helper()
	registry := NewConsumerRegistry(observability.DiscardLogger())
	c := newConsumer(RabbitMQConsumerConfig{Logger: observability.DiscardLogger()}, registry)
	require.NoError(t, c.bind(bindings...))
	return c, registry
}

func envelope(t *testing.T, key string, taskID int64) []byte {
	t.Helper()
	event := domain.NewBaseEvent(taskID, "Task", key, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	event.SetMetadata(domain.EventMetadata{CorrelationID: "corr-7"})
	body, err := MarshalEnvelope(event)
	require.NoError(t, err)
	return body
}

func TestNewConsumer_Defaults(t *testing.T) {
	c := newConsumer(RabbitMQConsumerConfig{}, nil)

	assert.Equal(t, DefaultConsumerQueueName, c.queue)
	assert.Equal(t, ExchangeName, c.exchange)
	assert.NotNil(t, c.registry)
}

func TestConsumer_BindSkipsKnownKeys(t *testing.T) {
	c, _ := testConsumer(t, keyCreated)
	require.NoError(t, c.bind(keyCreated, keyDeleted))

	assert.Len(t, c.bound, 2)
	assert.True(t, c.isBound(keyDeleted))
	assert.False(t, c.isBound("homework.task.archived"))
}

func TestConsumer_RegisterConsumerBindsItsKeys(t *testing.T) {
	c, registry := testConsumer(t)
	c.RegisterConsumer(ConsumerFunc{Types: []string{keyDeleted}, Fn: func(context.Context, *ConsumedEvent) error { return nil }})

	assert.True(t, c.isBound(keyDeleted))
	assert.Equal(t, 1, registry.ConsumerCount())
}

func TestConsumer_HandleDispatchesAndAcks(t *testing.T) {
	c, registry := testConsumer(t, keyCreated)
	var got *ConsumedEvent
	registry.Register(ConsumerFunc{Types: []string{keyCreated}, Fn: func(_ context.Context, e *ConsumedEvent) error {
		got = e
		return nil
	}})

	ack := &recordingAcknowledger{}
	d := amqp.Delivery{Acknowledger: ack, RoutingKey: keyCreated, Body: envelope(t, keyCreated, 7)}
	c.settle(d, c.handle(context.Background(), d))

	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.AggregateID)
	assert.Equal(t, "corr-7", got.Metadata.CorrelationID)
	assert.Equal(t, 1, ack.acked)
}

func TestConsumer_HandleSettlement(t *testing.T) {
	failing := errors.New("disk full")

	tests := []struct {
		name     string
		delivery amqp.Delivery
		handler  error
		want     settlement
	}{
		{
			name:     "malformed body",
			delivery: amqp.Delivery{RoutingKey: keyCreated, Body: []byte("{not json")},
			want:     settleReject,
		},
		{
			name:     "key never bound",
			delivery: amqp.Delivery{RoutingKey: "homework.task.archived", Body: []byte(`{}`)},
			want:     settleReject,
		},
		{
			name:     "envelope key differs from delivery key",
			delivery: amqp.Delivery{RoutingKey: keyCreated, Body: []byte(`{"routing_key":"homework.task.deleted","event_id":"` + uuid.NewString() + `"}`)},
			want:     settleReject,
		},
		{
			name:     "no event id anywhere",
			delivery: amqp.Delivery{RoutingKey: keyCreated, Body: []byte(`{"aggregate_id":3}`)},
			want:     settleReject,
		},
		{
			name:     "handler fails first time",
			delivery: amqp.Delivery{RoutingKey: keyCreated, MessageId: uuid.NewString(), Body: []byte(`{"aggregate_id":3}`)},
			handler:  failing,
			want:     settleRequeue,
		},
		{
			name:     "handler fails on redelivery",
			delivery: amqp.Delivery{RoutingKey: keyCreated, Redelivered: true, MessageId: uuid.NewString(), Body: []byte(`{"aggregate_id":3}`)},
			handler:  failing,
			want:     settleReject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, registry := testConsumer(t, keyCreated, keyDeleted)
			registry.Register(ConsumerFunc{Types: []string{keyCreated}, Fn: func(context.Context, *ConsumedEvent) error {
				return tt.handler
			}})

			assert.Equal(t, tt.want, c.handle(context.Background(), tt.delivery))
		})
	}
}

func TestConsumer_DecodeFillsFromProperties(t *testing.T) {
	c, _ := testConsumer(t, keyDeleted)
	id := uuid.New()
	sent := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	event, err := c.decode(amqp.Delivery{
		RoutingKey:    keyDeleted,
		MessageId:     id.String(),
		CorrelationId: "corr-9",
		Timestamp:     sent,
		Body:          []byte(`{"aggregate_id":4}`),
	})
	require.NoError(t, err)

	assert.Equal(t, id, event.EventID)
	assert.Equal(t, keyDeleted, event.RoutingKey)
	assert.Equal(t, "corr-9", event.Metadata.CorrelationID)
	assert.True(t, sent.Equal(event.OccurredAt))
}

func TestConsumer_SettleRequeueAndReject(t *testing.T) {
	c, _ := testConsumer(t)
	ack := &recordingAcknowledger{}

	c.settle(amqp.Delivery{Acknowledger: ack}, settleRequeue)
	c.settle(amqp.Delivery{Acknowledger: ack}, settleReject)

	assert.Equal(t, 1, ack.requeued)
	assert.Equal(t, 1, ack.rejected)
	assert.Zero(t, ack.acked)
}

func TestNewPublishing_LiftsEnvelopeFields(t *testing.T) {
	body := envelope(t, keyCreated, 7)
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	msg := newPublishing(keyCreated, body, now)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, keyCreated, msg.Type)
	assert.Equal(t, "homework", msg.AppId)
	assert.Equal(t, "corr-7", msg.CorrelationId)
	_, err := uuid.Parse(msg.MessageId)
	assert.NoError(t, err)
	assert.True(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC).Equal(msg.Timestamp))
}

func TestNewPublishing_OpaquePayload(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	msg := newPublishing(keyDeleted, []byte("raw"), now)

	assert.Empty(t, msg.MessageId)
	assert.Equal(t, now, msg.Timestamp)
	assert.Equal(t, []byte("raw"), msg.Body)
}
