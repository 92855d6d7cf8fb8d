package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

type registration struct {
	id       uint64
	consumer EventConsumer
}

// ConsumerRegistry manages event consumers and dispatches events to them.
type ConsumerRegistry struct {
	consumers map[string][]registration
	nextID    uint64
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewConsumerRegistry creates a new consumer registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{
		consumers: make(map[string][]registration),
		logger:    logger,
	}
}

// Register adds a consumer for its declared event types. The returned
// function removes it again.
func (r *ConsumerRegistry) Register(consumer EventConsumer) (unregister func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	types := consumer.EventTypes()
	for _, eventType := range types {
		r.consumers[eventType] = append(r.consumers[eventType], registration{id: id, consumer: consumer})
		r.logger.Debug("registered consumer for event type",
			"event_type", eventType,
		)
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id, types) })
	}
}

func (r *ConsumerRegistry) remove(id uint64, types []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, eventType := range types {
		regs := r.consumers[eventType]
		kept := regs[:0]
		for _, reg := range regs {
			if reg.id != id {
				kept = append(kept, reg)
			}
		}
		if len(kept) == 0 {
			delete(r.consumers, eventType)
			continue
		}
		r.consumers[eventType] = kept
	}
}

// GetConsumers returns all consumers registered for the given event type.
func (r *ConsumerRegistry) GetConsumers(eventType string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := r.consumers[eventType]
	out := make([]EventConsumer, 0, len(regs))
	for _, reg := range regs {
		out = append(out, reg.consumer)
	}
	return out
}

// GetAllEventTypes returns all event types that have consumers registered.
func (r *ConsumerRegistry) GetAllEventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.consumers))
	for t := range r.consumers {
		types = append(types, t)
	}
	return types
}

// Dispatch sends an event to all registered consumers for its event type.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.GetConsumers(event.RoutingKey)

	if len(consumers) == 0 {
		r.logger.Debug("no consumers for event type",
			"routing_key", event.RoutingKey,
		)
		return nil
	}

	var lastErr error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.Error("consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			lastErr = err
		}
	}

	return lastErr
}

// ConsumerCount returns the total number of registrations across event types.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, regs := range r.consumers {
		count += len(regs)
	}
	return count
}
