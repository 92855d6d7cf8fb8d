package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/homework/internal/shared/domain"
	"github.com/google/uuid"
)

// NewEnvelope wraps a domain event for publishing. The event's exported
// fields become the payload.
func NewEnvelope(event domain.DomainEvent) (*ConsumedEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.RoutingKey(), err)
	}

	meta := event.Metadata()
	envelope := &ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
		Metadata: EventMetadata{
			CorrelationID: meta.CorrelationID,
		},
	}
	if meta.CausationID != uuid.Nil {
		envelope.Metadata.CausationID = meta.CausationID.String()
	}
	return envelope, nil
}

// MarshalEnvelope builds the envelope for event and encodes it as JSON.
func MarshalEnvelope(event domain.DomainEvent) ([]byte, error) {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope)
}
