package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/homework/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

type testAggregate struct {
	domain.BaseAggregateRoot
	Name string
}

func newTestAggregate(id int64, name string) *testAggregate {
	return &testAggregate{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(domain.NewBaseEntity(id, time.Now())),
		Name:              name,
	}
}

type testAggregateEvent struct {
	domain.BaseEvent
}

func newTestAggregateEvent(aggregateID int64) testAggregateEvent {
	return testAggregateEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "TestAggregate", "test.aggregate.created", time.Now()),
	}
}

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := newTestAggregate(7, "Test")

	assert.Equal(t, int64(7), agg.ID())
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_AddDomainEvent(t *testing.T) {
	agg := newTestAggregate(1, "Test")
	event := newTestAggregateEvent(agg.ID())

	agg.AddDomainEvent(event)

	events := agg.DomainEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, event.EventID(), events[0].EventID())
}

func TestBaseAggregateRoot_ClearDomainEvents(t *testing.T) {
	agg := newTestAggregate(1, "Test")
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))

	assert.Len(t, agg.DomainEvents(), 2)

	agg.ClearDomainEvents()

	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_PullDomainEvents(t *testing.T) {
	agg := newTestAggregate(3, "Test")
	for i := 0; i < 3; i++ {
		agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))
	}

	pulled := agg.PullDomainEvents()

	assert.Len(t, pulled, 3)
	assert.Empty(t, agg.DomainEvents())
	for _, event := range pulled {
		assert.Equal(t, agg.ID(), event.AggregateID())
	}
}
