package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homework/internal/shared/domain"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated   = "homework.task.created"
	RoutingKeyUpdated   = "homework.task.updated"
	RoutingKeyCompleted = "homework.task.completed"
	RoutingKeyReopened  = "homework.task.reopened"
	RoutingKeyDeleted   = "homework.task.deleted"
	RoutingKeyImported  = "homework.tasks.imported"
)

// TaskCreated is emitted when a new task is created.
type TaskCreated struct {
	domain.BaseEvent
	Teacher  string    `json:"teacher"`
	Pages    int       `json:"pages"`
	Priority int       `json:"priority"`
	Deadline time.Time `json:"deadline"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(t *Task, at time.Time) TaskCreated {
	return TaskCreated{
		BaseEvent: domain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyCreated, at),
		Teacher:   t.teacher,
		Pages:     t.pageCount,
		Priority:  t.priority.Int(),
		Deadline:  t.deadline,
	}
}

// TaskUpdated is emitted when a task is edited.
type TaskUpdated struct {
	domain.BaseEvent
	Fields []string `json:"fields"` // Names of fields that were updated
}

// NewTaskUpdated creates a TaskUpdated event.
func NewTaskUpdated(taskID int64, fields []string, at time.Time) TaskUpdated {
	return TaskUpdated{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyUpdated, at),
		Fields:    fields,
	}
}

// TaskCompleted is emitted when a task is marked complete.
type TaskCompleted struct {
	domain.BaseEvent
}

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(taskID int64, at time.Time) TaskCompleted {
	return TaskCompleted{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCompleted, at),
	}
}

// TaskReopened is emitted when a completed task is marked incomplete again.
type TaskReopened struct {
	domain.BaseEvent
}

// NewTaskReopened creates a TaskReopened event.
func NewTaskReopened(taskID int64, at time.Time) TaskReopened {
	return TaskReopened{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyReopened, at),
	}
}

// TaskDeleted is emitted when a task is removed.
type TaskDeleted struct {
	domain.BaseEvent
}

// NewTaskDeleted creates a TaskDeleted event.
func NewTaskDeleted(taskID int64, at time.Time) TaskDeleted {
	return TaskDeleted{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyDeleted, at),
	}
}

// TasksImported is emitted when the whole collection is replaced.
// It is not tied to a single task, so AggregateID is zero.
type TasksImported struct {
	domain.BaseEvent
	Count int `json:"count"`
}

// NewTasksImported creates a TasksImported event.
func NewTasksImported(count int, at time.Time) TasksImported {
	return TasksImported{
		BaseEvent: domain.NewBaseEvent(0, AggregateType, RoutingKeyImported, at),
		Count:     count,
	}
}

// RoutingKeys lists every routing key this package emits.
func RoutingKeys() []string {
	return []string{
		RoutingKeyCreated,
		RoutingKeyUpdated,
		RoutingKeyCompleted,
		RoutingKeyReopened,
		RoutingKeyDeleted,
		RoutingKeyImported,
	}
}

// DecodePayload decodes an event payload published under routingKey into
// its event type. Only the event-specific fields are populated; envelope
// data such as the task id travels outside the payload. Events without
// fields of their own decode to nil.
func DecodePayload(routingKey string, payload []byte) (any, error) {
	var event any
	switch routingKey {
	case RoutingKeyCreated:
		event = &TaskCreated{}
	case RoutingKeyUpdated:
		event = &TaskUpdated{}
	case RoutingKeyImported:
		event = &TasksImported{}
	case RoutingKeyCompleted, RoutingKeyReopened, RoutingKeyDeleted:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown task event %q", routingKey)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%s: empty payload", routingKey)
	}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("%s payload: %w", routingKey, err)
	}
	return event, nil
}
