package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/homework/internal/shared/domain"
)

// Task is one homework assignment.
type Task struct {
	domain.BaseAggregateRoot
	teacher     string
	description string
	pageCount   int
	deadline    time.Time
	priority    Priority
	completed   bool
	completedAt *time.Time
}

// MaxID is the largest id a JSON number can carry without losing precision
// in a browser (Number.MAX_SAFE_INTEGER).
const MaxID int64 = 1<<53 - 1

// TimePrecision is the resolution timestamps are stored at.
const TimePrecision = time.Millisecond

func validateID(id int64) error {
	if id <= 0 {
		return invalid("id", "must be positive")
	}
	if id > MaxID {
		return invalid("id", fmt.Sprintf("must not exceed %d", MaxID))
	}
	return nil
}

// NewTask validates the input and creates an incomplete task created at now.
// The deadline is truncated to TimePrecision.
func NewTask(id int64, teacher, description string, pageCount int, deadline time.Time, priority int, now time.Time) (*Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	teacher, err := requireText("teacher", teacher)
	if err != nil {
		return nil, err
	}
	description, err = requireText("description", description)
	if err != nil {
		return nil, err
	}
	if err := validatePageCount(pageCount); err != nil {
		return nil, err
	}
	p, err := NewPriority(priority)
	if err != nil {
		return nil, err
	}

	t := &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(domain.NewBaseEntity(id, now)),
		teacher:           teacher,
		description:       description,
		pageCount:         pageCount,
		deadline:          deadline.Truncate(TimePrecision),
		priority:          p,
	}
	created := NewTaskCreated(t, now)
	t.AddDomainEvent(&created)

	return t, nil
}

// State is the full persisted form of a task.
type State struct {
	ID          int64
	Teacher     string
	Description string
	PageCount   int
	Deadline    time.Time
	Priority    int
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	CompletedAt *time.Time
}

// Rehydrate rebuilds a task from stored state, applying the same
// validation as NewTask. No events are recorded.
func Rehydrate(s State) (*Task, error) {
	if err := validateID(s.ID); err != nil {
		return nil, err
	}
	teacher, err := requireText("teacher", s.Teacher)
	if err != nil {
		return nil, err
	}
	description, err := requireText("description", s.Description)
	if err != nil {
		return nil, err
	}
	if err := validatePageCount(s.PageCount); err != nil {
		return nil, err
	}
	p, err := NewPriority(s.Priority)
	if err != nil {
		return nil, err
	}

	t := &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(
			domain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
		),
		teacher:     teacher,
		description: description,
		pageCount:   s.PageCount,
		deadline:    s.Deadline,
		priority:    p,
		completed:   s.Completed,
	}
	if s.Completed && s.CompletedAt != nil {
		at := *s.CompletedAt
		t.completedAt = &at
	}
	return t, nil
}

// Snapshot returns the task's state.
func (t *Task) Snapshot() State {
	return State{
		ID:          t.ID(),
		Teacher:     t.teacher,
		Description: t.description,
		PageCount:   t.pageCount,
		Deadline:    t.deadline,
		Priority:    t.priority.Int(),
		Completed:   t.completed,
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
		CompletedAt: t.CompletedAt(),
	}
}

// Getters

func (t *Task) Teacher() string     { return t.teacher }
func (t *Task) Description() string { return t.description }
func (t *Task) PageCount() int      { return t.pageCount }
func (t *Task) Deadline() time.Time { return t.deadline }
func (t *Task) Priority() Priority  { return t.priority }
func (t *Task) IsCompleted() bool   { return t.completed }

// CompletedAt returns a copy of the completion instant, or nil.
func (t *Task) CompletedAt() *time.Time {
	if t.completedAt == nil {
		return nil
	}
	at := *t.completedAt
	return &at
}

// Urgency classifies the task's deadline at now.
func (t *Task) Urgency(now time.Time) Urgency {
	return Classify(t.deadline, now)
}

// Changes is a partial edit. Nil fields are left unchanged.
type Changes struct {
	Teacher     *string
	Description *string
	PageCount   *int
	Deadline    *time.Time
	Priority    *int
}

// Edit validates every change before applying any of them, then refreshes
// updatedAt. Completion state is never touched.
func (t *Task) Edit(c Changes, now time.Time) error {
	next := *t
	var fields []string

	if c.Teacher != nil {
		v, err := requireText("teacher", *c.Teacher)
		if err != nil {
			return err
		}
		next.teacher = v
		fields = append(fields, "teacher")
	}
	if c.Description != nil {
		v, err := requireText("description", *c.Description)
		if err != nil {
			return err
		}
		next.description = v
		fields = append(fields, "description")
	}
	if c.PageCount != nil {
		if err := validatePageCount(*c.PageCount); err != nil {
			return err
		}
		next.pageCount = *c.PageCount
		fields = append(fields, "pages")
	}
	if c.Deadline != nil {
		next.deadline = c.Deadline.Truncate(TimePrecision)
		fields = append(fields, "deadline")
	}
	if c.Priority != nil {
		p, err := NewPriority(*c.Priority)
		if err != nil {
			return err
		}
		next.priority = p
		fields = append(fields, "priority")
	}

	t.teacher = next.teacher
	t.description = next.description
	t.pageCount = next.pageCount
	t.deadline = next.deadline
	t.priority = next.priority
	t.Touch(now)
	updated := NewTaskUpdated(t.ID(), fields, now)
	t.AddDomainEvent(&updated)
	return nil
}

// ToggleComplete flips the completion flag, stamping or clearing completedAt.
func (t *Task) ToggleComplete(now time.Time) {
	t.completed = !t.completed
	if t.completed {
		at := now
		t.completedAt = &at
		completed := NewTaskCompleted(t.ID(), now)
		t.AddDomainEvent(&completed)
		return
	}
	t.completedAt = nil
	reopened := NewTaskReopened(t.ID(), now)
	t.AddDomainEvent(&reopened)
}

// MarkDeleted records the deletion event. The caller removes the task.
func (t *Task) MarkDeleted(now time.Time) {
	deleted := NewTaskDeleted(t.ID(), now)
	t.AddDomainEvent(&deleted)
}

func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, "cannot be empty")
	}
	return value, nil
}

func validatePageCount(n int) error {
	if n < 0 {
		return invalid("pages", "cannot be negative")
	}
	return nil
}
