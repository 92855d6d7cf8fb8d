package application

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/shared/domain"
	"github.com/felixgeelhaar/homework/pkg/observability"
)

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	Teacher     string
	Description string
	PageCount   int
	Deadline    time.Time
	Priority    int
}

// UpdateTaskCommand is a partial edit of one task.
type UpdateTaskCommand struct {
	ID          int64
	Teacher     *string    // nil means no change
	Description *string    // nil means no change
	PageCount   *int       // nil means no change
	Deadline    *time.Time // nil means no change
	Priority    *int       // nil means no change
}

// Create validates and appends a new task.
//
// When the write-through fails the task stays in memory and the returned
// DTO is accompanied by a PersistenceError.
func (s *Store) Create(ctx context.Context, cmd CreateTaskCommand) (dto TaskDTO, err error) {
	var events []domain.DomainEvent
	defer func() { s.publish(ctx, events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	lastID := s.lastID
	id, err := s.nextID(now)
	if err != nil {
		return TaskDTO{}, err
	}
	t, err := task.NewTask(id, cmd.Teacher, cmd.Description, cmd.PageCount, cmd.Deadline, cmd.Priority, now)
	if err != nil {
		s.lastID = lastID
		return TaskDTO{}, err
	}

	s.tasks = append(s.tasks, t)
	events = t.PullDomainEvents()
	s.metrics.Counter(observability.MetricTasksCreated, 1)
	s.logger.InfoContext(ctx, "task created", "task_id", t.ID(), "teacher", t.Teacher())

	return toDTO(t, now), s.persistLocked(ctx, "create")
}

// Update applies a partial edit. Either every change is applied or none is.
func (s *Store) Update(ctx context.Context, cmd UpdateTaskCommand) (dto TaskDTO, err error) {
	var events []domain.DomainEvent
	defer func() { s.publish(ctx, events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.find(cmd.ID)
	if err != nil {
		return TaskDTO{}, err
	}

	now := s.now()
	err = t.Edit(task.Changes{
		Teacher:     cmd.Teacher,
		Description: cmd.Description,
		PageCount:   cmd.PageCount,
		Deadline:    cmd.Deadline,
		Priority:    cmd.Priority,
	}, now)
	if err != nil {
		return TaskDTO{}, err
	}

	events = t.PullDomainEvents()
	s.metrics.Counter(observability.MetricTasksUpdated, 1)
	s.logger.InfoContext(ctx, "task updated", "task_id", t.ID())

	return toDTO(t, now), s.persistLocked(ctx, "update")
}

// ToggleComplete flips the completion flag of one task.
func (s *Store) ToggleComplete(ctx context.Context, id int64) (dto TaskDTO, err error) {
	var events []domain.DomainEvent
	defer func() { s.publish(ctx, events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.find(id)
	if err != nil {
		return TaskDTO{}, err
	}

	now := s.now()
	t.ToggleComplete(now)
	events = t.PullDomainEvents()
	if t.IsCompleted() {
		s.metrics.Counter(observability.MetricTasksCompleted, 1)
	} else {
		s.metrics.Counter(observability.MetricTasksReopened, 1)
	}
	s.logger.InfoContext(ctx, "task toggled", "task_id", id, "completed", t.IsCompleted())

	return toDTO(t, now), s.persistLocked(ctx, "toggle")
}

// Delete removes a task permanently. Deleting an unknown id is a NotFoundError.
func (s *Store) Delete(ctx context.Context, id int64) error {
	var events []domain.DomainEvent
	defer func() { s.publish(ctx, events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &task.NotFoundError{ID: id}
	}

	t := s.tasks[i]
	t.MarkDeleted(s.now())
	events = t.PullDomainEvents()
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.metrics.Counter(observability.MetricTasksDeleted, 1)
	s.logger.InfoContext(ctx, "task deleted", "task_id", id)

	return s.persistLocked(ctx, "delete")
}

// Deserialize replaces the whole collection with the tasks in data.
// Anything that is not a valid task document is an ImportError and leaves
// the collection untouched. It returns the number of imported tasks.
func (s *Store) Deserialize(ctx context.Context, data []byte) (int, error) {
	var events []domain.DomainEvent
	defer func() { s.publish(ctx, events) }()

	tasks, err := s.codec.Decode(data)
	if err != nil {
		var importErr *task.ImportError
		if !errors.As(err, &importErr) {
			err = &task.ImportError{Reason: "unreadable document", Err: err}
		}
		s.logger.WarnContext(ctx, "import rejected", observability.ErrorKey, err)
		return 0, err
	}
	for _, t := range tasks {
		t.ClearDomainEvents()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = tasks
	s.lastID = max(s.lastID, maxID(tasks))

	imported := task.NewTasksImported(len(tasks), s.now())
	events = []domain.DomainEvent{&imported}
	s.metrics.Counter(observability.MetricTasksImported, int64(len(tasks)))
	s.logger.InfoContext(ctx, "tasks imported", "count", len(tasks))

	return len(tasks), s.persistLocked(ctx, "import")
}
