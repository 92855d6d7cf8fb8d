// Package application hosts the task store: the single owner of the
// homework collection that every adapter drives.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	sharedApplication "github.com/felixgeelhaar/homework/internal/shared/application"
	"github.com/felixgeelhaar/homework/internal/shared/domain"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homework/pkg/observability"
)

// Codec converts the collection to and from its exchange document.
type Codec interface {
	Encode(tasks []*task.Task) ([]byte, error)
	Decode(data []byte) ([]*task.Task, error)
}

// Store owns the task collection. Every operation runs to completion under
// one mutex and every mutation is written through to the repository.
// Change events are published after the mutex is released so observers
// may query the store from their handlers.
type Store struct {
	mu     sync.Mutex
	tasks  []*task.Task
	lastID int64

	repo      task.Repository
	codec     Codec
	publisher eventbus.Publisher
	metrics   observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
	seed      bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPublisher sets where change events go.
func WithPublisher(p eventbus.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSampleData seeds the example tasks when nothing has been stored yet.
func WithSampleData(enabled bool) Option {
	return func(s *Store) { s.seed = enabled }
}

// Open loads the persisted collection and returns a ready store.
//
// A stored value that cannot be decoded is logged and replaced by an empty
// collection. A backend that cannot be read at all yields a PersistenceError.
func Open(ctx context.Context, repo task.Repository, codec Codec, opts ...Option) (*Store, error) {
	s := &Store{
		repo:      repo,
		codec:     codec,
		publisher: eventbus.NewNoopPublisher(observability.DiscardLogger()),
		metrics:   observability.NoopMetrics{},
		logger:    observability.DiscardLogger(),
		now:       systemClock,
	}
	for _, opt := range opts {
		opt(s)
	}

	tasks, found, err := repo.Load(ctx)
	switch {
	case errors.Is(err, task.ErrSnapshotUnreadable):
		s.logger.WarnContext(ctx, "stored tasks unreadable, starting empty", observability.ErrorKey, err)
		tasks, found = nil, true
	case err != nil:
		return nil, &task.PersistenceError{Op: "load", Err: err}
	}

	s.tasks = tasks
	s.lastID = maxID(tasks)
	for _, t := range s.tasks {
		t.ClearDomainEvents()
	}

	if !found && s.seed {
		if err := s.seedSampleData(ctx); err != nil {
			return nil, err
		}
	}

	s.metrics.Gauge(observability.MetricTasksOpen, float64(s.openCount()))
	s.logger.DebugContext(ctx, "task store opened", "tasks", len(s.tasks), "found", found)
	return s, nil
}

func systemClock() time.Time {
	return time.Now().Truncate(task.TimePrecision)
}

func (s *Store) seedSampleData(ctx context.Context) error {
	now := s.now()
	for _, cmd := range SampleTasks(now) {
		id, err := s.nextID(now)
		if err != nil {
			return err
		}
		t, err := task.NewTask(id, cmd.Teacher, cmd.Description, cmd.PageCount, cmd.Deadline, cmd.Priority, now)
		if err != nil {
			return err
		}
		t.ClearDomainEvents()
		s.tasks = append(s.tasks, t)
	}
	s.logger.InfoContext(ctx, "seeded sample tasks", "count", len(s.tasks))
	return s.persistLocked(ctx, "seed")
}

// nextID issues an id from the millisecond clock, bumped past the last
// issued id so rapid creations stay unique and increasing.
func (s *Store) nextID(now time.Time) (int64, error) {
	if s.lastID >= task.MaxID {
		return 0, fmt.Errorf("%w: highest id is %d", task.ErrIDsExhausted, s.lastID)
	}
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id, nil
}

func maxID(tasks []*task.Task) int64 {
	var id int64
	for _, t := range tasks {
		id = max(id, t.ID())
	}
	return id
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.tasks, func(t *task.Task) bool { return t.ID() == id })
}

func (s *Store) find(id int64) (*task.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, &task.NotFoundError{ID: id}
	}
	return s.tasks[i], nil
}

func (s *Store) openCount() int {
	n := 0
	for _, t := range s.tasks {
		if !t.IsCompleted() {
			n++
		}
	}
	return n
}

// persistLocked writes the whole collection. The in-memory change stays
// in place on failure. Caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context, op string) error {
	timer := observability.StartTimer("store.persist").
		WithLogger(s.logger).
		WithMetrics(s.metrics).
		WithTags(observability.T("trigger", op))

	err := s.repo.SaveAll(ctx, s.tasks)
	timer.StopWithError(err)
	s.metrics.Gauge(observability.MetricTasksOpen, float64(s.openCount()))
	if err != nil {
		s.metrics.Counter(observability.MetricStoreErrors, 1, observability.T("trigger", op))
		return &task.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// publish sends events as envelopes. Delivery failures are logged, never
// returned: the mutation has already happened.
func (s *Store) publish(ctx context.Context, events []domain.DomainEvent) {
	if len(events) == 0 {
		return
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx))

	for _, event := range events {
		payload, err := eventbus.MarshalEnvelope(event)
		if err == nil {
			err = s.publisher.Publish(ctx, event.RoutingKey(), payload)
		}
		if err != nil {
			s.metrics.Counter(observability.MetricEventsPublishErrors, 1, observability.T("routing_key", event.RoutingKey()))
			s.logger.WarnContext(ctx, "event not delivered",
				"routing_key", event.RoutingKey(),
				"aggregate_id", event.AggregateID(),
				observability.ErrorKey, err,
			)
			continue
		}
		s.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey()))
	}
}
