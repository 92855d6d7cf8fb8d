package application

import (
	"context"
	"slices"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
)

// TaskDTO is a read-only copy of a task with its deadline state computed
// at query time.
type TaskDTO struct {
	ID            int64      `json:"id"`
	Teacher       string     `json:"teacher"`
	Description   string     `json:"description"`
	PageCount     int        `json:"pages"`
	Deadline      time.Time  `json:"deadline"`
	Priority      int        `json:"priority"`
	Completed     bool       `json:"completed"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Urgency       string     `json:"urgency"`
	DeadlineLabel string     `json:"deadline_label"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	TeacherSubstring string
	Priority         *int
}

// Stats summarizes the whole collection.
type Stats struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	OverdueTasks   int `json:"overdue_tasks"`
	TotalPages     int `json:"total_pages"`
}

func toDTO(t *task.Task, now time.Time) TaskDTO {
	s := t.Snapshot()
	return TaskDTO{
		ID:            s.ID,
		Teacher:       s.Teacher,
		Description:   s.Description,
		PageCount:     s.PageCount,
		Deadline:      s.Deadline,
		Priority:      s.Priority,
		Completed:     s.Completed,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		CompletedAt:   s.CompletedAt,
		Urgency:       string(task.Classify(s.Deadline, now)),
		DeadlineLabel: task.DeadlineLabel(s.Deadline, now),
	}
}

// List returns the matching tasks in display order: incomplete first, then
// by priority, then by deadline.
func (s *Store) List(ctx context.Context, filter ListFilter) []TaskDTO {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := task.Filter{TeacherSubstring: filter.TeacherSubstring}
	if filter.Priority != nil {
		p := task.Priority(*filter.Priority)
		f.Priority = &p
	}

	matched := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if f.Matches(t) {
			matched = append(matched, t)
		}
	}
	task.SortForDisplay(matched)

	now := s.now()
	out := make([]TaskDTO, len(matched))
	for i, t := range matched {
		out[i] = toDTO(t, now)
	}
	return out
}

// Get returns one task.
func (s *Store) Get(ctx context.Context, id int64) (TaskDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.find(id)
	if err != nil {
		return TaskDTO{}, err
	}
	return toDTO(t, s.now()), nil
}

// TeacherCatalog returns every distinct teacher, sorted, regardless of any
// filter a caller has applied to List.
func (s *Store) TeacherCatalog(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.Teachers(s.tasks)
}

// Stats counts tasks and pages over the whole collection.
func (s *Store) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var st Stats
	for _, t := range s.tasks {
		st.TotalTasks++
		st.TotalPages += t.PageCount()
		if t.IsCompleted() {
			st.CompletedTasks++
			continue
		}
		st.PendingTasks++
		if t.Urgency(now) == task.UrgencyOverdue {
			st.OverdueTasks++
		}
	}
	return st
}

// Serialize encodes the whole collection as the exchange document.
func (s *Store) Serialize(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	tasks := slices.Clone(s.tasks)
	s.mu.Unlock()
	return s.codec.Encode(tasks)
}

// Now reports the store's clock. Adapters use it to label deadlines
// consistently with the store.
func (s *Store) Now() time.Time {
	return s.now()
}
