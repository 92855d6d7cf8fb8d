package task_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTask(t *testing.T) *task.Task {
	t.Helper()
	tsk, err := task.NewTask(1, "SP", "Complete detailed Notes", 30, now.Add(48*time.Hour), 7, now)
	require.NoError(t, err)
	return tsk
}

func ptr[T any](v T) *T { return &v }

func TestNewTask(t *testing.T) {
	tsk := newTask(t)

	assert.Equal(t, int64(1), tsk.ID())
	assert.Equal(t, "SP", tsk.Teacher())
	assert.Equal(t, "Complete detailed Notes", tsk.Description())
	assert.Equal(t, 30, tsk.PageCount())
	assert.Equal(t, task.Priority(7), tsk.Priority())
	assert.Equal(t, now, tsk.CreatedAt())
	assert.False(t, tsk.IsCompleted())
	assert.Nil(t, tsk.CompletedAt())
	assert.Nil(t, tsk.UpdatedAt())
}

func TestNewTask_EmitsCreatedEvent(t *testing.T) {
	tsk := newTask(t)

	events := tsk.DomainEvents()
	require.Len(t, events, 1)

	created, ok := events[0].(*task.TaskCreated)
	require.True(t, ok)
	assert.Equal(t, tsk.ID(), created.AggregateID())
	assert.Equal(t, task.RoutingKeyCreated, created.RoutingKey())
	assert.Equal(t, "SP", created.Teacher)
	assert.Equal(t, 30, created.Pages)
}

func TestNewTask_TrimsText(t *testing.T) {
	tsk, err := task.NewTask(1, "  SB  ", "\tLab index\n", 0, now, 3, now)

	require.NoError(t, err)
	assert.Equal(t, "SB", tsk.Teacher())
	assert.Equal(t, "Lab index", tsk.Description())
}

func TestNewTask_Validation(t *testing.T) {
	tests := []struct {
		name        string
		teacher     string
		description string
		pages       int
		priority    int
		field       string
	}{
		{"empty teacher", "", "Notes", 1, 1, "teacher"},
		{"blank teacher", "   ", "Notes", 1, 1, "teacher"},
		{"blank description", "SP", "\t\n", 1, 1, "description"},
		{"negative pages", "SP", "Notes", -1, 1, "pages"},
		{"priority too low", "SP", "Notes", 1, 0, "priority"},
		{"priority too high", "SP", "Notes", 1, 8, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := task.NewTask(1, tt.teacher, tt.description, tt.pages, now, tt.priority, now)

			require.Error(t, err)
			assert.ErrorIs(t, err, task.ErrValidation)
			var verr *task.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNewTask_AcceptsPastDeadline(t *testing.T) {
	_, err := task.NewTask(1, "SP", "Notes", 1, now.Add(-72*time.Hour), 1, now)
	require.NoError(t, err)
}

func TestTask_Edit(t *testing.T) {
	tsk := newTask(t)
	tsk.ClearDomainEvents()
	later := now.Add(time.Hour)
	deadline := now.Add(96 * time.Hour)

	err := tsk.Edit(task.Changes{
		Teacher:   ptr(" Computer Physics "),
		PageCount: ptr(12),
		Deadline:  &deadline,
		Priority:  ptr(2),
	}, later)

	require.NoError(t, err)
	assert.Equal(t, "Computer Physics", tsk.Teacher())
	assert.Equal(t, "Complete detailed Notes", tsk.Description())
	assert.Equal(t, 12, tsk.PageCount())
	assert.Equal(t, deadline, tsk.Deadline())
	assert.Equal(t, task.Priority(2), tsk.Priority())
	require.NotNil(t, tsk.UpdatedAt())
	assert.Equal(t, later, *tsk.UpdatedAt())
	assert.Equal(t, now, tsk.CreatedAt())

	events := tsk.DomainEvents()
	require.Len(t, events, 1)
	updated, ok := events[0].(*task.TaskUpdated)
	require.True(t, ok)
	assert.Equal(t, []string{"teacher", "pages", "deadline", "priority"}, updated.Fields)
}

func TestTask_Edit_IsAllOrNothing(t *testing.T) {
	tsk := newTask(t)
	tsk.ClearDomainEvents()

	err := tsk.Edit(task.Changes{
		Teacher:  ptr("Someone else"),
		Priority: ptr(9),
	}, now.Add(time.Hour))

	require.ErrorIs(t, err, task.ErrValidation)
	assert.Equal(t, "SP", tsk.Teacher())
	assert.Equal(t, task.Priority(7), tsk.Priority())
	assert.Nil(t, tsk.UpdatedAt())
	assert.Empty(t, tsk.DomainEvents())
}

func TestTask_Edit_LeavesCompletionAlone(t *testing.T) {
	tsk := newTask(t)
	tsk.ToggleComplete(now)

	require.NoError(t, tsk.Edit(task.Changes{Description: ptr("Revised notes")}, now.Add(time.Minute)))

	assert.True(t, tsk.IsCompleted())
	require.NotNil(t, tsk.CompletedAt())
	assert.Equal(t, now, *tsk.CompletedAt())
}

func TestTask_ToggleComplete(t *testing.T) {
	tsk := newTask(t)
	tsk.ClearDomainEvents()
	doneAt := now.Add(2 * time.Hour)

	tsk.ToggleComplete(doneAt)

	assert.True(t, tsk.IsCompleted())
	require.NotNil(t, tsk.CompletedAt())
	assert.Equal(t, doneAt, *tsk.CompletedAt())

	tsk.ToggleComplete(doneAt.Add(time.Minute))

	assert.False(t, tsk.IsCompleted())
	assert.Nil(t, tsk.CompletedAt())

	events := tsk.DomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, task.RoutingKeyCompleted, events[0].RoutingKey())
	assert.Equal(t, task.RoutingKeyReopened, events[1].RoutingKey())
}

func TestTask_MarkDeleted(t *testing.T) {
	tsk := newTask(t)
	tsk.ClearDomainEvents()

	tsk.MarkDeleted(now)

	events := tsk.PullDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, task.RoutingKeyDeleted, events[0].RoutingKey())
	assert.Equal(t, tsk.ID(), events[0].AggregateID())
}

func TestRehydrate(t *testing.T) {
	completedAt := now.Add(time.Hour)
	updatedAt := now.Add(30 * time.Minute)
	state := task.State{
		ID:          1700000000000,
		Teacher:     "SB",
		Description: "LAB INDEX 3 INITIAL",
		PageCount:   5,
		Deadline:    now.Add(24 * time.Hour),
		Priority:    3,
		Completed:   true,
		CreatedAt:   now,
		UpdatedAt:   &updatedAt,
		CompletedAt: &completedAt,
	}

	tsk, err := task.Rehydrate(state)

	require.NoError(t, err)
	assert.Equal(t, state, tsk.Snapshot())
	assert.Empty(t, tsk.DomainEvents())
}

func TestRehydrate_DropsCompletedAtWhenIncomplete(t *testing.T) {
	stamp := now
	tsk, err := task.Rehydrate(task.State{
		ID: 1, Teacher: "SP", Description: "Notes", Priority: 1,
		CreatedAt: now, CompletedAt: &stamp,
	})

	require.NoError(t, err)
	assert.Nil(t, tsk.CompletedAt())
}

func TestRehydrate_Validation(t *testing.T) {
	base := task.State{ID: 1, Teacher: "SP", Description: "Notes", Priority: 1, CreatedAt: now}

	tests := []struct {
		name   string
		mutate func(*task.State)
	}{
		{"zero id", func(s *task.State) { s.ID = 0 }},
		{"empty teacher", func(s *task.State) { s.Teacher = " " }},
		{"empty description", func(s *task.State) { s.Description = "" }},
		{"negative pages", func(s *task.State) { s.PageCount = -3 }},
		{"bad priority", func(s *task.State) { s.Priority = 12 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := base
			tt.mutate(&state)

			_, err := task.Rehydrate(state)
			assert.ErrorIs(t, err, task.ErrValidation)
		})
	}
}

func TestNewTask_DeadlinePrecision(t *testing.T) {
	tsk, err := task.NewTask(1, "SP", "Notes", 1, now.Add(123456789*time.Nanosecond), 1, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(123*time.Millisecond), tsk.Deadline())

	require.NoError(t, tsk.Edit(task.Changes{Deadline: ptr(now.Add(time.Hour + 999999*time.Nanosecond))}, now))
	assert.Equal(t, now.Add(time.Hour), tsk.Deadline())
}

func TestTask_IDRange(t *testing.T) {
	_, err := task.NewTask(task.MaxID, "SP", "Notes", 1, now, 1, now)
	assert.NoError(t, err)

	_, err = task.NewTask(task.MaxID+1, "SP", "Notes", 1, now, 1, now)
	assert.ErrorIs(t, err, task.ErrValidation)

	_, err = task.Rehydrate(task.State{ID: task.MaxID + 1, Teacher: "SP", Description: "Notes", PageCount: 1, Deadline: now, Priority: 1, CreatedAt: now})
	assert.ErrorIs(t, err, task.ErrValidation)
}
