package task_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     task.Urgency
	}{
		{"one second ago", base.Add(-time.Second), task.UrgencyOverdue},
		{"exactly now", base, task.UrgencyDueSoon},
		{"in twelve hours", base.Add(12 * time.Hour), task.UrgencyDueSoon},
		{"just under a day", base.Add(24*time.Hour - time.Second), task.UrgencyDueSoon},
		{"exactly a day", base.Add(24 * time.Hour), task.UrgencyNormal},
		{"next week", base.Add(7 * 24 * time.Hour), task.UrgencyNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, task.Classify(tt.deadline, base))
		})
	}
}

func TestDeadlineLabel(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     string
	}{
		{"overdue", base.Add(-time.Minute), "OVERDUE!"},
		{"later today", base.Add(6 * time.Hour), "Today 15:00"},
		{"just past midnight", base.Add(15*time.Hour + 30*time.Minute), "Tomorrow 00:30"},
		{"tomorrow evening", time.Date(2025, 3, 11, 23, 59, 0, 0, time.UTC), "Tomorrow 23:59"},
		{"two days", time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC), "2 days left"},
		{"seven days", time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC), "7 days left"},
		{"eight days", time.Date(2025, 3, 18, 10, 15, 0, 0, time.UTC), "2025-03-18 10:15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, task.DeadlineLabel(tt.deadline, base))
		})
	}
}

func TestDeadlineLabel_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, loc)
	// 23:30 local on the same day, 18:30 UTC.
	deadline := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, "Today 23:30", task.DeadlineLabel(deadline, now))
}

func TestDueSoonTwelveHoursAhead(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tsk, err := task.NewTask(1, "SP", "Notes", 1, now.Add(12*time.Hour), 1, now)
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, task.UrgencyDueSoon, tsk.Urgency(now))
	assert.Equal(t, "Today 21:00", task.DeadlineLabel(tsk.Deadline(), now))
}
