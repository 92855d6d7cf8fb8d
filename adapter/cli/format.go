package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
)

// DeadlineLayouts are the accepted --deadline forms, tried in order.
var DeadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDeadline reads a deadline in loc. A bare date means 23:59 that day.
func ParseDeadline(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range DeadlineLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	if d, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q (use YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339)", value)
}

// DefaultDeadline is tomorrow at 23:59 in now's location.
func DefaultDeadline(now time.Time) time.Time {
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 23, 59, 0, 0, now.Location())
}

// ParseID parses a task id argument.
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

// StatusIcon renders the completion checkbox.
func StatusIcon(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// UrgencyMarker renders the deadline state of an open task.
func UrgencyMarker(t application.TaskDTO) string {
	if t.Completed {
		return ""
	}
	switch task.Urgency(t.Urgency) {
	case task.UrgencyOverdue:
		return " [OVERDUE]"
	case task.UrgencyDueSoon:
		return " [DUE SOON]"
	default:
		return ""
	}
}

// PrintTaskLine writes the compact two-line form used by list.
func PrintTaskLine(w io.Writer, t application.TaskDTO) {
	fmt.Fprintf(w, "%s P%d %s: %s%s\n", StatusIcon(t.Completed), t.Priority, t.Teacher, t.Description, UrgencyMarker(t))
	fmt.Fprintf(w, "   ID: %d  Pages: %d  Deadline: %s\n", t.ID, t.PageCount, t.DeadlineLabel)
}

// PrintTask writes every field of a task.
func PrintTask(w io.Writer, t application.TaskDTO) {
	fmt.Fprintf(w, "Task %d %s\n", t.ID, StatusIcon(t.Completed))
	fmt.Fprintf(w, "  teacher:     %s\n", t.Teacher)
	fmt.Fprintf(w, "  task:        %s\n", t.Description)
	fmt.Fprintf(w, "  pages:       %d\n", t.PageCount)
	fmt.Fprintf(w, "  deadline:    %s (%s)\n", t.Deadline.Format("2006-01-02 15:04"), t.DeadlineLabel)
	fmt.Fprintf(w, "  priority:    %d\n", t.Priority)
	fmt.Fprintf(w, "  created:     %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
	if t.UpdatedAt != nil {
		fmt.Fprintf(w, "  updated:     %s\n", t.UpdatedAt.Format("2006-01-02 15:04"))
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "  completed:   %s\n", t.CompletedAt.Format("2006-01-02 15:04"))
	}
}

// PrintStats writes the collection summary.
func PrintStats(w io.Writer, st application.Stats) {
	fmt.Fprintf(w, "Total tasks:     %d\n", st.TotalTasks)
	fmt.Fprintf(w, "Completed:       %d\n", st.CompletedTasks)
	fmt.Fprintf(w, "Pending:         %d\n", st.PendingTasks)
	fmt.Fprintf(w, "Overdue:         %d\n", st.OverdueTasks)
	fmt.Fprintf(w, "Total pages:     %d\n", st.TotalPages)
}
