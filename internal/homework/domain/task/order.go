package task

import (
	"cmp"
	"slices"
	"strings"
)

// Compare orders tasks for display: incomplete first, then by ascending
// priority, then by ascending deadline.
func Compare(a, b *Task) int {
	if a.completed != b.completed {
		if a.completed {
			return 1
		}
		return -1
	}
	if c := cmp.Compare(a.priority, b.priority); c != 0 {
		return c
	}
	return a.deadline.Compare(b.deadline)
}

// SortForDisplay sorts tasks in place. The sort is stable.
func SortForDisplay(tasks []*Task) {
	slices.SortStableFunc(tasks, Compare)
}

// Filter selects tasks. Zero-valued criteria match everything.
type Filter struct {
	TeacherSubstring string
	Priority         *Priority
}

// Matches reports whether the task satisfies every criterion.
func (f Filter) Matches(t *Task) bool {
	if f.TeacherSubstring != "" &&
		!strings.Contains(strings.ToLower(t.teacher), strings.ToLower(f.TeacherSubstring)) {
		return false
	}
	if f.Priority != nil && t.priority != *f.Priority {
		return false
	}
	return true
}

// Teachers returns the distinct teacher labels, sorted ascending.
func Teachers(tasks []*Task) []string {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.teacher]; ok {
			continue
		}
		seen[t.teacher] = struct{}{}
		out = append(out, t.teacher)
	}
	slices.Sort(out)
	return out
}
