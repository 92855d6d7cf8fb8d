package task

import (
	"fmt"
	"math"
	"time"
)

// DueSoonWindow is how close a deadline must be to count as due soon.
const DueSoonWindow = 24 * time.Hour

// Urgency classifies a deadline relative to the current time.
type Urgency string

const (
	UrgencyNormal  Urgency = "normal"
	UrgencyDueSoon Urgency = "dueSoon"
	UrgencyOverdue Urgency = "overdue"
)

// Classify returns the urgency of deadline at now.
func Classify(deadline, now time.Time) Urgency {
	switch {
	case deadline.Before(now):
		return UrgencyOverdue
	case deadline.Sub(now) < DueSoonWindow:
		return UrgencyDueSoon
	default:
		return UrgencyNormal
	}
}

// DeadlineLabel renders a human-readable deadline. Calendar days are
// counted in now's location.
func DeadlineLabel(deadline, now time.Time) string {
	if deadline.Before(now) {
		return "OVERDUE!"
	}

	local := deadline.In(now.Location())
	switch days := calendarDaysBetween(now, local); {
	case days == 0:
		return "Today " + local.Format("15:04")
	case days == 1:
		return "Tomorrow " + local.Format("15:04")
	case days <= 7:
		return fmt.Sprintf("%d days left", days)
	default:
		return local.Format("2006-01-02 15:04")
	}
}

func calendarDaysBetween(from, to time.Time) int {
	loc := from.Location()
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(end.Sub(start).Hours() / 24))
}
