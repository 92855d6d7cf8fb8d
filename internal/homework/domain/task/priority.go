package task

import "strconv"

// Priority is an urgency rank. Lower values are more urgent.
type Priority int

const (
	PriorityHighest Priority = 1
	PriorityLowest  Priority = 7
)

// NewPriority validates that value is within the supported range.
func NewPriority(value int) (Priority, error) {
	p := Priority(value)
	if !p.IsValid() {
		return 0, invalid("priority", "must be between 1 and 7")
	}
	return p, nil
}

// IsValid reports whether the priority is within the supported range.
func (p Priority) IsValid() bool {
	return p >= PriorityHighest && p <= PriorityLowest
}

func (p Priority) Int() int { return int(p) }

func (p Priority) String() string { return strconv.Itoa(int(p)) }

// AllPriorities returns every supported priority, most urgent first.
func AllPriorities() []Priority {
	out := make([]Priority, 0, PriorityLowest)
	for p := PriorityHighest; p <= PriorityLowest; p++ {
		out = append(out, p)
	}
	return out
}
