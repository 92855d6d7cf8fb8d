package application

import "time"

// SampleTasks returns the example tasks offered on first start, with
// deadlines relative to now.
func SampleTasks(now time.Time) []CreateTaskCommand {
	return []CreateTaskCommand{
		{
			Teacher:     "SP",
			Description: "Complete detailed Notes",
			PageCount:   30,
			Deadline:    now.Add(48 * time.Hour),
			Priority:    7,
		},
		{
			Teacher:     "Computer Physics",
			Description: "LAB INDEX 3 & 4",
			PageCount:   20,
			Deadline:    now.Add(24 * time.Hour),
			Priority:    5,
		},
		{
			Teacher:     "SB",
			Description: "LAB INDEX 3 INITIAL",
			PageCount:   5,
			Deadline:    now.Add(24 * time.Hour),
			Priority:    3,
		},
	}
}
