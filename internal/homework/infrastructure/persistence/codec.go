package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
)

// isoLayout matches what browsers emit for Date.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Layouts without a zone, as produced by a datetime-local form field.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// taskRecord is the stored and exported form of a task.
type taskRecord struct {
	ID          int64   `json:"id"`
	Teacher     string  `json:"teacher"`
	Task        string  `json:"task"`
	Pages       int     `json:"pages"`
	Deadline    string  `json:"deadline"`
	Priority    int     `json:"priority"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt,omitempty"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// Codec converts task collections to and from the JSON array format.
type Codec struct {
	// Location interprets timestamps that carry no zone.
	Location *time.Location
}

// NewCodec returns a codec that reads zone-less timestamps in local time.
func NewCodec() *Codec {
	return &Codec{Location: time.Local}
}

// Encode writes the collection as a two-space indented JSON array ordered by id.
func (c *Codec) Encode(tasks []*task.Task) ([]byte, error) {
	records := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, toRecord(t.Snapshot()))
	}
	slices.SortFunc(records, func(a, b taskRecord) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return json.MarshalIndent(records, "", "  ")
}

// Decode parses and validates a JSON array of task records. Every failure
// is a *task.ImportError and nothing is returned alongside it.
func (c *Codec) Decode(data []byte) ([]*task.Task, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &task.ImportError{Reason: "content is empty"}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &task.ImportError{Reason: "content is not valid JSON", Err: err}
	}
	if _, ok := doc.([]any); !ok {
		return nil, &task.ImportError{Reason: "expected a JSON array of tasks"}
	}
	if err := validateDocument(doc); err != nil {
		return nil, &task.ImportError{Reason: "task records do not match the schema", Err: err}
	}

	var records []taskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &task.ImportError{Reason: "task records could not be decoded", Err: err}
	}

	tasks := make([]*task.Task, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for i, r := range records {
		if _, dup := seen[r.ID]; dup {
			return nil, &task.ImportError{Reason: fmt.Sprintf("record %d reuses id %d", i, r.ID)}
		}
		seen[r.ID] = struct{}{}

		state, err := c.fromRecord(r)
		if err != nil {
			return nil, &task.ImportError{Reason: fmt.Sprintf("record %d", i), Err: err}
		}
		t, err := task.Rehydrate(state)
		if err != nil {
			return nil, &task.ImportError{Reason: fmt.Sprintf("record %d", i), Err: err}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func toRecord(s task.State) taskRecord {
	return taskRecord{
		ID:          s.ID,
		Teacher:     s.Teacher,
		Task:        s.Description,
		Pages:       s.PageCount,
		Deadline:    formatTime(s.Deadline),
		Priority:    s.Priority,
		Completed:   s.Completed,
		CreatedAt:   formatTime(s.CreatedAt),
		UpdatedAt:   formatOptional(s.UpdatedAt),
		CompletedAt: formatOptional(s.CompletedAt),
	}
}

func (c *Codec) fromRecord(r taskRecord) (task.State, error) {
	deadline, err := c.parseTime("deadline", r.Deadline)
	if err != nil {
		return task.State{}, err
	}

	// Records without createdAt fall back to the millisecond id.
	createdAt := time.UnixMilli(r.ID).UTC()
	if r.CreatedAt != "" {
		if createdAt, err = c.parseTime("createdAt", r.CreatedAt); err != nil {
			return task.State{}, err
		}
	}

	updatedAt, err := c.parseOptional("updatedAt", r.UpdatedAt)
	if err != nil {
		return task.State{}, err
	}
	completedAt, err := c.parseOptional("completedAt", r.CompletedAt)
	if err != nil {
		return task.State{}, err
	}

	return task.State{
		ID:          r.ID,
		Teacher:     r.Teacher,
		Description: r.Task,
		PageCount:   r.Pages,
		Deadline:    deadline,
		Priority:    r.Priority,
		Completed:   r.Completed,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		CompletedAt: completedAt,
	}, nil
}

func (c *Codec) parseTime(field, value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &task.ValidationError{Field: field, Reason: fmt.Sprintf("unrecognised timestamp %q", value)}
}

func (c *Codec) parseOptional(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := c.parseTime(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
