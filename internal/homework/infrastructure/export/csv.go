package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/application"
)

var csvHeader = []string{
	"id", "teacher", "task", "pages", "deadline", "priority",
	"completed", "created_at", "completed_at", "urgency",
}

const csvTimeLayout = "2006-01-02 15:04"

func renderCSV(tasks []application.TaskDTO, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		completedAt := ""
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.In(loc).Format(csvTimeLayout)
		}
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Teacher,
			t.Description,
			strconv.Itoa(t.PageCount),
			t.Deadline.In(loc).Format(csvTimeLayout),
			strconv.Itoa(t.Priority),
			strconv.FormatBool(t.Completed),
			t.CreatedAt.In(loc).Format(csvTimeLayout),
			completedAt,
			t.Urgency,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
