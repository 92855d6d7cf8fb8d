package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
	"github.com/felixgeelhaar/homework/internal/homework/application"
)

const icsProductID = "-//Homework//Task Export//EN"

// renderICS writes one VTODO per task. Priorities 1..7 map directly onto
// the iCalendar scale where 1 is the highest.
func renderICS(tasks []application.TaskDTO, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	for _, t := range tasks {
		cal.Children = append(cal.Children, toTodo(t, now))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func toTodo(t application.TaskDTO, now time.Time) *ical.Component {
	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, fmt.Sprintf("homework-%d", t.ID))
	todo.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	todo.Props.SetDateTime(ical.PropCreated, t.CreatedAt.UTC())
	todo.Props.SetDateTime(ical.PropDue, t.Deadline.UTC())
	todo.Props.SetText(ical.PropSummary, fmt.Sprintf("%s: %s", t.Teacher, t.Description))
	todo.Props.SetText(ical.PropDescription, fmt.Sprintf("Pages: %d", t.PageCount))
	todo.Props.SetText(ical.PropCategories, t.Teacher)

	priority := ical.NewProp(ical.PropPriority)
	priority.Value = strconv.Itoa(t.Priority)
	todo.Props.Set(priority)

	if t.UpdatedAt != nil {
		todo.Props.SetDateTime(ical.PropLastModified, t.UpdatedAt.UTC())
	}
	if t.Completed {
		todo.Props.SetText(ical.PropStatus, "COMPLETED")
		if t.CompletedAt != nil {
			todo.Props.SetDateTime(ical.PropCompleted, t.CompletedAt.UTC())
		}
	} else {
		todo.Props.SetText(ical.PropStatus, "NEEDS-ACTION")
	}
	return todo
}
