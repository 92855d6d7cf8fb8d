package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/jung-kurt/gofpdf"
)

type pdfColumn struct {
	title string
	width float64
	align string
}

var pdfColumns = []pdfColumn{
	{"Teacher", 34, "L"},
	{"Task", 62, "L"},
	{"Pages", 14, "R"},
	{"Deadline", 30, "L"},
	{"Prio", 12, "C"},
	{"Status", 28, "L"},
}

func renderPDF(tasks []application.TaskDTO, stats application.Stats, now time.Time, loc *time.Location) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Homework Report", true)
	pdf.SetCreationDate(now)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Homework Report")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", now.In(loc).Format("2006-01-02 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("%d tasks, %d completed, %d pending, %d overdue, %d pages",
		stats.TotalTasks, stats.CompletedTasks, stats.PendingTasks, stats.OverdueTasks, stats.TotalPages))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, t := range tasks {
		status := t.DeadlineLabel
		if t.Completed {
			status = "Done"
		}
		cells := []string{
			t.Teacher,
			t.Description,
			strconv.Itoa(t.PageCount),
			t.Deadline.In(loc).Format("2006-01-02 15:04"),
			strconv.Itoa(t.Priority),
			status,
		}
		if t.Urgency == "overdue" && !t.Completed {
			pdf.SetTextColor(200, 30, 30)
		}
		for i, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, fitCell(pdf, tr, cells[i], c.width-2), "1", 0, c.align, false, 0, "")
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fitCell translates UTF-8 text s for the core fonts and shortens it with
// an ellipsis until it fits width. Runes are dropped before translation so
// a multi-byte character is never split.
func fitCell(pdf *gofpdf.Fpdf, tr func(string) string, s string, width float64) string {
	if out := tr(s); pdf.GetStringWidth(out) <= width {
		return out
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r))+"...") > width {
		r = r[:len(r)-1]
	}
	return tr(string(r)) + "..."
}
