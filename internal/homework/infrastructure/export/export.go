// Package export renders the task collection in the formats the CLI and
// MCP adapters offer for download.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/pkg/observability"
)

// Format names an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatICS  Format = "ics"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatPDF, FormatICS}
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want json, csv, pdf or ics)", name)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// ContentType returns the MIME type of the rendered document.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	case FormatICS:
		return "text/calendar"
	default:
		return "application/json"
	}
}

// Source is the read side of the task store.
type Source interface {
	Serialize(ctx context.Context) ([]byte, error)
	List(ctx context.Context, filter application.ListFilter) []application.TaskDTO
	Stats(ctx context.Context) application.Stats
	Now() time.Time
}

// Exporter renders the collection. JSON is the lossless exchange document
// accepted by import; the other formats are one-way.
type Exporter struct {
	src      Source
	location *time.Location
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewExporter creates an exporter that prints times in loc, or local time when loc is nil.
func NewExporter(src Source, loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{src: src, location: loc}
}

// Instrument records each export as an "export.<format>" operation.
func (e *Exporter) Instrument(logger *slog.Logger, metrics observability.Metrics) *Exporter {
	e.logger = logger
	e.metrics = metrics
	return e
}

// Export renders every task in the given format.
func (e *Exporter) Export(ctx context.Context, format Format) ([]byte, error) {
	if e.metrics == nil && e.logger == nil {
		return e.render(ctx, format)
	}
	return observability.TimeOperationResult(ctx, e.logger, e.metrics, "export."+string(format), func() ([]byte, error) {
		return e.render(ctx, format)
	})
}

func (e *Exporter) render(ctx context.Context, format Format) ([]byte, error) {
	if format == FormatJSON {
		return e.src.Serialize(ctx)
	}

	tasks := e.src.List(ctx, application.ListFilter{})
	switch format {
	case FormatCSV:
		return renderCSV(tasks, e.location)
	case FormatPDF:
		return renderPDF(tasks, e.src.Stats(ctx), e.src.Now(), e.location)
	case FormatICS:
		return renderICS(tasks, e.src.Now())
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
