package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"unicode/utf8"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/homework/infrastructure/export"
	"github.com/felixgeelhaar/homework/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

type exportInput struct {
	Format string `json:"format,omitempty"`
}

type exportOutput struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	// Encoding is "utf-8" for text formats and "base64" for PDF.
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type importInput struct {
	Content string `json:"content" jsonschema:"required"`
}

type coreTools struct {
	app *cli.App
}

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	tools := coreTools{app: deps.App}

	srv.Tool("homework.teachers").
		Description("List every teacher that has tasks, sorted").
		Handler(tools.teachers)

	srv.Tool("homework.stats").
		Description("Totals over all tasks: count, completed, pending, overdue and pages").
		Handler(tools.stats)

	srv.Tool("homework.export").
		Description("Export all tasks as json (importable backup), csv, pdf (base64) or ics").
		Handler(tools.export)

	srv.Tool("homework.import").
		Description("Replace all tasks with a JSON export. Anything but a JSON array of tasks is rejected and nothing changes.").
		Handler(tools.importTasks)

	srv.Tool("homework.health").
		Description("Check storage and broker health").
		Handler(tools.health)

	return nil
}

func (t coreTools) teachers(ctx context.Context, _ struct{}) ([]string, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	return t.app.Store.TeacherCatalog(ctx), nil
}

func (t coreTools) stats(ctx context.Context, _ struct{}) (*application.Stats, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	st := t.app.Store.Stats(ctx)
	return &st, nil
}

func (t coreTools) export(ctx context.Context, input exportInput) (*exportOutput, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	name := input.Format
	if name == "" {
		name = string(export.FormatJSON)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	data, err := t.app.Exporter.Export(ctx, format)
	if err != nil {
		return nil, err
	}

	out := &exportOutput{
		Format:      string(format),
		ContentType: format.ContentType(),
		Filename:    "homework" + format.Extension(),
		Encoding:    "utf-8",
		Content:     string(data),
	}
	if format == export.FormatPDF || !utf8.Valid(data) {
		out.Encoding = "base64"
		out.Content = base64.StdEncoding.EncodeToString(data)
	}
	return out, nil
}

func (t coreTools) importTasks(ctx context.Context, input importInput) (map[string]any, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	if input.Content == "" {
		return nil, errors.New("content is required")
	}
	n, err := t.app.Store.Deserialize(ctx, []byte(input.Content))
	if err != nil && !errors.Is(err, task.ErrPersistence) {
		return nil, err
	}
	out := map[string]any{"imported": n, "saved": err == nil}
	if err != nil {
		out["warning"] = err.Error()
	}
	return out, nil
}

func (t coreTools) health(ctx context.Context, _ struct{}) (*observability.OverallHealth, error) {
	if t.app == nil || t.app.Health == nil {
		return nil, errors.New("health checks not configured")
	}
	report := t.app.Health.GetOverallHealth(ctx)
	return &report, nil
}
