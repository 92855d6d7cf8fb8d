package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/homework/infrastructure/export"
	"github.com/felixgeelhaar/mcp-go"
)

type resourceHandler = func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error)

// RegisterResources registers MCP resources that expose the task collection.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("homework://tasks").
		Name("Tasks").
		Description("All tasks in display order").
		MimeType("application/json").
		Handler(tasksResource(app, func(application.TaskDTO) bool { return true }))

	srv.Resource("homework://tasks/open").
		Name("Open Tasks").
		Description("Tasks that are not completed").
		MimeType("application/json").
		Handler(tasksResource(app, func(t application.TaskDTO) bool { return !t.Completed }))

	srv.Resource("homework://tasks/overdue").
		Name("Overdue Tasks").
		Description("Open tasks whose deadline has passed").
		MimeType("application/json").
		Handler(tasksResource(app, func(t application.TaskDTO) bool {
			return !t.Completed && task.Urgency(t.Urgency) == task.UrgencyOverdue
		}))

	srv.Resource("homework://stats").
		Name("Stats").
		Description("Task and page totals").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if err := requireApp(app); err != nil {
				return nil, err
			}
			return jsonContent(uri, app.Store.Stats(ctx))
		})

	srv.Resource("homework://teachers").
		Name("Teachers").
		Description("Every teacher that has tasks").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if err := requireApp(app); err != nil {
				return nil, err
			}
			return jsonContent(uri, app.Store.TeacherCatalog(ctx))
		})

	srv.Resource("homework://calendar.ics").
		Name("Deadline Calendar").
		Description("Every task as an iCalendar VTODO").
		MimeType(export.FormatICS.ContentType()).
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if err := requireApp(app); err != nil {
				return nil, err
			}
			data, err := app.Exporter.Export(ctx, export.FormatICS)
			if err != nil {
				return nil, err
			}
			return &mcp.ResourceContent{
				URI:      uri,
				MimeType: export.FormatICS.ContentType(),
				Text:     string(data),
			}, nil
		})

	return nil
}

func tasksResource(app *cli.App, keep func(application.TaskDTO) bool) resourceHandler {
	return func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
		if err := requireApp(app); err != nil {
			return nil, err
		}
		all := app.Store.List(ctx, application.ListFilter{})
		tasks := make([]application.TaskDTO, 0, len(all))
		for _, t := range all {
			if keep(t) {
				tasks = append(tasks, t)
			}
		}
		return jsonContent(uri, tasks)
	}
}

func jsonContent(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
