package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/mcp-go"
)

type taskCreateInput struct {
	Teacher     string `json:"teacher" jsonschema:"required"`
	Description string `json:"description" jsonschema:"required"`
	Pages       int    `json:"pages" jsonschema:"required"`
	Deadline    string `json:"deadline,omitempty"`
	Priority    int    `json:"priority" jsonschema:"required"`
}

type taskUpdateInput struct {
	TaskID      int64   `json:"task_id" jsonschema:"required"`
	Teacher     *string `json:"teacher,omitempty"`
	Description *string `json:"description,omitempty"`
	Pages       *int    `json:"pages,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
}

type taskListInput struct {
	Teacher  string `json:"teacher,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

type taskIDInput struct {
	TaskID int64 `json:"task_id" jsonschema:"required"`
}

type taskTools struct {
	app *cli.App
}

func registerTaskTools(srv *mcp.Server, deps ToolDependencies) error {
	tools := taskTools{app: deps.App}

	srv.Tool("homework.task.create").
		Description("Create a homework task. Deadline accepts YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339 and defaults to tomorrow 23:59. Priority runs from 1 (most urgent) to 7.").
		Handler(tools.create)

	srv.Tool("homework.task.update").
		Description("Change fields of a task. Omitted fields are kept.").
		Handler(tools.update)

	srv.Tool("homework.task.toggle").
		Description("Mark a task complete, or incomplete again").
		Handler(tools.toggle)

	srv.Tool("homework.task.delete").
		Description("Delete a task").
		Handler(tools.delete)

	srv.Tool("homework.task.get").
		Description("Get one task").
		Handler(tools.get)

	srv.Tool("homework.task.list").
		Description("List tasks, incomplete first, then by priority and deadline. Filter by teacher substring and priority.").
		Handler(tools.list)

	return nil
}

func (t taskTools) create(ctx context.Context, input taskCreateInput) (*taskResult, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(input.Deadline, t.app.Store.Now())
	if err != nil {
		return nil, err
	}
	return changeResult(t.app.Store.Create(ctx, application.CreateTaskCommand{
		Teacher:     input.Teacher,
		Description: input.Description,
		PageCount:   input.Pages,
		Deadline:    deadline,
		Priority:    input.Priority,
	}))
}

func (t taskTools) update(ctx context.Context, input taskUpdateInput) (*taskResult, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	if err := requireID(input.TaskID); err != nil {
		return nil, err
	}

	cmd := application.UpdateTaskCommand{
		ID:          input.TaskID,
		Teacher:     input.Teacher,
		Description: input.Description,
		PageCount:   input.Pages,
		Priority:    input.Priority,
	}
	if input.Deadline != nil {
		d, err := cli.ParseDeadline(*input.Deadline, t.app.Store.Now().Location())
		if err != nil {
			return nil, err
		}
		cmd.Deadline = &d
	}
	return changeResult(t.app.Store.Update(ctx, cmd))
}

func (t taskTools) toggle(ctx context.Context, input taskIDInput) (*taskResult, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	if err := requireID(input.TaskID); err != nil {
		return nil, err
	}
	return changeResult(t.app.Store.ToggleComplete(ctx, input.TaskID))
}

func (t taskTools) delete(ctx context.Context, input taskIDInput) (map[string]any, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	if err := requireID(input.TaskID); err != nil {
		return nil, err
	}

	existing, err := t.app.Store.Get(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	result, err := changeResult(existing, t.app.Store.Delete(ctx, input.TaskID))
	if err != nil {
		return nil, err
	}
	out := map[string]any{"task_id": input.TaskID, "deleted": true, "saved": result.Saved}
	if result.Warning != "" {
		out["warning"] = result.Warning
	}
	return out, nil
}

func (t taskTools) get(ctx context.Context, input taskIDInput) (*application.TaskDTO, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	if err := requireID(input.TaskID); err != nil {
		return nil, err
	}
	dto, err := t.app.Store.Get(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (t taskTools) list(ctx context.Context, input taskListInput) ([]application.TaskDTO, error) {
	if err := requireApp(t.app); err != nil {
		return nil, err
	}
	filter := application.ListFilter{TeacherSubstring: input.Teacher}
	if input.Priority != 0 {
		if input.Priority < 1 || input.Priority > 7 {
			return nil, fmt.Errorf("priority must be between 1 and 7")
		}
		p := input.Priority
		filter.Priority = &p
	}
	return t.app.Store.List(ctx, filter), nil
}
