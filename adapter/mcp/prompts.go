package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common homework workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("homework_plan").
		Description("Plan which homework to do next, based on deadlines, priorities and page counts.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Homework Planning",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me decide what homework to do next. Please:

1. Read the open tasks from the homework://tasks/open resource
2. Check homework://tasks/overdue for anything already late
3. Look at homework://stats for the total workload

Then:
- List overdue tasks first and suggest whether to finish or renegotiate them
- Order the remaining tasks by deadline and priority (1 is most urgent)
- Estimate the work per day from the page counts until each deadline
- Flag any day that has more pages due than is realistic

Use homework.task.toggle when I say something is done.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("homework_add_from_notes").
		Description("Turn free-form notes from class into homework tasks.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			notes := args["notes"]
			return &mcp.PromptResult{
				Description: "Add Homework From Notes",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Read these class notes and create one homework task per assignment with
the homework.task.create tool. Each task needs a teacher, a short
description, a page count, a deadline and a priority from 1 (most urgent)
to 7. Check homework://teachers first and reuse existing teacher names
exactly. Ask me before guessing a deadline.

Notes:
` + notes,
						},
					},
				},
			}, nil
		})

	return nil
}
