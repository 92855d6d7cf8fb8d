package task

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/spf13/cobra"
)

var (
	addTeacher  string
	addPages    int
	addDeadline string
	addPriority int
)

var addCmd = &cobra.Command{
	Use:   "add [description]",
	Short: "Add a homework task",
	Long: `Add a task for a teacher. The deadline defaults to tomorrow at 23:59.
Priority runs from 1 (most urgent) to 7.

Examples:
  homework add "Complete detailed Notes" -t SP -n 30 -p 7
  homework add "LAB INDEX 3" --teacher SB --pages 5 --deadline "2025-03-12 08:00"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		createCmd := application.CreateTaskCommand{
			Teacher:     addTeacher,
			Description: args[0],
			PageCount:   addPages,
			Priority:    addPriority,
		}

		now := app.Store.Now()
		if addDeadline == "" {
			createCmd.Deadline = cli.DefaultDeadline(now)
		} else {
			createCmd.Deadline, err = cli.ParseDeadline(addDeadline, now.Location())
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		result, err := app.Store.Create(ctx, createCmd)
		if err != nil && !errors.Is(err, task.ErrPersistence) {
			return fmt.Errorf("failed to create task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task created: %d\n", result.ID)
		fmt.Fprintf(out, "  %s: %s\n", result.Teacher, result.Description)
		fmt.Fprintf(out, "  pages: %d  priority: %d  deadline: %s\n", result.PageCount, result.Priority, result.DeadlineLabel)

		return unsaved(result.ID, err)
	},
}

func init() {
	addCmd.Flags().StringVarP(&addTeacher, "teacher", "t", "", "teacher who set the task (required)")
	addCmd.Flags().IntVarP(&addPages, "pages", "n", 1, "number of pages")
	addCmd.Flags().StringVarP(&addDeadline, "deadline", "d", "", "deadline (YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339)")
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", 3, "priority from 1 (urgent) to 7")
	_ = addCmd.MarkFlagRequired("teacher")
}
