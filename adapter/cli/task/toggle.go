package task

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:     "toggle [id]",
	Short:   "Mark a task done, or open again",
	Aliases: []string{"done"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		id, err := cli.ParseID(args[0])
		if err != nil {
			return err
		}

		result, err := app.Store.ToggleComplete(cmd.Context(), id)
		if err != nil && !errors.Is(err, task.ErrPersistence) {
			return fmt.Errorf("failed to toggle task: %w", err)
		}

		if result.Completed {
			fmt.Fprintf(cmd.OutOrStdout(), "Task completed: %d\n", result.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Task reopened: %d\n", result.ID)
		}
		return unsaved(result.ID, err)
	},
}
