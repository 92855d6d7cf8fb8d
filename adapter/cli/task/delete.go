package task

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete [id]",
	Short:   "Delete a task",
	Aliases: []string{"rm"},
	Long: `Delete a task. Asks for confirmation unless --yes is given.

Examples:
  homework delete 1741596000000
  homework delete 1741596000000 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		id, err := cli.ParseID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		existing, err := app.Store.Get(ctx, id)
		if err != nil {
			return err
		}

		if !deleteYes {
			question := fmt.Sprintf("Delete %q for %s?", existing.Description, existing.Teacher)
			ok, err := cli.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}

		err = app.Store.Delete(ctx, id)
		if err != nil && !errors.Is(err, task.ErrPersistence) {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: %d\n", id)
		return unsaved(id, err)
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}
