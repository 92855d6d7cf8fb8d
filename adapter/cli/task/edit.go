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
	editTeacher     string
	editDescription string
	editPages       int
	editDeadline    string
	editPriority    int
)

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change fields of a task",
	Long: `Change one or more fields of a task. Only the flags you pass are
changed; completion state is kept.

Examples:
  homework edit 1741596000000 --pages 12
  homework edit 1741596000000 --deadline 2025-03-14 --priority 2`,
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

		update := application.UpdateTaskCommand{ID: id}
		flags := cmd.Flags()
		if flags.Changed("teacher") {
			update.Teacher = &editTeacher
		}
		if flags.Changed("description") {
			update.Description = &editDescription
		}
		if flags.Changed("pages") {
			update.PageCount = &editPages
		}
		if flags.Changed("priority") {
			update.Priority = &editPriority
		}
		if flags.Changed("deadline") {
			d, err := cli.ParseDeadline(editDeadline, app.Store.Now().Location())
			if err != nil {
				return err
			}
			update.Deadline = &d
		}
		if update.Teacher == nil && update.Description == nil && update.PageCount == nil &&
			update.Priority == nil && update.Deadline == nil {
			return fmt.Errorf("nothing to change: pass at least one of --teacher, --description, --pages, --deadline, --priority")
		}

		result, err := app.Store.Update(cmd.Context(), update)
		if err != nil && !errors.Is(err, task.ErrPersistence) {
			return fmt.Errorf("failed to update task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Task updated: %d\n", result.ID)
		cli.PrintTask(cmd.OutOrStdout(), result)
		return unsaved(result.ID, err)
	},
}

func init() {
	editCmd.Flags().StringVarP(&editTeacher, "teacher", "t", "", "new teacher")
	editCmd.Flags().StringVar(&editDescription, "description", "", "new description")
	editCmd.Flags().IntVarP(&editPages, "pages", "n", 0, "new page count")
	editCmd.Flags().StringVarP(&editDeadline, "deadline", "d", "", "new deadline")
	editCmd.Flags().IntVarP(&editPriority, "priority", "p", 0, "new priority from 1 (urgent) to 7")
}
