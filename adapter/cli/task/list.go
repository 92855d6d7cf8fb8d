package task

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/spf13/cobra"
)

var (
	listTeacher  string
	listPriority int
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks: unfinished first, then by priority, then by deadline.

Filter Options:
  --teacher     Only teachers whose name contains the text (case-insensitive)
  --priority    Only tasks with this priority (1-7)

Examples:
  homework list
  homework list --teacher sp
  homework list --priority 1 --json`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		filter := application.ListFilter{TeacherSubstring: listTeacher}
		if cmd.Flags().Changed("priority") {
			p := listPriority
			filter.Priority = &p
		}

		tasks := app.Store.List(cmd.Context(), filter)
		out := cmd.OutOrStdout()

		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		}

		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		fmt.Fprintf(out, "Tasks (%d):\n", len(tasks))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, t := range tasks {
			cli.PrintTaskLine(out, t)
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listTeacher, "teacher", "t", "", "filter by teacher name")
	listCmd.Flags().IntVarP(&listPriority, "priority", "p", 0, "filter by priority (1-7)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print tasks as JSON")
}
