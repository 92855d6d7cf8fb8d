package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	Long: `Display totals over the whole collection, regardless of filters:
task count, completed and pending tasks, overdue tasks and total pages.

Examples:
  homework stats
  homework stats --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		st := app.Store.Stats(cmd.Context())
		out := cmd.OutOrStdout()
		if statsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		fmt.Fprintln(out, "Homework Stats")
		fmt.Fprintln(out, "==============")
		PrintStats(out, st)
		return nil
	},
}

var teachersCmd = &cobra.Command{
	Use:   "teachers",
	Short: "List every teacher with tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		teachers := app.Store.TeacherCatalog(cmd.Context())
		out := cmd.OutOrStdout()
		if len(teachers) == 0 {
			fmt.Fprintln(out, "No teachers yet.")
			return nil
		}
		for _, t := range teachers {
			fmt.Fprintln(out, t)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print stats as JSON")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(teachersCmd)
}
