package cli

import (
	"github.com/felixgeelhaar/homework/adapter/tui"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	Short:   "Open the interactive task board",
	Aliases: []string{"tui"},
	Long: `Open a full-screen board with every task.

Keys:
  j/k, arrows   move
  space, x      toggle done
  d             delete (asks y/n)
  p             cycle the priority filter
  t             cycle the teacher filter
  q             quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		var opts []tui.Option
		if app.Bus != nil {
			opts = append(opts, tui.WithBus(app.Bus))
		}
		return tui.Run(cmd.Context(), app.Store, opts...)
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
