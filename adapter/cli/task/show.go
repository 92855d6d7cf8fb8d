package task

import (
	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		id, err := cli.ParseID(args[0])
		if err != nil {
			return err
		}

		t, err := app.Store.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		cli.PrintTask(cmd.OutOrStdout(), t)
		return nil
	},
}
