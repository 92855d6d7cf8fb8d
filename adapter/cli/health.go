package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/felixgeelhaar/homework/pkg/observability"
	"github.com/spf13/cobra"
)

// ErrUnhealthy is returned by the health command when any check fails.
var ErrUnhealthy = errors.New("unhealthy")

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage and broker health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if app.Health == nil {
			return fmt.Errorf("health checks not configured")
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		report := app.Health.GetOverallHealth(ctx)
		if healthJSON {
			data, err := report.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		} else {
			printHealth(out, report)
		}

		if report.Status == observability.HealthStatusUnhealthy {
			return ErrUnhealthy
		}
		return nil
	},
}

func printHealth(w io.Writer, report observability.OverallHealth) {
	fmt.Fprintf(w, "status: %s\n", report.Status)
	names := make([]string, 0, len(report.Checks))
	for name := range report.Checks {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := report.Checks[name]
		fmt.Fprintf(w, "  %-8s %-9s %s\n", name, c.Status, c.Message)
	}
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(healthCmd)
}
