package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/homework/infrastructure/export"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/security"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks to JSON, CSV, PDF or iCalendar",
	Long: `Export every task. JSON is the backup format accepted by import;
CSV, PDF and ICS are for spreadsheets, printing and calendar apps.

Examples:
  homework export                          # JSON to stdout
  homework export -f csv -o tasks.csv
  homework export -f pdf -o homework.pdf
  homework export -f ics -o deadlines.ics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		data, err := app.Exporter.Export(cmd.Context(), format)
		if err != nil {
			return fmt.Errorf("failed to export tasks: %w", err)
		}

		if exportOutput == "" || exportOutput == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := security.WriteFile(exportOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported tasks to %s\n", exportOutput)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all tasks with a JSON export",
	Long: `Import a JSON export. The file must be a JSON array of tasks; anything
else is rejected and the current tasks are left untouched. Use "-" to read
from stdin.

Examples:
  homework import backup.json
  cat backup.json | homework import -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		var data []byte
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = security.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		n, err := app.Store.Deserialize(cmd.Context(), data)
		if errors.Is(err, task.ErrPersistence) {
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", n)
			return Unsaved(fmt.Sprintf("%d imported tasks", n), err)
		}
		if err != nil {
			return fmt.Errorf("failed to import tasks: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", n)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatJSON), "export format (json, csv, pdf, ics)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
