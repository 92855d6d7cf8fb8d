package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/homework/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "homework",
	Short: "Homework - track assignments by teacher, deadline and priority",
	Long: `Homework keeps a list of school assignments: who set them, how many
pages they are, when they are due and how much they matter.

Tasks are ordered with unfinished work first, then by priority and deadline,
and every change is saved immediately.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx = context.WithValue(ctx, commandContextKey{}, info)
		ctx = observability.WithCorrelationID(ctx, info.correlationID.String())
		cmd.SetContext(ctx)

		if GetApp() == nil && loader != nil && cmd.Annotations[AnnotationNoApp] != "true" {
			a, err := loader(ctx)
			if err != nil {
				return err
			}
			SetApp(a)
		}

		if logger == nil {
			logger = slog.Default()
		}
		logger.InfoContext(ctx, "command start",
			"command", cmd.CommandPath(),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.InfoContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			observability.DurationKey, time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// AnnotationNoApp marks commands that run without opening the task store.
const AnnotationNoApp = "homework/no-app"

// Loader builds the App once flags are parsed.
type Loader func(ctx context.Context) (*App, error)

var loader Loader

// SetLoader registers the function that builds the App for commands that
// need one.
func SetLoader(l Loader) {
	loader = l
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (overrides HOMEWORK_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds commands to the root command.
func AddCommand(cmds ...*cobra.Command) {
	rootCmd.AddCommand(cmds...)
}

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// ConfigFile returns the value of the --config flag.
func ConfigFile() string {
	return cfgFile
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}
