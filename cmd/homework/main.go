package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/adapter/cli/mcp"
	"github.com/felixgeelhaar/homework/adapter/cli/task"
	"github.com/felixgeelhaar/homework/internal/app"
	"github.com/felixgeelhaar/homework/pkg/config"
	"github.com/felixgeelhaar/homework/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var container *app.Container
	cli.SetLoader(func(ctx context.Context) (*cli.App, error) {
		if path := cli.ConfigFile(); path != "" {
			if err := os.Setenv("HOMEWORK_CONFIG", path); err != nil {
				return nil, err
			}
		}

		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}

		logCfg := cfg.LogConfig(cli.Version)
		if cli.Verbose() {
			logCfg.Level = observability.LogLevelDebug
		}
		logger := observability.NewLogger(logCfg)
		cli.SetLogger(logger)

		container, err = app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open task store: %w", err)
		}
		return cli.NewApp(container), nil
	})

	cli.AddCommand(task.Commands()...)
	cli.AddCommand(mcp.Cmd)

	err := cli.Execute(ctx)
	if container != nil {
		if cerr := container.Close(); cerr != nil {
			slog.Warn("failed to close container", observability.ErrorKey, cerr)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}
