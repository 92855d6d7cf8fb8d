package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/homework/internal/app"
	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/homework/infrastructure/export"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homework/pkg/config"
	"github.com/felixgeelhaar/homework/pkg/observability"
)

// ErrNoApp is returned by commands that need the task store when none was
// initialized.
var ErrNoApp = errors.New("application not initialized - storage connection required")

// App holds the CLI application dependencies.
type App struct {
	Config   *config.Config
	Store    *application.Store
	Exporter *export.Exporter
	Health   *observability.HealthRegistry
	Bus      *eventbus.InProcessEventBus
}

// NewApp creates a CLI application backed by the container.
func NewApp(container *app.Container) *App {
	return &App{
		Config:   container.Config,
		Store:    container.Store,
		Exporter: container.Exporter,
		Health:   container.Health,
		Bus:      container.Bus,
	}
}

var currentApp *App

// SetApp sets the global app instance.
func SetApp(a *App) {
	currentApp = a
}

// GetApp returns the global app instance.
func GetApp() *App {
	return currentApp
}

// RequireApp returns the app or ErrNoApp when the store is unavailable.
func RequireApp() (*App, error) {
	if currentApp == nil || currentApp.Store == nil {
		return nil, ErrNoApp
	}
	return currentApp, nil
}

// Unsaved reports a change the store kept in memory but could not write.
// Other errors pass through unchanged.
func Unsaved(subject string, err error) error {
	if errors.Is(err, task.ErrPersistence) {
		return fmt.Errorf("%s changed but not saved: %w", subject, err)
	}
	return err
}
