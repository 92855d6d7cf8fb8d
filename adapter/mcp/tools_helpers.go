package mcp

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
)

var errNoStore = errors.New("task store not available")

func requireApp(app *cli.App) error {
	if app == nil || app.Store == nil {
		return errNoStore
	}
	return nil
}

func parseDeadline(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return cli.DefaultDeadline(now), nil
	}
	return cli.ParseDeadline(value, now.Location())
}

func requireID(id int64) error {
	if id <= 0 {
		return errors.New("task_id is required")
	}
	return nil
}

// taskResult reports a change. Saved is false when the store kept the
// change in memory but could not write it through.
type taskResult struct {
	Task    application.TaskDTO `json:"task"`
	Saved   bool                `json:"saved"`
	Warning string              `json:"warning,omitempty"`
}

// changeResult turns a store return into a tool result. Persistence
// failures become a warning; any other error is returned.
func changeResult(dto application.TaskDTO, err error) (*taskResult, error) {
	if err != nil && !errors.Is(err, task.ErrPersistence) {
		return nil, err
	}
	result := &taskResult{Task: dto, Saved: err == nil}
	if err != nil {
		result.Warning = err.Error()
	}
	return result, nil
}
