// Package task holds the commands that create, change and read single
// homework tasks.
package task

import (
	"fmt"

	"github.com/felixgeelhaar/homework/adapter/cli"
	"github.com/spf13/cobra"
)

// Commands returns the task commands, registered at the root.
func Commands() []*cobra.Command {
	return []*cobra.Command{
		addCmd,
		editCmd,
		toggleCmd,
		deleteCmd,
		listCmd,
		showCmd,
	}
}

// unsaved reports a change the store kept in memory but could not write.
func unsaved(id int64, err error) error {
	return cli.Unsaved(fmt.Sprintf("task %d", id), err)
}
