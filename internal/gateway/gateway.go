// Package gateway is the single channel through which the tracker's core
// issues commands. Every operation may fail with a *CommandError and callers
// are expected to handle the failure locally.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/yowainwright/tynamo/internal/core"
)

const (
	CmdListProcesses     = "list_processes"
	CmdGetTrackedApps    = "get_tracked_apps"
	CmdGetUsage          = "get_usage"
	CmdAddApp            = "add_app"
	CmdRemoveApp         = "remove_app"
	CmdUpdateApp         = "update_app"
	CmdUpdateDisplayName = "update_display_name"
	CmdTogglePause       = "toggle_pause"
)

// Commands lists every command name in the order the API documents them.
var Commands = []string{
	CmdListProcesses,
	CmdGetTrackedApps,
	CmdGetUsage,
	CmdAddApp,
	CmdRemoveApp,
	CmdUpdateApp,
	CmdUpdateDisplayName,
	CmdTogglePause,
}

type Gateway interface {
	ListProcesses(ctx context.Context) ([]core.ProcessInfo, error)
	GetTrackedApps(ctx context.Context) ([]core.TrackedApp, error)
	GetUsage(ctx context.Context) ([]core.AppUsage, error)
	AddApp(ctx context.Context, name, exePath string) error
	RemoveApp(ctx context.Context, name string, deleteUsage bool) error
	UpdateApp(ctx context.Context, name string, totalSeconds int64) error
	UpdateDisplayName(ctx context.Context, name, displayName string) error
	// TogglePause flips the paused flag and returns the new state.
	TogglePause(ctx context.Context, name string) (bool, error)
}

// CommandError wraps any transport or backend failure of a single command.
type CommandError struct {
	Command string
	Status  int
	Err     error
}

func (e *CommandError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed (status %d): %v", e.Command, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func wrap(command string, err error) error {
	if err == nil {
		return nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return err
	}
	return &CommandError{Command: command, Err: err}
}

// CommandOf reports which command produced err, or "" if err is not a
// *CommandError.
func CommandOf(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Command
	}
	return ""
}
