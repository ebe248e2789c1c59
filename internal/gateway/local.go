package gateway

import (
	"context"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/storage"
)

// ProcessLister enumerates live processes.
type ProcessLister func(ctx context.Context) ([]core.ProcessInfo, error)

// Local serves commands in-process straight from a storage backend. It is
// used when no daemon is running and by the daemon's own HTTP handlers.
type Local struct {
	store storage.Storage
	list  ProcessLister
}

func NewLocal(store storage.Storage, list ProcessLister) *Local {
	return &Local{store: store, list: list}
}

func (l *Local) ListProcesses(ctx context.Context) ([]core.ProcessInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(CmdListProcesses, err)
	}
	procs, err := l.list(ctx)
	if err != nil {
		return nil, wrap(CmdListProcesses, err)
	}
	return procs, nil
}

func (l *Local) GetTrackedApps(ctx context.Context) ([]core.TrackedApp, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(CmdGetTrackedApps, err)
	}
	apps, err := l.store.GetApps()
	if err != nil {
		return nil, wrap(CmdGetTrackedApps, err)
	}
	return apps, nil
}

func (l *Local) GetUsage(ctx context.Context) ([]core.AppUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(CmdGetUsage, err)
	}
	usage, err := l.store.GetUsage()
	if err != nil {
		return nil, wrap(CmdGetUsage, err)
	}
	return usage, nil
}

func (l *Local) AddApp(ctx context.Context, name, exePath string) error {
	if err := ctx.Err(); err != nil {
		return wrap(CmdAddApp, err)
	}
	_, err := l.store.AddApp(name, exePath)
	return wrap(CmdAddApp, err)
}

func (l *Local) RemoveApp(ctx context.Context, name string, deleteUsage bool) error {
	if err := ctx.Err(); err != nil {
		return wrap(CmdRemoveApp, err)
	}
	return wrap(CmdRemoveApp, l.store.RemoveApp(name, deleteUsage))
}

func (l *Local) UpdateApp(ctx context.Context, name string, totalSeconds int64) error {
	if err := ctx.Err(); err != nil {
		return wrap(CmdUpdateApp, err)
	}
	return wrap(CmdUpdateApp, l.store.SetUsage(name, totalSeconds))
}

func (l *Local) UpdateDisplayName(ctx context.Context, name, displayName string) error {
	if err := ctx.Err(); err != nil {
		return wrap(CmdUpdateDisplayName, err)
	}
	return wrap(CmdUpdateDisplayName, l.store.SetDisplayName(name, displayName))
}

func (l *Local) TogglePause(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, wrap(CmdTogglePause, err)
	}
	paused, err := l.store.TogglePause(name)
	if err != nil {
		return false, wrap(CmdTogglePause, err)
	}
	return paused, nil
}
