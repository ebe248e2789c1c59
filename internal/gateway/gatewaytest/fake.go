// Package gatewaytest provides an in-memory gateway for tests.
package gatewaytest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/gateway"
)

var ErrNotFound = errors.New("app not found")

// Call records one command issued to a Fake.
type Call struct {
	Command      string
	Name         string
	ExePath      string
	DeleteUsage  bool
	TotalSeconds int64
	DisplayName  string
}

// Fake is a gateway.Gateway backed by in-memory state. Failures can be
// injected per command, and the three reads can be overridden to control
// when and in what order they return.
type Fake struct {
	mu     sync.Mutex
	apps   []core.TrackedApp
	usage  map[string]core.AppUsage
	procs  []core.ProcessInfo
	nextID int64
	fail   map[string]error
	calls  []Call

	ListProcessesFunc  func(ctx context.Context) ([]core.ProcessInfo, error)
	GetTrackedAppsFunc func(ctx context.Context) ([]core.TrackedApp, error)
	GetUsageFunc       func(ctx context.Context) ([]core.AppUsage, error)
}

var _ gateway.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		usage:  map[string]core.AppUsage{},
		nextID: 1,
		fail:   map[string]error{},
	}
}

// Track seeds a tracked app with usage.
func (f *Fake) Track(name string, totalSeconds int64) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = append(f.apps, core.TrackedApp{ID: f.nextID, Name: name})
	f.nextID++
	f.usage[name] = core.AppUsage{Name: name, TotalSeconds: totalSeconds}
	return f
}

// TrackWithoutUsage seeds a tracked app that has no usage record.
func (f *Fake) TrackWithoutUsage(name string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = append(f.apps, core.TrackedApp{ID: f.nextID, Name: name})
	f.nextID++
	return f
}

func (f *Fake) SetProcesses(procs ...core.ProcessInfo) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs = append([]core.ProcessInfo(nil), procs...)
	return f
}

func (f *Fake) SetUsage(name string, totalSeconds int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.usage[name]
	u.Name = name
	u.TotalSeconds = totalSeconds
	f.usage[name] = u
}

// Fail makes every later call to command return err. A nil err clears it.
func (f *Fake) Fail(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, command)
		return
	}
	f.fail[command] = err
}

// Calls returns the commands issued so far, in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the calls issued for one command.
func (f *Fake) CallsTo(command string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Command == command {
			out = append(out, c)
		}
	}
	return out
}

// Mutations returns calls that change state.
func (f *Fake) Mutations() []Call {
	var out []Call
	for _, c := range f.Calls() {
		switch c.Command {
		case gateway.CmdListProcesses, gateway.CmdGetTrackedApps, gateway.CmdGetUsage:
		default:
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if err := f.fail[c.Command]; err != nil {
		return &gateway.CommandError{Command: c.Command, Err: err}
	}
	return nil
}

func (f *Fake) indexOf(name string) int {
	for i, app := range f.apps {
		if app.Name == name {
			return i
		}
	}
	return -1
}

func (f *Fake) ListProcesses(ctx context.Context) ([]core.ProcessInfo, error) {
	if err := f.record(Call{Command: gateway.CmdListProcesses}); err != nil {
		return nil, err
	}
	if f.ListProcessesFunc != nil {
		return f.ListProcessesFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.ProcessInfo(nil), f.procs...), nil
}

func (f *Fake) GetTrackedApps(ctx context.Context) ([]core.TrackedApp, error) {
	if err := f.record(Call{Command: gateway.CmdGetTrackedApps}); err != nil {
		return nil, err
	}
	if f.GetTrackedAppsFunc != nil {
		return f.GetTrackedAppsFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.TrackedApp(nil), f.apps...), nil
}

func (f *Fake) GetUsage(ctx context.Context) ([]core.AppUsage, error) {
	if err := f.record(Call{Command: gateway.CmdGetUsage}); err != nil {
		return nil, err
	}
	if f.GetUsageFunc != nil {
		return f.GetUsageFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.AppUsage, 0, len(f.usage))
	for _, u := range f.usage {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Fake) AddApp(ctx context.Context, name, exePath string) error {
	if err := f.record(Call{Command: gateway.CmdAddApp, Name: name, ExePath: exePath}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexOf(name) >= 0 {
		return &gateway.CommandError{Command: gateway.CmdAddApp, Err: errors.New("app already exists")}
	}
	f.apps = append(f.apps, core.TrackedApp{ID: f.nextID, Name: name, ExePath: exePath})
	f.nextID++
	if _, ok := f.usage[name]; !ok {
		f.usage[name] = core.AppUsage{Name: name}
	}
	return nil
}

func (f *Fake) RemoveApp(ctx context.Context, name string, deleteUsage bool) error {
	if err := f.record(Call{Command: gateway.CmdRemoveApp, Name: name, DeleteUsage: deleteUsage}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.indexOf(name)
	if idx < 0 {
		return &gateway.CommandError{Command: gateway.CmdRemoveApp, Err: ErrNotFound}
	}
	f.apps = append(f.apps[:idx:idx], f.apps[idx+1:]...)
	if deleteUsage {
		delete(f.usage, name)
	}
	return nil
}

func (f *Fake) UpdateApp(ctx context.Context, name string, totalSeconds int64) error {
	if err := f.record(Call{Command: gateway.CmdUpdateApp, Name: name, TotalSeconds: totalSeconds}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexOf(name) < 0 {
		return &gateway.CommandError{Command: gateway.CmdUpdateApp, Err: ErrNotFound}
	}
	u := f.usage[name]
	u.Name = name
	u.TotalSeconds = totalSeconds
	f.usage[name] = u
	return nil
}

func (f *Fake) UpdateDisplayName(ctx context.Context, name, displayName string) error {
	if err := f.record(Call{Command: gateway.CmdUpdateDisplayName, Name: name, DisplayName: displayName}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.indexOf(name)
	if idx < 0 {
		return &gateway.CommandError{Command: gateway.CmdUpdateDisplayName, Err: ErrNotFound}
	}
	f.apps[idx].DisplayName = displayName
	return nil
}

func (f *Fake) TogglePause(ctx context.Context, name string) (bool, error) {
	if err := f.record(Call{Command: gateway.CmdTogglePause, Name: name}); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexOf(name) < 0 {
		return false, &gateway.CommandError{Command: gateway.CmdTogglePause, Err: ErrNotFound}
	}
	u := f.usage[name]
	u.Name = name
	u.Paused = !u.Paused
	f.usage[name] = u
	return u.Paused, nil
}
