package reconcile

import (
	"github.com/yowainwright/tynamo/internal/core"
)

// View is an immutable merge of the three snapshots at one instant.
type View struct {
	Apps    []core.TrackedApp
	Version uint64

	usage   map[string]int64
	paused  map[string]bool
	running map[string]struct{}
}

// UsageOf reports the accumulated seconds for name, and false when no usage
// is known for it.
func (v View) UsageOf(name string) (int64, bool) {
	secs, ok := v.usage[name]
	return secs, ok
}

func (v View) IsRunning(name string) bool {
	_, ok := v.running[name]
	return ok
}

func (v View) IsPaused(name string) bool {
	return v.paused[name]
}

// App looks up a tracked app by process name.
func (v View) App(name string) (core.TrackedApp, bool) {
	for _, app := range v.Apps {
		if app.Name == name {
			return app, true
		}
	}
	return core.TrackedApp{}, false
}
