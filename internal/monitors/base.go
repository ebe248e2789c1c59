package monitors

import (
	"context"
	"sort"

	"github.com/yowainwright/tynamo/internal/core"
)

// Monitor is a background worker owned by the daemon.
type Monitor interface {
	Name() string
	Initialize(config *core.Config) error
	Start(ctx context.Context) error
	Stop() error
}

type BaseMonitor struct {
	name   string
	config *core.Config
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBaseMonitor(name string) *BaseMonitor {
	return &BaseMonitor{
		name: name,
	}
}

func (m *BaseMonitor) Name() string {
	return m.name
}

func (m *BaseMonitor) Initialize(config *core.Config) error {
	m.config = config
	return nil
}

// derive replaces the monitor's lifetime context with a child of parent.
func (m *BaseMonitor) derive(parent context.Context) context.Context {
	m.ctx, m.cancel = context.WithCancel(parent)
	return m.ctx
}

func (m *BaseMonitor) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

type MonitorRegistry struct {
	monitors map[string]Monitor
}

func NewMonitorRegistry() *MonitorRegistry {
	return &MonitorRegistry{
		monitors: make(map[string]Monitor),
	}
}

func (r *MonitorRegistry) Register(monitor Monitor) {
	r.monitors[monitor.Name()] = monitor
}

func (r *MonitorRegistry) Get(name string) (Monitor, bool) {
	monitor, exists := r.monitors[name]
	return monitor, exists
}

func (r *MonitorRegistry) GetAll() []Monitor {
	monitors := make([]Monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		monitors = append(monitors, m)
	}
	sort.Slice(monitors, func(i, j int) bool {
		return monitors[i].Name() < monitors[j].Name()
	})
	return monitors
}

// Names returns the registered monitor names in sorted order.
func (r *MonitorRegistry) Names() []string {
	names := make([]string, 0, len(r.monitors))
	for _, m := range r.GetAll() {
		names = append(names, m.Name())
	}
	return names
}

func (r *MonitorRegistry) InitializeAll(config *core.Config) error {
	for _, monitor := range r.GetAll() {
		if err := monitor.Initialize(config); err != nil {
			return err
		}
	}
	return nil
}

func (r *MonitorRegistry) StartAll(ctx context.Context) error {
	for _, monitor := range r.GetAll() {
		if err := monitor.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *MonitorRegistry) StopAll() error {
	for _, monitor := range r.GetAll() {
		if err := monitor.Stop(); err != nil {
			return err
		}
	}
	return nil
}
