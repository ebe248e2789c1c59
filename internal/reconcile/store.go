// Package reconcile keeps the tracked apps, usage and running-process
// snapshots and merges them into one read-only view.
package reconcile

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/gateway"
)

// ErrClosed is returned by refreshes once the store is closed.
var ErrClosed = errors.New("reconcile: store closed")

// Snapshot identifies one of the three data sources.
type Snapshot int

const (
	SnapshotApps Snapshot = iota
	SnapshotUsage
	SnapshotRunning
)

func (s Snapshot) String() string {
	switch s {
	case SnapshotApps:
		return "apps"
	case SnapshotUsage:
		return "usage"
	case SnapshotRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Store holds the latest successful snapshot of each source. Every refresh
// replaces its snapshot wholesale; a failed refresh leaves the previous one
// in place. Concurrent refreshes of the same snapshot are last-applied-wins.
type Store struct {
	gw     gateway.Gateway
	logger *zap.Logger

	mu      sync.RWMutex
	apps    []core.TrackedApp
	usage   map[string]int64
	paused  map[string]bool
	running map[string]struct{}
	version uint64
	closed  bool

	changes chan struct{}
}

func New(gw gateway.Gateway, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		gw:      gw,
		logger:  logger.Named("reconcile"),
		usage:   map[string]int64{},
		paused:  map[string]bool{},
		running: map[string]struct{}{},
		changes: make(chan struct{}, 1),
	}
}

// Changes delivers a signal after any snapshot is replaced. Signals
// coalesce; a reader sees at least one after the latest change.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// install runs fn under the write lock unless the store is closed.
func (s *Store) install(which Snapshot, fn func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("discarding result after close", zap.Stringer("snapshot", which))
		return ErrClosed
	}
	fn()
	s.version++
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *Store) failed(which Snapshot, err error) error {
	if s.isClosed() {
		return ErrClosed
	}
	s.logger.Warn("refresh failed, keeping previous snapshot",
		zap.Stringer("snapshot", which),
		zap.String("command", gateway.CommandOf(err)),
		zap.Error(err),
	)
	return err
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) RefreshApps(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	apps, err := s.gw.GetTrackedApps(ctx)
	if err != nil {
		return s.failed(SnapshotApps, err)
	}

	next := make([]core.TrackedApp, len(apps))
	copy(next, apps)
	return s.install(SnapshotApps, func() {
		s.apps = next
	})
}

func (s *Store) RefreshUsage(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	usage, err := s.gw.GetUsage(ctx)
	if err != nil {
		return s.failed(SnapshotUsage, err)
	}

	totals := make(map[string]int64, len(usage))
	paused := make(map[string]bool, len(usage))
	for _, u := range usage {
		totals[u.Name] = u.TotalSeconds
		paused[u.Name] = u.Paused
	}
	return s.install(SnapshotUsage, func() {
		s.usage = totals
		s.paused = paused
	})
}

func (s *Store) RefreshRunning(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	procs, err := s.gw.ListProcesses(ctx)
	if err != nil {
		return s.failed(SnapshotRunning, err)
	}

	names := core.NameSet(procs)
	return s.install(SnapshotRunning, func() {
		s.running = names
	})
}

// RefreshAll refreshes every snapshot concurrently. Each one succeeds or
// fails on its own.
func (s *Store) RefreshAll(ctx context.Context) error {
	refreshers := []func(context.Context) error{
		s.RefreshApps,
		s.RefreshUsage,
		s.RefreshRunning,
	}

	errs := make([]error, len(refreshers))
	var wg sync.WaitGroup
	for i, refresh := range refreshers {
		wg.Add(1)
		go func(i int, refresh func(context.Context) error) {
			defer wg.Done()
			errs[i] = refresh(ctx)
		}(i, refresh)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// View returns the merged view of the current snapshots. Installed
// snapshots are never mutated, so the view can share them.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Apps:    s.apps,
		usage:   s.usage,
		paused:  s.paused,
		running: s.running,
		Version: s.version,
	}
}

// Close stops the store from accepting results. Results of refreshes still
// in flight are discarded when they arrive.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
