// Package poll runs the periodic snapshot refreshes that keep a view current.
package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handle owns one periodic task. Stopping it guarantees the task is never
// invoked again; a call already in progress is allowed to finish but its
// caller is expected to discard the result.
type Handle struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (h *Handle) Name() string { return h.name }

// Stop cancels the task. It does not wait for an in-flight call.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
}

// Done is closed once the task's loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Every invokes fn every interval until ctx is cancelled or the handle is
// stopped. Runs never overlap; a tick that arrives during a slow call is
// dropped. fn runs with a context that is not cancelled by Stop, so an
// in-flight gateway call completes normally.
func Every(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) *Handle {
	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	callCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				// Stop may race with the tick; the stop wins.
				if loopCtx.Err() != nil {
					return
				}
				fn(callCtx)
			}
		}
	}()

	return h
}

// Refresher is the subset of the reconciliation store the scheduler drives.
type Refresher interface {
	RefreshAll(ctx context.Context) error
	RefreshUsage(ctx context.Context) error
	RefreshRunning(ctx context.Context) error
}

// Scheduler refreshes everything once on Start and then polls usage and
// running processes on independent intervals. Tracked apps are not polled;
// they are refreshed after mutating commands instead.
type Scheduler struct {
	store           Refresher
	logger          *zap.Logger
	usageInterval   time.Duration
	runningInterval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	handles []*Handle
}

func NewScheduler(store Refresher, usageInterval, runningInterval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		store:           store,
		logger:          logger.Named("poll"),
		usageInterval:   usageInterval,
		runningInterval: runningInterval,
	}
}

// Start performs the initial refresh and starts both timers. Calling Start
// on a running scheduler restarts it. If Stop is called while the initial
// refresh is in progress, no timers are started.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	prevCancel, prevHandles := s.cancel, s.handles
	s.cancel, s.handles = cancel, nil
	s.mu.Unlock()

	stopAll(prevCancel, prevHandles)

	if err := s.store.RefreshAll(ctx); err != nil {
		s.logger.Warn("initial refresh incomplete", zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if runCtx.Err() != nil {
		s.logger.Debug("stopped during initial refresh")
		return
	}

	usage := Every(runCtx, "usage", s.usageInterval, func(ctx context.Context) {
		s.store.RefreshUsage(ctx)
	})
	running := Every(runCtx, "running", s.runningInterval, func(ctx context.Context) {
		s.store.RefreshRunning(ctx)
	})
	s.handles = []*Handle{usage, running}

	s.logger.Debug("polling started",
		zap.Duration("usage_interval", s.usageInterval),
		zap.Duration("running_interval", s.runningInterval),
	)
}

// Stop cancels both timers, or the pending Start if it has not installed
// them yet.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	handles := s.handles
	cancel := s.cancel
	s.handles = nil
	s.cancel = nil
	s.mu.Unlock()

	stopAll(cancel, handles)
}

func stopAll(cancel context.CancelFunc, handles []*Handle) {
	if cancel != nil {
		cancel()
	}
	for _, h := range handles {
		h.Stop()
	}
}

// Handles returns the currently running task handles.
func (s *Scheduler) Handles() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Handle(nil), s.handles...)
}
