package monitors

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/storage"
)

const UsageMonitorName = "usage"

// Lister enumerates live processes.
type Lister func(ctx context.Context) ([]core.ProcessInfo, error)

// AccrualFunc observes every successful accrual.
type AccrualFunc func(credited []string, seconds int64)

// UsageMonitor credits whole seconds of usage to tracked apps that are
// running and not paused. Fractions of a second carry over to the next tick.
// Time covered by a failed tick is dropped.
type UsageMonitor struct {
	*BaseMonitor
	store    storage.Storage
	list     Lister
	logger   *zap.Logger
	interval time.Duration
	onAccrue AccrualFunc

	mu    sync.Mutex
	carry time.Duration
	last  time.Time
	wg    sync.WaitGroup
}

func NewUsageMonitor(store storage.Storage, list Lister, logger *zap.Logger) *UsageMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageMonitor{
		BaseMonitor: NewBaseMonitor(UsageMonitorName),
		store:       store,
		list:        list,
		logger:      logger.Named(UsageMonitorName),
		interval:    core.DefaultAccrualInterval,
	}
}

// OnAccrue registers a hook called after each tick that credited time.
func (m *UsageMonitor) OnAccrue(fn AccrualFunc) {
	m.onAccrue = fn
}

func (m *UsageMonitor) Initialize(config *core.Config) error {
	if err := m.BaseMonitor.Initialize(config); err != nil {
		return err
	}
	if config.Accrual.Interval > 0 {
		m.interval = config.Accrual.Interval
	}
	return nil
}

func (m *UsageMonitor) Start(ctx context.Context) error {
	ctx = m.derive(ctx)

	m.mu.Lock()
	m.last = time.Now()
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.mu.Lock()
				elapsed := now.Sub(m.last)
				m.last = now
				m.mu.Unlock()

				if _, err := m.Tick(ctx, elapsed); err != nil && ctx.Err() == nil {
					m.logger.Warn("accrual tick failed", zap.Error(err))
				}
			}
		}
	}()

	m.logger.Info("usage monitor started", zap.Duration("interval", m.interval))
	return nil
}

// Stop cancels the loop and waits for an in-progress tick to finish.
func (m *UsageMonitor) Stop() error {
	err := m.BaseMonitor.Stop()
	m.wg.Wait()
	return err
}

// Tick credits elapsed time to every running, unpaused tracked app and
// returns the names that were credited.
func (m *UsageMonitor) Tick(ctx context.Context, elapsed time.Duration) ([]string, error) {
	m.mu.Lock()
	total := m.carry + elapsed
	seconds := int64(total / time.Second)
	m.carry = total - time.Duration(seconds)*time.Second
	m.mu.Unlock()

	if seconds <= 0 {
		return nil, nil
	}

	procs, err := m.list(ctx)
	if err != nil {
		return nil, err
	}

	credited, err := m.store.Accrue(core.NameSet(procs), seconds)
	if err != nil {
		return nil, err
	}

	if len(credited) > 0 {
		m.logger.Debug("accrued usage", zap.Strings("apps", credited), zap.Int64("seconds", seconds))
		if m.onAccrue != nil {
			m.onAccrue(credited, seconds)
		}
	}
	return credited, nil
}
