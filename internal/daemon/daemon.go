package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/gateway"
	"github.com/yowainwright/tynamo/internal/monitors"
	"github.com/yowainwright/tynamo/internal/storage"
)

type Daemon struct {
	config     *core.Config
	logger     *zap.Logger
	storage    storage.Storage
	gateway    *gateway.Local
	registry   *monitors.MonitorRegistry
	metrics    *Metrics
	httpServer *http.Server
	listener   net.Listener
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	startTime  time.Time
	stopOnce   sync.Once
	done       chan struct{}

	mu          sync.Mutex
	lastAccrued time.Time
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithProcessLister replaces live process enumeration.
func WithProcessLister(list monitors.Lister) Option {
	return func(d *Daemon) {
		d.gateway = gateway.NewLocal(d.storage, gateway.ProcessLister(list))
		d.registry = newRegistry(d, list)
	}
}

func NewDaemon(config *core.Config, logger *zap.Logger, opts ...Option) (*Daemon, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.NewJSONStorage(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config:    config,
		logger:    logger.Named("daemon"),
		storage:   store,
		metrics:   NewMetrics(),
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}
	d.gateway = gateway.NewLocal(store, monitors.ListProcesses)
	d.registry = newRegistry(d, monitors.ListProcesses)

	for _, opt := range opts {
		opt(d)
	}

	if err := d.registry.InitializeAll(config); err != nil {
		cancel()
		store.Close()
		return nil, fmt.Errorf("failed to initialize monitors: %w", err)
	}

	if apps, err := store.GetApps(); err == nil {
		d.metrics.TrackedApps.Set(float64(len(apps)))
	}

	return d, nil
}

func newRegistry(d *Daemon, list monitors.Lister) *monitors.MonitorRegistry {
	usage := monitors.NewUsageMonitor(d.storage, list, d.logger)
	usage.OnAccrue(func(credited []string, seconds int64) {
		d.metrics.RecordAccrual(credited, seconds)
		d.mu.Lock()
		d.lastAccrued = time.Now()
		d.mu.Unlock()
	})

	registry := monitors.NewMonitorRegistry()
	registry.Register(usage)
	return registry
}

func (d *Daemon) lastAccrual() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastAccrued
}

// Start launches the monitors and the HTTP API and returns once they are
// running. Use Wait to block until the daemon stops.
func (d *Daemon) Start() error {
	d.logger.Info("starting tynamo daemon", zap.String("version", core.Version))

	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	if err := d.registry.StartAll(d.ctx); err != nil {
		d.Stop()
		return fmt.Errorf("failed to start monitors: %w", err)
	}

	if d.config.API.Enabled {
		if err := d.startHTTPServer(); err != nil {
			d.Stop()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	d.handleSignals()

	return nil
}

// Wait blocks until Stop has completed.
func (d *Daemon) Wait() {
	<-d.done
}

func (d *Daemon) Stop() error {
	d.stopOnce.Do(func() {
		defer close(d.done)
		d.logger.Info("stopping tynamo daemon")

		d.cancel()

		if d.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), core.DefaultShutdownTimeout)
			defer cancel()
			if err := d.httpServer.Shutdown(ctx); err != nil {
				d.logger.Warn("error shutting down HTTP server", zap.Error(err))
			}
		}

		if err := d.registry.StopAll(); err != nil {
			d.logger.Warn("error stopping monitors", zap.Error(err))
		}

		d.wg.Wait()

		if err := d.storage.Close(); err != nil {
			d.logger.Warn("error closing storage", zap.Error(err))
		}

		if err := os.Remove(d.config.Daemon.PIDFile); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("error removing PID file", zap.Error(err))
		}

		d.logger.Info("tynamo daemon stopped")
	})
	return nil
}

func (d *Daemon) IsStopped() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Addr is the address the API is listening on, or "" before Start.
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

func (d *Daemon) Handler() http.Handler {
	return d.router()
}

func (d *Daemon) startHTTPServer() error {
	listener, err := net.Listen("tcp", d.config.APIAddr())
	if err != nil {
		return err
	}
	d.listener = listener

	d.httpServer = &http.Server{
		Handler:           d.router(),
		ReadHeaderTimeout: core.DefaultRequestTimeout,
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.logger.Info("HTTP API server listening", zap.String("addr", listener.Addr().String()))
		if err := d.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

func (d *Daemon) writePIDFile() error {
	pid := os.Getpid()
	return os.WriteFile(d.config.Daemon.PIDFile, []byte(strconv.Itoa(pid)), 0644)
}

// handleSignals stops the daemon on SIGINT or SIGTERM. The goroutine is not
// tracked by wg since it calls Stop, which waits on wg.
func (d *Daemon) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			d.logger.Info("received signal", zap.Stringer("signal", sig))
			d.Stop()
		case <-d.ctx.Done():
			return
		}
	}()
}

// ReadPID returns the PID recorded in the daemon's PID file.
func ReadPID(config *core.Config) (int, error) {
	pidBytes, err := os.ReadFile(config.Daemon.PIDFile)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(pidBytes)))
}

func IsRunning(config *core.Config) bool {
	pid, err := ReadPID(config)
	if err != nil {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// Signal sends SIGTERM to a running daemon.
func Signal(config *core.Config) error {
	pid, err := ReadPID(config)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process not found: %w", err)
	}

	return process.Signal(syscall.SIGTERM)
}
