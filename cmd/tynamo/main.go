package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/daemon"
	"github.com/yowainwright/tynamo/internal/gateway"
	"github.com/yowainwright/tynamo/internal/logging"
	"github.com/yowainwright/tynamo/internal/modal"
	"github.com/yowainwright/tynamo/internal/monitors"
	"github.com/yowainwright/tynamo/internal/poll"
	"github.com/yowainwright/tynamo/internal/reconcile"
	"github.com/yowainwright/tynamo/internal/storage"
	"github.com/yowainwright/tynamo/internal/tui"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tynamo",
		Short: "Tynamo - App Usage Time Tracker",
		Long:  `Tynamo measures how long the programs you care about have been running, lets you pause, edit, and reset their totals, and keeps a live list of them in your terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Without a terminal there is nothing to draw on; print the list.
			if !isatty.IsTerminal(os.Stdout.Fd()) {
				return listApps(cmd, args)
			}
			return runUI(cmd, args)
		},
	}
	rootCmd.Flags().StringP("format", "f", "table", "Output format when not attached to a terminal (table, json, yaml)")

	uiCmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive app list",
		RunE:  runUI,
	}

	// Daemon commands
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the tynamo daemon",
	}

	daemonStartCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tynamo daemon",
		RunE:  startDaemon,
	}

	daemonStopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the tynamo daemon",
		RunE:  stopDaemon,
	}

	daemonRestartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the tynamo daemon",
		RunE:  restartDaemon,
	}

	daemonStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE:  daemonStatus,
	}

	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonRestartCmd, daemonStatusCmd)

	rootCmd.AddCommand(uiCmd, daemonCmd)
	rootCmd.AddCommand(appCommands()...)
	rootCmd.AddCommand(configCommand())

	// Execute with Fang styling
	ctx := context.Background()
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(core.Version),
		fang.WithColorSchemeFunc(fang.DefaultColorScheme),
	); err != nil {
		os.Exit(1)
	}
}

// backend is the gateway a command talks to: the daemon's API when it is
// running, otherwise the data file opened in-process.
type backend struct {
	gw    gateway.Gateway
	store storage.Storage
	usage *monitors.UsageMonitor
}

func openBackend(config *core.Config) (*backend, error) {
	if config.API.Enabled && daemon.IsRunning(config) {
		return &backend{gw: gateway.NewClient(config.APIURL(), config.API.Timeout)}, nil
	}

	if err := config.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := storage.NewJSONStorage(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return &backend{
		gw:    gateway.NewLocal(store, monitors.ListProcesses),
		store: store,
	}, nil
}

func (b *backend) embedded() bool {
	return b.store != nil
}

// startAccrual credits usage in-process while no daemon is doing it.
func (b *backend) startAccrual(ctx context.Context, config *core.Config, logger *zap.Logger) error {
	b.usage = monitors.NewUsageMonitor(b.store, monitors.ListProcesses, logger)
	if err := b.usage.Initialize(config); err != nil {
		return err
	}
	return b.usage.Start(ctx)
}

func (b *backend) Close() {
	if b.usage != nil {
		b.usage.Stop()
	}
	if b.store != nil {
		b.store.Close()
	}
}

func runUI(cmd *cobra.Command, args []string) error {
	config, err := core.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.EnsureDirectories(); err != nil {
		return err
	}

	// The UI owns the terminal, so diagnostics go to a file.
	logger := logging.NewOrNop(logging.FileConfig(config.Daemon.LogLevel, config.UI.LogFile))
	defer logger.Sync()

	b, err := openBackend(config)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx := cmd.Context()
	if b.embedded() {
		if err := b.startAccrual(ctx, config, logger); err != nil {
			return fmt.Errorf("failed to start usage monitor: %w", err)
		}
		logger.Info("running without daemon", zap.String("storage", config.Storage.JSONFile))
	}

	store := reconcile.New(b.gw, logger)
	sched := poll.NewScheduler(store, config.Poll.UsageInterval, config.Poll.RunningInterval, logger)
	modals := modal.NewController(b.gw, store, logger)

	return tui.Run(ctx, tui.New(ctx, store, sched, modals, logger), config.UI.Mouse)
}

func startDaemon(cmd *cobra.Command, args []string) error {
	config, err := core.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Check if already running
	if daemon.IsRunning(config) {
		fmt.Println(infoStyle.Render("tynamo daemon is already running"))
		return nil
	}

	if err := config.EnsureDirectories(); err != nil {
		return err
	}

	// Fork to background
	if os.Getenv(core.EnvForeground) == "" {
		fmt.Println(successStyle.Render("Starting tynamo daemon..."))

		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		args := []string{execPath, "daemon", "start"}
		env := append(os.Environ(), core.EnvForeground+"=1")

		procAttr := &syscall.ProcAttr{
			Env:   env,
			Files: []uintptr{0, 1, 2},
		}

		if _, err := syscall.ForkExec(execPath, args, procAttr); err != nil {
			return fmt.Errorf("failed to fork daemon: %w", err)
		}

		time.Sleep(time.Second)
		fmt.Println(successStyle.Render("✓ tynamo daemon started"))
		return nil
	}

	// Run in foreground
	logCfg := logging.DefaultConfig()
	logCfg.Level = config.Daemon.LogLevel
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	d, err := daemon.NewDaemon(config, logger)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Start(); err != nil {
		return err
	}
	d.Wait()
	return nil
}

func stopDaemon(cmd *cobra.Command, args []string) error {
	config, err := core.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !daemon.IsRunning(config) {
		fmt.Println(infoStyle.Render("tynamo daemon is not running"))
		return nil
	}

	if err := daemon.Signal(config); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	fmt.Println(successStyle.Render("✓ tynamo daemon stopped"))
	return nil
}

func restartDaemon(cmd *cobra.Command, args []string) error {
	if err := stopDaemon(cmd, args); err != nil {
		return err
	}
	time.Sleep(time.Second)
	return startDaemon(cmd, args)
}

func daemonStatus(cmd *cobra.Command, args []string) error {
	config, err := core.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !daemon.IsRunning(config) {
		fmt.Println(errorStyle.Render("✗ tynamo daemon is not running"))
		return nil
	}

	fmt.Println(successStyle.Render("✓ tynamo daemon is running"))

	pid, _ := daemon.ReadPID(config)
	fmt.Println(subtitleStyle.Render("  PID:"), pid)

	if !config.API.Enabled {
		return nil
	}

	health, err := gateway.NewClient(config.APIURL(), config.API.Timeout).Health(cmd.Context())
	if err != nil {
		fmt.Println(errorStyle.Render("  API unreachable:"), err)
		return nil
	}

	fmt.Println(subtitleStyle.Render("  API:"), config.APIURL())
	fmt.Println(subtitleStyle.Render("  Uptime:"), health.Uptime)
	fmt.Println(subtitleStyle.Render("  Tracked apps:"), health.TrackedApps)
	if !health.LastAccrual.IsZero() {
		fmt.Println(subtitleStyle.Render("  Last accrual:"), health.LastAccrual.Format("2006-01-02 15:04:05"))
	}
	return nil
}
