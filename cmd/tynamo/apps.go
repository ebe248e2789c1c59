package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/reconcile"
	"github.com/yowainwright/tynamo/internal/rows"
	"github.com/yowainwright/tynamo/internal/timecodec"
	"github.com/yowainwright/tynamo/pkg/models"
)

var (
	runningBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stoppedBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pausedBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func appCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked apps with their usage",
		Args:  cobra.NoArgs,
		RunE:  listApps,
	}
	listCmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")

	processesCmd := &cobra.Command{
		Use:   "processes",
		Short: "List running processes that can be tracked",
		Args:  cobra.NoArgs,
		RunE:  listProcesses,
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Start tracking an app by process name",
		Args:  cobra.ExactArgs(1),
		RunE:  addApp,
	}
	addCmd.Flags().String("exe", "", "Executable path (defaults to the running process's)")

	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Stop tracking an app",
		Args:  cobra.ExactArgs(1),
		RunE:  removeApp,
	}
	removeCmd.Flags().Bool("delete-usage", false, "Also delete the accumulated usage")

	pauseCmd := &cobra.Command{
		Use:   "pause <name>",
		Short: "Pause or resume usage accrual for an app",
		Args:  cobra.ExactArgs(1),
		RunE:  togglePause,
	}

	setTimeCmd := &cobra.Command{
		Use:   "set-time <name> <hh:mm:ss>",
		Short: "Overwrite an app's accumulated usage",
		Args:  cobra.ExactArgs(2),
		RunE:  setTime,
	}

	renameCmd := &cobra.Command{
		Use:   "rename <name> <display name>",
		Short: "Set the label shown for an app",
		Args:  cobra.ExactArgs(2),
		RunE:  renameApp,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		Args:  cobra.NoArgs,
		RunE:  showStats,
	}
	statsCmd.Flags().Int("top", 5, "Show top N apps by usage")

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create manual backup",
		Args:  cobra.NoArgs,
		RunE:  backup,
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <backup file>",
		Short: "Replace tracked apps and usage with a backup",
		Args:  cobra.ExactArgs(1),
		RunE:  restore,
	}

	return []*cobra.Command{
		listCmd,
		processesCmd,
		addCmd,
		removeCmd,
		pauseCmd,
		setTimeCmd,
		renameCmd,
		statsCmd,
		backupCmd,
		restoreCmd,
	}
}

// withBackend loads config and opens the backend for one CLI command.
func withBackend(fn func(*core.Config, *backend) error) error {
	config, err := core.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	b, err := openBackend(config)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(config, b)
}

func listApps(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	return withBackend(func(config *core.Config, b *backend) error {
		store := reconcile.New(b.gw, zap.NewNop())
		defer store.Close()

		if err := store.RefreshAll(cmd.Context()); err != nil {
			return err
		}
		list := rows.Map(store.View())

		summaries := make([]models.UsageSummary, 0, len(list))
		view := store.View()
		for _, row := range list {
			secs, _ := view.UsageOf(row.Name)
			summaries = append(summaries, models.UsageSummary{
				Name:         row.Name,
				Label:        row.Label,
				TotalSeconds: secs,
				Time:         row.TimeLabel,
				Paused:       row.Paused,
				Running:      row.Running,
			})
		}

		switch format {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)

		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(summaries)

		case "table", "":
			printRows(list)
			return nil

		default:
			return fmt.Errorf("unknown format: %s", format)
		}
	})
}

func printRows(list []rows.Row) {
	if len(list) == 0 {
		fmt.Println(infoStyle.Render("You are not tracking any apps."))
		return
	}

	fmt.Println(titleStyle.Render("Tracked Apps"))
	fmt.Println()

	width := 0
	for _, row := range list {
		width = max(width, lipgloss.Width(row.Label))
	}

	for _, row := range list {
		timeLabel := row.TimeLabel
		if !row.HasTime {
			timeLabel = "--:--:--"
		}

		status := stoppedBadge.Render(row.Status())
		if row.Running {
			status = runningBadge.Render(row.Status())
		}

		line := fmt.Sprintf("  %-*s  %s  %s", width, row.Label, timeLabel, status)
		if row.Paused {
			line += "  " + pausedBadge.Render("Paused")
		}
		fmt.Println(line)
	}
}

func listProcesses(cmd *cobra.Command, args []string) error {
	return withBackend(func(config *core.Config, b *backend) error {
		procs, err := b.gw.ListProcesses(cmd.Context())
		if err != nil {
			return err
		}

		procs = core.UniqueByName(procs)
		if len(procs) == 0 {
			fmt.Println(infoStyle.Render("No processes found"))
			return nil
		}

		fmt.Println(titleStyle.Render("Running Processes"))
		fmt.Println()
		for _, p := range procs {
			fmt.Printf("  %s %s\n", p.Name, subtitleStyle.Render(p.ExePath))
		}
		return nil
	})
}

func addApp(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	exe, _ := cmd.Flags().GetString("exe")

	return withBackend(func(config *core.Config, b *backend) error {
		ctx := cmd.Context()

		if exe == "" {
			procs, err := b.gw.ListProcesses(ctx)
			if err != nil {
				return err
			}
			for _, p := range procs {
				if p.Name == name {
					exe = p.ExePath
					break
				}
			}
		}

		if err := b.gw.AddApp(ctx, name, exe); err != nil {
			return err
		}

		fmt.Println(successStyle.Render("✓ Tracking " + name))
		return nil
	})
}

func removeApp(cmd *cobra.Command, args []string) error {
	deleteUsage, _ := cmd.Flags().GetBool("delete-usage")

	return withBackend(func(config *core.Config, b *backend) error {
		if err := b.gw.RemoveApp(cmd.Context(), args[0], deleteUsage); err != nil {
			return err
		}

		msg := "✓ Stopped tracking " + args[0]
		if deleteUsage {
			msg += " and deleted its usage"
		}
		fmt.Println(successStyle.Render(msg))
		return nil
	})
}

func togglePause(cmd *cobra.Command, args []string) error {
	return withBackend(func(config *core.Config, b *backend) error {
		paused, err := b.gw.TogglePause(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if paused {
			fmt.Println(successStyle.Render("✓ Paused " + args[0]))
		} else {
			fmt.Println(successStyle.Render("✓ Resumed " + args[0]))
		}
		return nil
	})
}

func setTime(cmd *cobra.Command, args []string) error {
	seconds := timecodec.Parse(args[1])
	// The edit form treats malformed text as zero; the CLI refuses it.
	if seconds == 0 && strings.Trim(args[1], "0: ") != "" {
		return fmt.Errorf("invalid time %q: expected hh:mm:ss", args[1])
	}

	return withBackend(func(config *core.Config, b *backend) error {
		if err := b.gw.UpdateApp(cmd.Context(), args[0], seconds); err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s set to %s", args[0], timecodec.Format(seconds))))
		return nil
	})
}

func renameApp(cmd *cobra.Command, args []string) error {
	return withBackend(func(config *core.Config, b *backend) error {
		if err := b.gw.UpdateDisplayName(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s now shown as %s", args[0], strings.TrimSpace(args[1]))))
		return nil
	})
}

func showStats(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")

	return withBackend(func(config *core.Config, b *backend) error {
		store := reconcile.New(b.gw, zap.NewNop())
		defer store.Close()

		if err := store.RefreshAll(cmd.Context()); err != nil {
			return err
		}
		view := store.View()

		var total int64
		var running, paused int
		list := rows.Map(view)
		for _, row := range list {
			secs, _ := view.UsageOf(row.Name)
			total += secs
			if row.Running {
				running++
			}
			if row.Paused {
				paused++
			}
		}

		fmt.Println(titleStyle.Render("Tynamo Statistics"))
		fmt.Println()
		fmt.Printf("%s %d\n", infoStyle.Render("Tracked apps:"), len(list))
		fmt.Printf("%s %d\n", infoStyle.Render("Running now:"), running)
		fmt.Printf("%s %d\n", infoStyle.Render("Paused:"), paused)
		fmt.Printf("%s %s\n", infoStyle.Render("Total time:"), timecodec.Format(total))

		if top <= 0 || len(list) == 0 {
			return nil
		}

		sort.SliceStable(list, func(i, j int) bool {
			a, _ := view.UsageOf(list[i].Name)
			b, _ := view.UsageOf(list[j].Name)
			return a > b
		})

		fmt.Println()
		fmt.Printf(subtitleStyle.Render("Top %d apps:")+"\n", top)
		for i, row := range list {
			if i >= top {
				break
			}
			timeLabel := row.TimeLabel
			if !row.HasTime {
				timeLabel = "--:--:--"
			}
			fmt.Printf("  %d. %s - %s\n", i+1, row.Label, timeLabel)
		}
		return nil
	})
}

func backup(cmd *cobra.Command, args []string) error {
	return withBackend(func(config *core.Config, b *backend) error {
		if !config.Storage.BackupEnabled {
			return fmt.Errorf("backups are disabled (storage.backup_enabled)")
		}
		if !b.embedded() {
			return fmt.Errorf("stop the daemon before creating a backup")
		}

		path, err := b.store.Backup()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Println(successStyle.Render("✓ Backup created"))
		fmt.Println(subtitleStyle.Render("  " + path))
		return nil
	})
}

func restore(cmd *cobra.Command, args []string) error {
	return withBackend(func(config *core.Config, b *backend) error {
		if !b.embedded() {
			return fmt.Errorf("stop the daemon before restoring a backup")
		}

		if err := b.store.Restore(args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Println(successStyle.Render("✓ Restored from " + args[0]))
		return nil
	})
}
