package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/yowainwright/tynamo/internal/core"
)

type configKey struct {
	get func(*core.Config) any
	set func(*core.Config, string) error
}

func stringKey(field func(*core.Config) *string) configKey {
	return configKey{
		get: func(c *core.Config) any { return *field(c) },
		set: func(c *core.Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

func boolKey(field func(*core.Config) *bool) configKey {
	return configKey{
		get: func(c *core.Config) any { return *field(c) },
		set: func(c *core.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %w", err)
			}
			*field(c) = b
			return nil
		},
	}
}

func durationKey(field func(*core.Config) *time.Duration) configKey {
	return configKey{
		get: func(c *core.Config) any { return *field(c) },
		set: func(c *core.Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration value: %w", err)
			}
			if d <= 0 {
				return fmt.Errorf("duration must be positive: %s", v)
			}
			*field(c) = d
			return nil
		},
	}
}

var configKeys = map[string]configKey{
	"daemon.log_level": stringKey(func(c *core.Config) *string { return &c.Daemon.LogLevel }),
	"daemon.data_dir":  stringKey(func(c *core.Config) *string { return &c.Daemon.DataDir }),
	"daemon.pid_file":  stringKey(func(c *core.Config) *string { return &c.Daemon.PIDFile }),

	"storage.json_file":      stringKey(func(c *core.Config) *string { return &c.Storage.JSONFile }),
	"storage.backup_enabled": boolKey(func(c *core.Config) *bool { return &c.Storage.BackupEnabled }),

	"api.enabled": boolKey(func(c *core.Config) *bool { return &c.API.Enabled }),
	"api.host":    stringKey(func(c *core.Config) *string { return &c.API.Host }),
	"api.port": {
		get: func(c *core.Config) any { return c.API.Port },
		set: func(c *core.Config, v string) error {
			port, err := strconv.Atoi(v)
			if err != nil || port < 0 || port > 65535 {
				return fmt.Errorf("invalid port value: %s", v)
			}
			c.API.Port = port
			return nil
		},
	},
	"api.timeout": durationKey(func(c *core.Config) *time.Duration { return &c.API.Timeout }),

	"poll.usage_interval":   durationKey(func(c *core.Config) *time.Duration { return &c.Poll.UsageInterval }),
	"poll.running_interval": durationKey(func(c *core.Config) *time.Duration { return &c.Poll.RunningInterval }),
	"accrual.interval":      durationKey(func(c *core.Config) *time.Duration { return &c.Accrual.Interval }),

	"ui.log_file": stringKey(func(c *core.Config) *string { return &c.UI.LogFile }),
	"ui.mouse":    boolKey(func(c *core.Config) *bool { return &c.UI.Mouse }),
}

func configCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	configGetCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get configuration value",
		RunE:  getConfig,
	}

	configSetCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set configuration value",
		RunE:  setConfig,
	}

	configListCmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration",
		RunE:  listConfig,
	}

	configKeysCmd := &cobra.Command{
		Use:   "keys",
		Short: "List settable configuration keys",
		Run: func(cmd *cobra.Command, args []string) {
			names := make([]string, 0, len(configKeys))
			for name := range configKeys {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
		},
	}

	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd, configKeysCmd)
	return configCmd
}

func getConfig(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("config key required")
	}

	config, err := core.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	key, ok := configKeys[args[0]]
	if !ok {
		return fmt.Errorf("unknown config key: %s", args[0])
	}

	fmt.Println(key.get(config))
	return nil
}

func setConfig(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("config key and value required")
	}

	config, err := core.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	key, ok := configKeys[args[0]]
	if !ok {
		return fmt.Errorf("unknown config key: %s", args[0])
	}

	if err := key.set(config, args[1]); err != nil {
		return err
	}

	if err := config.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println(successStyle.Render("✓ Configuration updated"))
	return nil
}

func listConfig(cmd *cobra.Command, args []string) error {
	config, err := core.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(config)
}
