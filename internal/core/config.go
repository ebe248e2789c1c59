package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is loaded from ~/.config/tynamo/config.json and then overlaid with
// TYNAMO_* environment variables, e.g. TYNAMO_API_PORT or
// TYNAMO_POLL_USAGE_INTERVAL=2s.
type Config struct {
	Version string        `json:"version" ignored:"true"`
	Daemon  DaemonConfig  `json:"daemon"`
	Storage StorageConfig `json:"storage"`
	API     APIConfig     `json:"api"`
	Poll    PollConfig    `json:"poll"`
	Accrual AccrualConfig `json:"accrual"`
	UI      UIConfig      `json:"ui"`
}

type DaemonConfig struct {
	LogLevel string `json:"log_level" split_words:"true"`
	DataDir  string `json:"data_dir" split_words:"true"`
	PIDFile  string `json:"pid_file" split_words:"true"`
}

type StorageConfig struct {
	JSONFile      string `json:"json_file" split_words:"true"`
	BackupEnabled bool   `json:"backup_enabled" split_words:"true"`
}

type APIConfig struct {
	Enabled bool          `json:"enabled"`
	Host    string        `json:"host"`
	Port    int           `json:"port"`
	Timeout time.Duration `json:"timeout"`
}

// PollConfig drives the UI refresh cadence.
type PollConfig struct {
	UsageInterval   time.Duration `json:"usage_interval" split_words:"true"`
	RunningInterval time.Duration `json:"running_interval" split_words:"true"`
}

// AccrualConfig drives how often running apps are credited with usage.
type AccrualConfig struct {
	Interval time.Duration `json:"interval"`
}

type UIConfig struct {
	LogFile string `json:"log_file" split_words:"true"`
	Mouse   bool   `json:"mouse"`
}

func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "tynamo")

	return &Config{
		Version: ConfigVersion,
		Daemon: DaemonConfig{
			LogLevel: DefaultLogLevel,
			DataDir:  dataDir,
			PIDFile:  DefaultPIDFile,
		},
		Storage: StorageConfig{
			JSONFile:      filepath.Join(dataDir, StorageFileName),
			BackupEnabled: true,
		},
		API: APIConfig{
			Enabled: true,
			Host:    DefaultAPIHost,
			Port:    DefaultAPIPort,
			Timeout: DefaultRequestTimeout,
		},
		Poll: PollConfig{
			UsageInterval:   DefaultUsagePollInterval,
			RunningInterval: DefaultRunningPollInterval,
		},
		Accrual: AccrualConfig{
			Interval: DefaultAccrualInterval,
		},
		UI: UIConfig{
			LogFile: filepath.Join(dataDir, UILogFileName),
			Mouse:   true,
		},
	}
}

// DefaultConfigPath is where LoadConfig("") and Save look.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "tynamo", "config.json")
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	cfg.fillZeroes()
	return cfg, nil
}

// fillZeroes restores defaults for values a partial config file left unset.
func (c *Config) fillZeroes() {
	if c.Poll.UsageInterval <= 0 {
		c.Poll.UsageInterval = DefaultUsagePollInterval
	}
	if c.Poll.RunningInterval <= 0 {
		c.Poll.RunningInterval = DefaultRunningPollInterval
	}
	if c.Accrual.Interval <= 0 {
		c.Accrual.Interval = DefaultAccrualInterval
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultRequestTimeout
	}
}

// APIAddr returns host:port of the daemon's command API.
func (c *Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// APIURL returns the base URL clients use to reach the daemon.
func (c *Config) APIURL() string {
	return "http://" + c.APIAddr()
}

func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Daemon.DataDir,
		filepath.Dir(c.Storage.JSONFile),
	}
	if c.UI.LogFile != "" {
		dirs = append(dirs, filepath.Dir(c.UI.LogFile))
	}

	for _, dir := range dirs {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}
