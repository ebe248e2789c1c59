package core

import "time"

const (
	Version        = "0.1.0"
	ConfigVersion  = "1.0"
	StorageVersion = "1.0.0"

	DefaultAPIPort         = 8417
	DefaultAPIHost         = "127.0.0.1"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultRequestTimeout  = 5 * time.Second

	DefaultUsagePollInterval   = time.Second
	DefaultRunningPollInterval = time.Second
	DefaultAccrualInterval     = time.Second

	DefaultPIDFile = "/tmp/tynamo.pid"

	EnvPrefix       = "TYNAMO"
	EnvForeground   = "TYNAMO_DAEMON_FOREGROUND"
	StorageFileName = "tracked_apps.json"
	UILogFileName   = "tynamo.log"
)
