package core

import "time"

// TrackedApp is a program the user has chosen to measure. Name is the
// process name and the join key against usage and running data.
type TrackedApp struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	ExePath     string `json:"exe_path,omitempty" yaml:"exe_path,omitempty"`
	Icon        []byte `json:"icon,omitempty" yaml:"-"`
}

// Label returns the display name, falling back to the process name.
func (a TrackedApp) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Name
}

// ProcessInfo is one live process observation. Several entries may share a
// Name when a program runs more than one instance.
type ProcessInfo struct {
	PID     int32  `json:"pid" yaml:"pid"`
	Name    string `json:"name" yaml:"name"`
	ExePath string `json:"exe_path" yaml:"exe_path"`
}

// AppUsage is the accumulated state for one name.
type AppUsage struct {
	Name         string `json:"name" yaml:"name"`
	TotalSeconds int64  `json:"total_seconds" yaml:"total_seconds"`
	Paused       bool   `json:"paused" yaml:"paused"`
}

type UsageRecord struct {
	TotalSeconds int64     `json:"total_seconds"`
	Paused       bool      `json:"paused"`
	LastAccrued  time.Time `json:"last_accrued,omitempty"`
}

type StorageData struct {
	Version  string                 `json:"version"`
	Metadata StorageMetadata        `json:"metadata"`
	NextID   int64                  `json:"next_id"`
	Apps     []TrackedApp           `json:"apps"`
	Usage    map[string]UsageRecord `json:"usage"`
}

type StorageMetadata struct {
	Created       time.Time `json:"created"`
	LastUpdated   time.Time `json:"last_updated"`
	Hostname      string    `json:"hostname"`
	User          string    `json:"user"`
	TynamoVersion string    `json:"tynamo_version"`
}
