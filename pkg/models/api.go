package models

import (
	"time"
)

type AddAppRequest struct {
	Name    string `json:"name" binding:"required"`
	ExePath string `json:"exe_path"`
}

type UpdateTimeRequest struct {
	TotalSeconds *int64 `json:"total_seconds" binding:"required"`
}

type DisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

type PauseResponse struct {
	Paused bool `json:"paused"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// UsageSummary is one row of `tynamo list` output.
type UsageSummary struct {
	Name         string `json:"name" yaml:"name"`
	Label        string `json:"label" yaml:"label"`
	TotalSeconds int64  `json:"total_seconds" yaml:"total_seconds"`
	Time         string `json:"time" yaml:"time"`
	Paused       bool   `json:"paused" yaml:"paused"`
	Running      bool   `json:"running" yaml:"running"`
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Version        string    `json:"version"`
	Uptime         string    `json:"uptime"`
	TrackedApps    int       `json:"tracked_apps"`
	LastAccrual    time.Time `json:"last_accrual,omitempty"`
	MonitorsActive []string  `json:"monitors_active"`
}
