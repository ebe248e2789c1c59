package storage

import (
	"errors"

	"github.com/yowainwright/tynamo/internal/core"
)

var (
	ErrAppExists   = errors.New("app is already tracked")
	ErrAppNotFound = errors.New("app is not tracked")
	ErrInvalidName = errors.New("app name must not be empty")
)

// Storage persists tracked apps and their accumulated usage. It is the
// authoritative copy; everything else holds snapshots of it.
type Storage interface {
	Initialize(config *core.Config) error
	Close() error

	AddApp(name, exePath string) (*core.TrackedApp, error)
	RemoveApp(name string, deleteUsage bool) error
	GetApp(name string) (*core.TrackedApp, error)
	GetApps() ([]core.TrackedApp, error)
	SetDisplayName(name, displayName string) error

	GetUsage() ([]core.AppUsage, error)
	SetUsage(name string, totalSeconds int64) error
	TogglePause(name string) (bool, error)

	// Accrue adds seconds to every tracked, unpaused app whose name is in
	// running and returns the names that were credited.
	Accrue(running map[string]struct{}, seconds int64) ([]string, error)

	Backup() (string, error)
	Restore(path string) error
}

type StorageFactory func(config *core.Config) (Storage, error)
