package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yowainwright/tynamo/internal/core"
)

type JSONStorage struct {
	config   *core.Config
	filepath string
	data     *core.StorageData
	mu       sync.RWMutex
}

func NewJSONStorage(config *core.Config) (Storage, error) {
	js := &JSONStorage{
		config:   config,
		filepath: config.Storage.JSONFile,
	}
	return js, js.Initialize(config)
}

func (j *JSONStorage) Initialize(config *core.Config) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	dir := filepath.Dir(j.filepath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	if _, err := os.Stat(j.filepath); os.IsNotExist(err) {
		hostname, _ := os.Hostname()
		user, _ := os.UserHomeDir()
		j.data = &core.StorageData{
			Version: core.StorageVersion,
			Metadata: core.StorageMetadata{
				Created:       time.Now(),
				LastUpdated:   time.Now(),
				Hostname:      hostname,
				User:          filepath.Base(user),
				TynamoVersion: core.Version,
			},
			NextID: 1,
			Apps:   []core.TrackedApp{},
			Usage:  make(map[string]core.UsageRecord),
		}
		return j.save(j.data)
	}

	return j.load()
}

func (j *JSONStorage) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.save(j.data)
}

func (j *JSONStorage) load() error {
	data, err := os.ReadFile(j.filepath)
	if err != nil {
		return fmt.Errorf("failed to read storage file: %w", err)
	}

	var storage core.StorageData
	if err := json.Unmarshal(data, &storage); err != nil {
		return fmt.Errorf("failed to unmarshal storage data: %w", err)
	}

	j.data = normalize(&storage)
	return nil
}

func (j *JSONStorage) save(data *core.StorageData) error {
	data.Metadata.LastUpdated = time.Now()

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage data: %w", err)
	}

	tempFile := j.filepath + ".tmp"
	if err := os.WriteFile(tempFile, raw, 0644); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}

	if err := os.Rename(tempFile, j.filepath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// update applies fn to a copy of the data and installs the copy only once it
// has been saved, so a failed save leaves the store unchanged. Callers hold
// j.mu.
func (j *JSONStorage) update(fn func(data *core.StorageData) error) error {
	next := clone(j.data)
	if err := fn(next); err != nil {
		return err
	}
	if err := j.save(next); err != nil {
		return err
	}
	j.data = next
	return nil
}

func clone(data *core.StorageData) *core.StorageData {
	out := *data
	out.Apps = append([]core.TrackedApp(nil), data.Apps...)
	out.Usage = make(map[string]core.UsageRecord, len(data.Usage))
	for name, rec := range data.Usage {
		out.Usage[name] = rec
	}
	return &out
}

// normalize repairs files written by hand or by older versions.
func normalize(data *core.StorageData) *core.StorageData {
	if data.Usage == nil {
		data.Usage = make(map[string]core.UsageRecord)
	}
	if data.Apps == nil {
		data.Apps = []core.TrackedApp{}
	}
	for _, app := range data.Apps {
		if app.ID >= data.NextID {
			data.NextID = app.ID + 1
		}
	}
	if data.NextID < 1 {
		data.NextID = 1
	}
	return data
}

func indexOf(data *core.StorageData, name string) int {
	for i := range data.Apps {
		if data.Apps[i].Name == name {
			return i
		}
	}
	return -1
}

func (j *JSONStorage) AddApp(name, exePath string) (*core.TrackedApp, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	var app core.TrackedApp
	err := j.update(func(data *core.StorageData) error {
		if indexOf(data, name) >= 0 {
			return fmt.Errorf("%w: %s", ErrAppExists, name)
		}

		app = core.TrackedApp{
			ID:      data.NextID,
			Name:    name,
			ExePath: exePath,
		}
		data.NextID++
		data.Apps = append(data.Apps, app)

		// Usage kept from an earlier removal is resumed rather than reset.
		if _, exists := data.Usage[name]; !exists {
			data.Usage[name] = core.UsageRecord{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (j *JSONStorage) RemoveApp(name string, deleteUsage bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.update(func(data *core.StorageData) error {
		idx := indexOf(data, name)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrAppNotFound, name)
		}

		data.Apps = append(data.Apps[:idx], data.Apps[idx+1:]...)
		if deleteUsage {
			delete(data.Usage, name)
		}
		return nil
	})
}

func (j *JSONStorage) GetApp(name string) (*core.TrackedApp, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	idx := indexOf(j.data, name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, name)
	}

	app := j.data.Apps[idx]
	return &app, nil
}

func (j *JSONStorage) GetApps() ([]core.TrackedApp, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	results := make([]core.TrackedApp, len(j.data.Apps))
	copy(results, j.data.Apps)

	sort.Slice(results, func(a, b int) bool {
		return results[a].ID < results[b].ID
	})
	return results, nil
}

func (j *JSONStorage) SetDisplayName(name, displayName string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.update(func(data *core.StorageData) error {
		idx := indexOf(data, name)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrAppNotFound, name)
		}
		data.Apps[idx].DisplayName = strings.TrimSpace(displayName)
		return nil
	})
}

func (j *JSONStorage) GetUsage() ([]core.AppUsage, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	results := make([]core.AppUsage, 0, len(j.data.Usage))
	for name, rec := range j.data.Usage {
		results = append(results, core.AppUsage{
			Name:         name,
			TotalSeconds: rec.TotalSeconds,
			Paused:       rec.Paused,
		})
	}

	sort.Slice(results, func(a, b int) bool {
		return results[a].Name < results[b].Name
	})
	return results, nil
}

func (j *JSONStorage) SetUsage(name string, totalSeconds int64) error {
	if totalSeconds < 0 {
		return fmt.Errorf("total seconds must not be negative: %d", totalSeconds)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.update(func(data *core.StorageData) error {
		if indexOf(data, name) < 0 {
			return fmt.Errorf("%w: %s", ErrAppNotFound, name)
		}

		rec := data.Usage[name]
		rec.TotalSeconds = totalSeconds
		data.Usage[name] = rec
		return nil
	})
}

func (j *JSONStorage) TogglePause(name string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var paused bool
	err := j.update(func(data *core.StorageData) error {
		if indexOf(data, name) < 0 {
			return fmt.Errorf("%w: %s", ErrAppNotFound, name)
		}

		rec := data.Usage[name]
		rec.Paused = !rec.Paused
		data.Usage[name] = rec
		paused = rec.Paused
		return nil
	})
	if err != nil {
		return false, err
	}
	return paused, nil
}

// errNothingCredited skips the save when no app was running.
var errNothingCredited = errors.New("nothing credited")

func (j *JSONStorage) Accrue(running map[string]struct{}, seconds int64) ([]string, error) {
	if seconds <= 0 || len(running) == 0 {
		return nil, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	var credited []string
	err := j.update(func(data *core.StorageData) error {
		for _, app := range data.Apps {
			if _, ok := running[app.Name]; !ok {
				continue
			}
			rec := data.Usage[app.Name]
			if rec.Paused {
				continue
			}
			rec.TotalSeconds += seconds
			rec.LastAccrued = now
			data.Usage[app.Name] = rec
			credited = append(credited, app.Name)
		}
		if len(credited) == 0 {
			return errNothingCredited
		}
		return nil
	})
	switch {
	case errors.Is(err, errNothingCredited):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return credited, nil
}

func (j *JSONStorage) Backup() (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	backupPath := fmt.Sprintf("%s.backup.%s", j.filepath, time.Now().Format("20060102_150405"))

	data, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup data: %w", err)
	}

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}

	return backupPath, nil
}

func (j *JSONStorage) Restore(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read restore file: %w", err)
	}

	var storage core.StorageData
	if err := json.Unmarshal(data, &storage); err != nil {
		return fmt.Errorf("failed to unmarshal restore data: %w", err)
	}

	restored := normalize(&storage)
	if err := j.save(restored); err != nil {
		return err
	}
	j.data = restored
	return nil
}
