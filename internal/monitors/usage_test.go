package monitors

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/storage"
)

func newUsageFixture(t *testing.T, procs ...core.ProcessInfo) (*UsageMonitor, storage.Storage) {
	t.Helper()
	cfg := &core.Config{Storage: core.StorageConfig{
		JSONFile: filepath.Join(t.TempDir(), "apps.json"),
	}}
	store, err := storage.NewJSONStorage(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := NewUsageMonitor(store, func(context.Context) ([]core.ProcessInfo, error) {
		return procs, nil
	}, nil)
	return m, store
}

func totals(t *testing.T, store storage.Storage) map[string]int64 {
	t.Helper()
	usage, err := store.GetUsage()
	require.NoError(t, err)
	out := make(map[string]int64, len(usage))
	for _, u := range usage {
		out[u.Name] = u.TotalSeconds
	}
	return out
}

func TestUsageTickCreditsRunningApps(t *testing.T) {
	m, store := newUsageFixture(t,
		core.ProcessInfo{PID: 1, Name: "code"},
		core.ProcessInfo{PID: 2, Name: "code"},
		core.ProcessInfo{PID: 3, Name: "zsh"},
	)
	store.AddApp("code", "")
	store.AddApp("firefox", "")

	credited, err := m.Tick(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"code"}, credited)
	assert.Equal(t, map[string]int64{"code": 1, "firefox": 0}, totals(t, store))
}

func TestUsageTickCarriesFractions(t *testing.T) {
	m, store := newUsageFixture(t, core.ProcessInfo{PID: 1, Name: "code"})
	store.AddApp("code", "")
	ctx := context.Background()

	credited, err := m.Tick(ctx, 600*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, credited)

	_, err = m.Tick(ctx, 600*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals(t, store)["code"])

	_, err = m.Tick(ctx, 2500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals(t, store)["code"])
}

func TestUsageTickSkipsPaused(t *testing.T) {
	m, store := newUsageFixture(t, core.ProcessInfo{PID: 1, Name: "code"})
	store.AddApp("code", "")
	store.TogglePause("code")

	credited, err := m.Tick(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Empty(t, credited)
	assert.Zero(t, totals(t, store)["code"])
}

func TestUsageTickListFailure(t *testing.T) {
	m, store := newUsageFixture(t)
	store.AddApp("code", "")
	m.list = func(context.Context) ([]core.ProcessInfo, error) {
		return nil, errors.New("denied")
	}

	_, err := m.Tick(context.Background(), time.Second)
	assert.Error(t, err)
	assert.Zero(t, totals(t, store)["code"])
}

func TestUsageOnAccrueHook(t *testing.T) {
	m, store := newUsageFixture(t, core.ProcessInfo{PID: 1, Name: "code"})
	store.AddApp("code", "")

	var gotApps []string
	var gotSeconds int64
	m.OnAccrue(func(credited []string, seconds int64) {
		gotApps = credited
		gotSeconds = seconds
	})

	_, err := m.Tick(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"code"}, gotApps)
	assert.Equal(t, int64(2), gotSeconds)
}

func TestUsageMonitorLoop(t *testing.T) {
	m, store := newUsageFixture(t, core.ProcessInfo{PID: 1, Name: "code"})
	store.AddApp("code", "")

	cfg := core.DefaultConfig()
	cfg.Accrual.Interval = 10 * time.Millisecond
	require.NoError(t, m.Initialize(cfg))
	require.NoError(t, m.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return totals(t, store)["code"] >= 1
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, m.Stop())
}
