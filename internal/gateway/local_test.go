package gateway

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/storage"
)

func newLocal(t *testing.T, procs []core.ProcessInfo, listErr error) *Local {
	t.Helper()
	cfg := &core.Config{Storage: core.StorageConfig{
		JSONFile: filepath.Join(t.TempDir(), "apps.json"),
	}}
	store, err := storage.NewJSONStorage(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewLocal(store, func(context.Context) ([]core.ProcessInfo, error) {
		return procs, listErr
	})
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := newLocal(t, nil, nil)

	require.NoError(t, gw.AddApp(ctx, "code", "/usr/bin/code"))
	require.NoError(t, gw.UpdateApp(ctx, "code", 5415))
	require.NoError(t, gw.UpdateDisplayName(ctx, "code", "VS Code"))

	apps, err := gw.GetTrackedApps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "VS Code", apps[0].DisplayName)

	paused, err := gw.TogglePause(ctx, "code")
	require.NoError(t, err)
	assert.True(t, paused)

	usage, err := gw.GetUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.AppUsage{{Name: "code", TotalSeconds: 5415, Paused: true}}, usage)

	require.NoError(t, gw.RemoveApp(ctx, "code", true))
	apps, err = gw.GetTrackedApps(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestLocalWrapsFailures(t *testing.T) {
	ctx := context.Background()
	gw := newLocal(t, nil, errors.New("ps exploded"))

	_, err := gw.ListProcesses(ctx)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, CmdListProcesses, cmdErr.Command)

	err = gw.RemoveApp(ctx, "ghost", false)
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, CmdRemoveApp, cmdErr.Command)
	assert.ErrorIs(t, err, storage.ErrAppNotFound)

	_, err = gw.TogglePause(ctx, "ghost")
	assert.Equal(t, CmdTogglePause, CommandOf(err))
}

func TestLocalHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gw := newLocal(t, nil, nil)

	err := gw.AddApp(ctx, "code", "")
	assert.ErrorIs(t, err, context.Canceled)

	apps, err := gw.GetTrackedApps(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestCommandErrorMessage(t *testing.T) {
	err := &CommandError{Command: CmdAddApp, Status: 409, Err: errors.New("app already exists")}
	assert.Equal(t, "add_app failed (status 409): app already exists", err.Error())

	err = &CommandError{Command: CmdGetUsage, Err: errors.New("refused")}
	assert.Equal(t, "get_usage failed: refused", err.Error())

	assert.Equal(t, "", CommandOf(errors.New("plain")))
	assert.Nil(t, wrap(CmdAddApp, nil))
}
