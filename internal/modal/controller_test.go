package modal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/gateway"
	"github.com/yowainwright/tynamo/internal/gateway/gatewaytest"
	"github.com/yowainwright/tynamo/internal/reconcile"
)

func setup(t *testing.T, fake *gatewaytest.Fake) (*Controller, *reconcile.Store) {
	t.Helper()
	store := reconcile.New(fake, nil)
	require.NoError(t, store.RefreshAll(context.Background()))
	return NewController(fake, store, nil), store
}

func trackedNames(v reconcile.View) []string {
	var names []string
	for _, app := range v.Apps {
		names = append(names, app.Name)
	}
	return names
}

func TestOpenAddDedupesAndPreselects(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(
		core.ProcessInfo{PID: 3, Name: "zsh", ExePath: "/bin/zsh"},
		core.ProcessInfo{PID: 1, Name: "code", ExePath: "/usr/bin/code"},
		core.ProcessInfo{PID: 2, Name: "code", ExePath: "/opt/code/code"},
	)
	c, _ := setup(t, fake)

	require.NoError(t, c.OpenAdd(context.Background()))

	s, ok := c.Session().(*AddSession)
	require.True(t, ok)
	assert.Equal(t, []core.ProcessInfo{
		{PID: 1, Name: "code", ExePath: "/usr/bin/code"},
		{PID: 3, Name: "zsh", ExePath: "/bin/zsh"},
	}, s.Candidates)
	assert.Equal(t, "code", s.Selected)
	assert.NotEmpty(t, s.ID())
}

func TestOpenAddEmptyProcessList(t *testing.T) {
	c, _ := setup(t, gatewaytest.New())

	require.NoError(t, c.OpenAdd(context.Background()))
	s := c.Session().(*AddSession)
	assert.Empty(t, s.Selected)

	assert.ErrorIs(t, c.CommitAdd(context.Background()), ErrNoSelection)
	assert.Equal(t, KindAdd, c.Kind())
}

func TestOpenAddFailureLeavesStateClosed(t *testing.T) {
	fake := gatewaytest.New()
	fake.Fail(gateway.CmdListProcesses, errors.New("denied"))
	c, _ := setup(t, fake)

	err := c.OpenAdd(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNone, c.Kind())
}

func TestOpenAddScratchResetsOnReopen(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(
		core.ProcessInfo{Name: "a"}, core.ProcessInfo{Name: "b"},
	)
	c, _ := setup(t, fake)
	ctx := context.Background()

	require.NoError(t, c.OpenAdd(ctx))
	first := c.Session().ID()
	require.NoError(t, c.SelectProcess("b"))
	c.Cancel()

	require.NoError(t, c.OpenAdd(ctx))
	s := c.Session().(*AddSession)
	assert.Equal(t, "a", s.Selected)
	assert.NotEqual(t, first, s.ID())
}

func TestOpenAddSupersededByEscape(t *testing.T) {
	fake := gatewaytest.New()
	entered := make(chan struct{})
	release := make(chan struct{})
	fake.ListProcessesFunc = func(ctx context.Context) ([]core.ProcessInfo, error) {
		close(entered)
		<-release
		return []core.ProcessInfo{{Name: "late"}}, nil
	}
	c, _ := setup(t, gatewaytest.New())
	c.gw = fake

	done := make(chan error, 1)
	go func() { done <- c.OpenAdd(context.Background()) }()
	<-entered

	assert.False(t, c.Escape())
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, KindNone, c.Kind())
}

func TestSelectionMovement(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(
		core.ProcessInfo{Name: "a"}, core.ProcessInfo{Name: "b"}, core.ProcessInfo{Name: "c"},
	)
	c, _ := setup(t, fake)
	require.NoError(t, c.OpenAdd(context.Background()))

	require.NoError(t, c.MoveSelection(1))
	assert.Equal(t, "b", c.Session().(*AddSession).Selected)

	require.NoError(t, c.MoveSelection(5))
	assert.Equal(t, "c", c.Session().(*AddSession).Selected)

	require.NoError(t, c.MoveSelection(-10))
	assert.Equal(t, "a", c.Session().(*AddSession).Selected)

	assert.ErrorIs(t, c.SelectProcess("nope"), ErrNoSelection)
	assert.Equal(t, "a", c.Session().(*AddSession).Selected)
}

func TestCommitAddClosesAndRefreshes(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(
		core.ProcessInfo{PID: 9, Name: "code", ExePath: "/usr/bin/code"},
	)
	c, store := setup(t, fake)
	ctx := context.Background()

	require.NoError(t, c.OpenAdd(ctx))
	require.NoError(t, c.CommitAdd(ctx))

	assert.Equal(t, KindNone, c.Kind())
	adds := fake.CallsTo(gateway.CmdAddApp)
	require.Len(t, adds, 1)
	assert.Equal(t, "code", adds[0].Name)
	assert.Equal(t, "/usr/bin/code", adds[0].ExePath)

	view := store.View()
	assert.Equal(t, []string{"code"}, trackedNames(view))
	secs, ok := view.UsageOf("code")
	assert.True(t, ok)
	assert.Zero(t, secs)
}

func TestCommitAddFailureStaysOpen(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(core.ProcessInfo{Name: "code"})
	fake.Fail(gateway.CmdAddApp, errors.New("disk full"))
	c, store := setup(t, fake)
	ctx := context.Background()

	require.NoError(t, c.OpenAdd(ctx))
	err := c.CommitAdd(ctx)
	require.Error(t, err)

	assert.Equal(t, KindAdd, c.Kind())
	assert.False(t, c.Busy())
	assert.Empty(t, store.View().Apps)
}

func TestCommitRequiresMatchingSession(t *testing.T) {
	fake := gatewaytest.New().Track("code", 10)
	c, _ := setup(t, fake)
	ctx := context.Background()

	assert.ErrorIs(t, c.CommitAdd(ctx), ErrNoSession)
	assert.ErrorIs(t, c.CommitEdit(ctx), ErrNoSession)
	assert.ErrorIs(t, c.CommitDelete(ctx, false), ErrNoSession)

	require.NoError(t, c.OpenDelete("code"))
	assert.ErrorIs(t, c.CommitEdit(ctx), ErrWrongSession)
	assert.ErrorIs(t, c.SetEditTime("00:00:01"), ErrWrongSession)
	assert.ErrorIs(t, c.MoveSelection(1), ErrWrongSession)
	assert.Empty(t, fake.Mutations())
}

func TestOpenEditSeedsFormattedUsage(t *testing.T) {
	fake := gatewaytest.New().Track("code", 5415)
	c, _ := setup(t, fake)

	require.NoError(t, c.OpenEdit("code"))

	s, ok := c.Session().(*EditSession)
	require.True(t, ok)
	assert.Equal(t, "01:30:15", s.TimeText)
	assert.Equal(t, "", s.DisplayName)
	assert.Equal(t, "code", s.Target.Name)
}

func TestOpenEditSeedsDisplayNameAndZeroForUnknownUsage(t *testing.T) {
	fake := gatewaytest.New().TrackWithoutUsage("code")
	require.NoError(t, fake.UpdateDisplayName(context.Background(), "code", "VS Code"))
	c, _ := setup(t, fake)

	require.NoError(t, c.OpenEdit("code"))

	s := c.Session().(*EditSession)
	assert.Equal(t, "00:00:00", s.TimeText)
	assert.Equal(t, "VS Code", s.DisplayName)

	assert.Error(t, c.OpenEdit("missing"))
}

func TestEditResetAndCommit(t *testing.T) {
	fake := gatewaytest.New().Track("code", 5415)
	c, store := setup(t, fake)
	ctx := context.Background()

	require.NoError(t, c.OpenEdit("code"))
	require.NoError(t, c.ResetEditTime())
	assert.Equal(t, "00:00:00", c.Session().(*EditSession).TimeText)
	assert.Empty(t, fake.Mutations(), "reset does not commit")

	require.NoError(t, c.SetEditTime("02:00:05"))
	require.NoError(t, c.SetEditDisplayName("Editor"))
	require.NoError(t, c.CommitEdit(ctx))

	assert.Equal(t, KindNone, c.Kind())
	muts := fake.Mutations()
	require.Len(t, muts, 2)
	assert.Equal(t, gatewaytest.Call{Command: gateway.CmdUpdateApp, Name: "code", TotalSeconds: 7205}, muts[0])
	assert.Equal(t, gatewaytest.Call{Command: gateway.CmdUpdateDisplayName, Name: "code", DisplayName: "Editor"}, muts[1])

	view := store.View()
	secs, _ := view.UsageOf("code")
	assert.Equal(t, int64(7205), secs)
	app, _ := view.App("code")
	assert.Equal(t, "Editor", app.DisplayName)
}

func TestEditMalformedTimeCommitsZero(t *testing.T) {
	fake := gatewaytest.New().Track("code", 100)
	c, _ := setup(t, fake)

	require.NoError(t, c.OpenEdit("code"))
	require.NoError(t, c.SetEditTime("ten minutes"))
	require.NoError(t, c.CommitEdit(context.Background()))

	calls := fake.CallsTo(gateway.CmdUpdateApp)
	require.Len(t, calls, 1)
	assert.Zero(t, calls[0].TotalSeconds)
}

func TestEditPartialFailureStillClosesAndAttemptsBoth(t *testing.T) {
	fake := gatewaytest.New().Track("code", 60)
	fake.Fail(gateway.CmdUpdateApp, errors.New("locked"))
	c, store := setup(t, fake)

	require.NoError(t, c.OpenEdit("code"))
	require.NoError(t, c.SetEditDisplayName("Editor"))
	err := c.CommitEdit(context.Background())

	require.Error(t, err)
	assert.Equal(t, gateway.CmdUpdateApp, gateway.CommandOf(err))
	assert.Equal(t, KindNone, c.Kind())
	assert.Len(t, fake.CallsTo(gateway.CmdUpdateDisplayName), 1)

	app, _ := store.View().App("code")
	assert.Equal(t, "Editor", app.DisplayName)
	secs, _ := store.View().UsageOf("code")
	assert.Equal(t, int64(60), secs)
}

func TestDeleteKeepUsage(t *testing.T) {
	fake := gatewaytest.New().Track("X", 40).Track("Y", 1)
	c, store := setup(t, fake)

	require.NoError(t, c.OpenDelete("X"))
	require.NoError(t, c.CommitDelete(context.Background(), false))

	removes := fake.CallsTo(gateway.CmdRemoveApp)
	require.Len(t, removes, 1)
	assert.Equal(t, "X", removes[0].Name)
	assert.False(t, removes[0].DeleteUsage)

	assert.Equal(t, KindNone, c.Kind())
	assert.Equal(t, []string{"Y"}, trackedNames(store.View()))
	_, ok := store.View().UsageOf("X")
	assert.True(t, ok, "usage kept")
}

func TestDeleteWithUsage(t *testing.T) {
	fake := gatewaytest.New().Track("X", 40)
	c, store := setup(t, fake)

	require.NoError(t, c.OpenDelete("X"))
	require.NoError(t, c.CommitDelete(context.Background(), true))

	removes := fake.CallsTo(gateway.CmdRemoveApp)
	require.Len(t, removes, 1)
	assert.True(t, removes[0].DeleteUsage)

	assert.Empty(t, trackedNames(store.View()))
	_, ok := store.View().UsageOf("X")
	assert.False(t, ok)
}

func TestDeleteFailureStaysOpen(t *testing.T) {
	fake := gatewaytest.New().Track("X", 40)
	fake.Fail(gateway.CmdRemoveApp, errors.New("busy"))
	c, store := setup(t, fake)

	require.NoError(t, c.OpenDelete("X"))
	require.Error(t, c.CommitDelete(context.Background(), true))

	assert.Equal(t, KindDelete, c.Kind())
	assert.Equal(t, []string{"X"}, trackedNames(store.View()))
}

func TestDeleteCancelMakesNoCall(t *testing.T) {
	fake := gatewaytest.New().Track("X", 40)
	c, _ := setup(t, fake)

	require.NoError(t, c.OpenDelete("X"))
	c.Cancel()

	assert.Equal(t, KindNone, c.Kind())
	assert.Empty(t, fake.Mutations())
}

func TestEscapeClosesOpenModalWithoutCalls(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(core.ProcessInfo{Name: "code"})
	c, _ := setup(t, fake)
	before := len(fake.Calls())

	require.NoError(t, c.OpenAdd(context.Background()))
	assert.True(t, c.Escape())

	assert.Equal(t, KindNone, c.Kind())
	_, isEdit := c.Session().(*EditSession)
	assert.False(t, isEdit)
	assert.Empty(t, fake.Mutations())
	assert.Len(t, fake.Calls(), before+1, "only the process listing from open")

	assert.False(t, c.Escape(), "nothing left to close")
}

func TestOutsideActivationClosesOnlyMatchingModal(t *testing.T) {
	fake := gatewaytest.New().Track("X", 1)
	c, _ := setup(t, fake)

	require.NoError(t, c.OpenEdit("X"))

	assert.False(t, c.OutsideActivation(KindAdd))
	assert.False(t, c.OutsideActivation(KindDelete))
	assert.False(t, c.OutsideActivation(KindNone))
	assert.Equal(t, KindEdit, c.Kind())

	assert.True(t, c.OutsideActivation(KindEdit))
	assert.Equal(t, KindNone, c.Kind())
	assert.Empty(t, fake.Mutations())
}

func TestCommitInFlightGuard(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(core.ProcessInfo{Name: "code"})
	c, _ := setup(t, fake)
	ctx := context.Background()
	require.NoError(t, c.OpenAdd(ctx))

	c.mu.Lock()
	c.inFlight = true
	c.mu.Unlock()

	assert.ErrorIs(t, c.CommitAdd(ctx), ErrCommitInFlight)
	assert.Empty(t, fake.Mutations())
}

func TestCommitResultDoesNotCloseNewerSession(t *testing.T) {
	fake := gatewaytest.New().Track("X", 5).Track("Y", 6)
	c, _ := setup(t, fake)

	require.NoError(t, c.OpenDelete("X"))
	id, err := c.begin(func() error { return nil })
	require.NoError(t, err)

	// The user escapes and opens another modal while the commit is pending.
	c.Escape()
	require.NoError(t, c.OpenEdit("Y"))

	c.finish(id, true)
	assert.Equal(t, KindEdit, c.Kind())
	assert.False(t, c.Busy())
}

func TestTogglePauseRefreshesUsage(t *testing.T) {
	fake := gatewaytest.New().Track("X", 5)
	c, store := setup(t, fake)

	paused, err := c.TogglePause(context.Background(), "X")
	require.NoError(t, err)
	assert.True(t, paused)
	assert.True(t, store.View().IsPaused("X"))

	fake.Fail(gateway.CmdTogglePause, errors.New("nope"))
	_, err = c.TogglePause(context.Background(), "X")
	require.Error(t, err)
	assert.True(t, store.View().IsPaused("X"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "none", KindNone.String())
	assert.Equal(t, "add", KindAdd.String())
	assert.Equal(t, "edit", KindEdit.String())
	assert.Equal(t, "delete", KindDelete.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
