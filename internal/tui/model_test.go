package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/gateway"
	"github.com/yowainwright/tynamo/internal/gateway/gatewaytest"
	"github.com/yowainwright/tynamo/internal/modal"
	"github.com/yowainwright/tynamo/internal/poll"
	"github.com/yowainwright/tynamo/internal/reconcile"
)

func newTestModel(t *testing.T, fake *gatewaytest.Fake) Model {
	t.Helper()
	ctx := context.Background()
	store := reconcile.New(fake, nil)
	require.NoError(t, store.RefreshAll(ctx))
	sched := poll.NewScheduler(store, time.Hour, time.Hour, nil)
	modals := modal.NewController(fake, store, nil)

	m := New(ctx, store, sched, modals, nil)
	t.Cleanup(m.zones.Close)
	m.syncRows()
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// pressAndRun delivers msg and feeds the message produced by its command
// back into the model.
func pressAndRun(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	m, cmd := press(t, m, msg)
	require.NotNil(t, cmd)
	m, _ = press(t, m, cmd())
	return m
}

func TestRowsRenderFromStore(t *testing.T) {
	fake := gatewaytest.New().
		Track("code", 90).
		TrackWithoutUsage("zsh").
		SetProcesses(core.ProcessInfo{Name: "code"})
	m := newTestModel(t, fake)

	require.Len(t, m.rows, 2)
	out := m.View()
	assert.Contains(t, out, "code")
	assert.Contains(t, out, "00:01:30")
	assert.Contains(t, out, "Running")
	assert.Contains(t, out, "Stopped")
}

func TestEmptyList(t *testing.T) {
	m := newTestModel(t, gatewaytest.New())
	assert.Contains(t, m.View(), "You are not tracking any apps.")
}

func TestAddFlowThroughKeys(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(
		core.ProcessInfo{Name: "zsh", ExePath: "/bin/zsh"},
		core.ProcessInfo{Name: "code", ExePath: "/usr/bin/code"},
	)
	m := newTestModel(t, fake)

	m = pressAndRun(t, m, runes("a"))
	require.Equal(t, modal.KindAdd, m.modals.Kind())
	assert.Contains(t, m.View(), "Select an App")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "zsh", m.modals.Session().(*modal.AddSession).Selected)

	m = pressAndRun(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modal.KindNone, m.modals.Kind())
	require.Len(t, m.rows, 1)
	assert.Equal(t, "zsh", m.rows[0].Name)
	assert.Empty(t, m.status)
}

func TestEscapeClosesAdd(t *testing.T) {
	fake := gatewaytest.New().SetProcesses(core.ProcessInfo{Name: "code"})
	m := newTestModel(t, fake)

	m = pressAndRun(t, m, runes("a"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, modal.KindNone, m.modals.Kind())
	assert.Empty(t, fake.Mutations())
}

func TestEditFlowThroughKeys(t *testing.T) {
	fake := gatewaytest.New().Track("code", 5415)
	m := newTestModel(t, fake)

	m, _ = press(t, m, runes("e"))
	require.Equal(t, modal.KindEdit, m.modals.Kind())
	assert.Equal(t, "01:30:15", m.timeInput.Value())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, "00:00:00", m.timeInput.Value())
	assert.Equal(t, "00:00:00", m.modals.Session().(*modal.EditSession).TimeText)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	for _, r := range "Editor" {
		m, _ = press(t, m, runes(string(r)))
	}
	assert.Equal(t, "Editor", m.modals.Session().(*modal.EditSession).DisplayName)

	m = pressAndRun(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modal.KindNone, m.modals.Kind())

	muts := fake.Mutations()
	require.Len(t, muts, 2)
	assert.Equal(t, gateway.CmdUpdateApp, muts[0].Command)
	assert.Zero(t, muts[0].TotalSeconds)
	assert.Equal(t, "Editor", muts[1].DisplayName)
	assert.Equal(t, "Editor", m.rows[0].Label)
}

func TestDeleteFlowKeepUsage(t *testing.T) {
	fake := gatewaytest.New().Track("code", 10)
	m := newTestModel(t, fake)

	m, _ = press(t, m, runes("d"))
	require.Equal(t, modal.KindDelete, m.modals.Kind())
	assert.Contains(t, m.View(), "Remove code?")

	m = pressAndRun(t, m, runes("k"))
	assert.Equal(t, modal.KindNone, m.modals.Kind())

	removes := fake.CallsTo(gateway.CmdRemoveApp)
	require.Len(t, removes, 1)
	assert.False(t, removes[0].DeleteUsage)
	assert.Empty(t, m.rows)
}

func TestDeleteFlowDeleteUsage(t *testing.T) {
	fake := gatewaytest.New().Track("code", 10)
	m := newTestModel(t, fake)

	m, _ = press(t, m, runes("x"))
	m = pressAndRun(t, m, runes("D"))

	removes := fake.CallsTo(gateway.CmdRemoveApp)
	require.Len(t, removes, 1)
	assert.True(t, removes[0].DeleteUsage)
}

func TestDeleteCancel(t *testing.T) {
	fake := gatewaytest.New().Track("code", 10)
	m := newTestModel(t, fake)

	m, _ = press(t, m, runes("d"))
	m, _ = press(t, m, runes("c"))

	assert.Equal(t, modal.KindNone, m.modals.Kind())
	assert.Empty(t, fake.Mutations())
}

func TestPauseToggle(t *testing.T) {
	fake := gatewaytest.New().Track("code", 10)
	m := newTestModel(t, fake)

	m = pressAndRun(t, m, runes("p"))
	require.Len(t, m.rows, 1)
	assert.True(t, m.rows[0].Paused)
	assert.Contains(t, m.View(), "Paused")
}

func TestCommandFailureShowsStatus(t *testing.T) {
	fake := gatewaytest.New().Track("code", 10)
	fake.Fail(gateway.CmdTogglePause, assert.AnError)
	m := newTestModel(t, fake)

	m = pressAndRun(t, m, runes("p"))
	assert.Contains(t, m.status, "Pause")
	assert.False(t, m.rows[0].Paused)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.status)
}

func TestMouseOutsideClosesModal(t *testing.T) {
	fake := gatewaytest.New().Track("code", 10)
	m := newTestModel(t, fake)

	var asked string
	inside := true
	m.inZone = func(id string, msg tea.MouseMsg) bool {
		asked = id
		return inside
	}

	m, _ = press(t, m, runes("d"))
	click := tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}

	m, _ = press(t, m, click)
	assert.Equal(t, "modal-delete", asked)
	assert.Equal(t, modal.KindDelete, m.modals.Kind())

	release := tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}
	inside = false
	m, _ = press(t, m, release)
	assert.Equal(t, modal.KindDelete, m.modals.Kind())

	m, _ = press(t, m, click)
	assert.Equal(t, modal.KindNone, m.modals.Kind())
	assert.Empty(t, fake.Mutations())
}

func TestCursorMovement(t *testing.T) {
	fake := gatewaytest.New().Track("a", 1).Track("b", 2)
	m := newTestModel(t, fake)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	require.NoError(t, fake.RemoveApp(context.Background(), "b", true))
	require.NoError(t, m.store.RefreshApps(context.Background()))
	m, _ = press(t, m, viewChangedMsg{})
	assert.Equal(t, 0, m.cursor)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, gatewaytest.New())

	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
