// Package tui is the terminal front end: a list of tracked apps with the
// Add, Edit and Delete modals on top.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"go.uber.org/zap"

	"github.com/yowainwright/tynamo/internal/modal"
	"github.com/yowainwright/tynamo/internal/poll"
	"github.com/yowainwright/tynamo/internal/reconcile"
	"github.com/yowainwright/tynamo/internal/rows"
)

const (
	fieldTime = iota
	fieldName
)

type Model struct {
	ctx    context.Context
	store  *reconcile.Store
	sched  *poll.Scheduler
	modals *modal.Controller
	logger *zap.Logger

	keys  KeyMap
	help  help.Model
	zones *zone.Manager
	// inZone reports whether a mouse event landed inside a marked zone.
	inZone func(id string, msg tea.MouseMsg) bool

	rows   []rows.Row
	cursor int

	timeInput textinput.Model
	nameInput textinput.Model
	editField int

	status string
	width  int
	height int
}

func New(ctx context.Context, store *reconcile.Store, sched *poll.Scheduler, modals *modal.Controller, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeInput := textinput.New()
	timeInput.Prompt = "Time  "
	timeInput.Placeholder = "hh:mm:ss"
	timeInput.CharLimit = 16

	nameInput := textinput.New()
	nameInput.Prompt = "Name  "
	nameInput.Placeholder = "display name"
	nameInput.CharLimit = 64

	zones := zone.New()

	return Model{
		ctx:       ctx,
		store:     store,
		sched:     sched,
		modals:    modals,
		logger:    logger.Named("tui"),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		zones:     zones,
		inZone:    func(id string, msg tea.MouseMsg) bool { return zones.Get(id).InBounds(msg) },
		timeInput: timeInput,
		nameInput: nameInput,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.startPolling(),
		waitForChange(m.store.Changes()),
	)
}

func (m Model) startPolling() tea.Cmd {
	return func() tea.Msg {
		m.sched.Start(m.ctx)
		return pollStartedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case pollStartedMsg:
		m.syncRows()
		return m, nil

	case viewChangedMsg:
		m.syncRows()
		return m, waitForChange(m.store.Changes())

	case addOpenedMsg:
		if msg.err != nil && !errors.Is(msg.err, modal.ErrSuperseded) {
			m.status = "Could not list processes: " + msg.err.Error()
		}
		return m, nil

	case commandDoneMsg:
		if msg.err != nil {
			m.status = msg.action + ": " + msg.err.Error()
		} else {
			m.status = ""
		}
		m.syncRows()
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) syncRows() {
	m.rows = rows.Map(m.store.View())
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (rows.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return rows.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	kind := m.modals.Kind()
	if kind == modal.KindNone {
		return m, nil
	}
	if !m.inZone(zoneID(kind), msg) {
		m.modals.OutsideActivation(kind)
		m.blurInputs()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.modals.Kind() {
	case modal.KindAdd:
		return m.handleAddKey(msg)
	case modal.KindEdit:
		return m.handleEditKey(msg)
	case modal.KindDelete:
		return m.handleDeleteKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.status = ""

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Add):
		modals, ctx := m.modals, m.ctx
		return m, func() tea.Msg {
			return addOpenedMsg{err: modals.OpenAdd(ctx)}
		}

	case key.Matches(msg, m.keys.Edit):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.modals.OpenEdit(row.Name); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, m.seedEditInputs()

	case key.Matches(msg, m.keys.Remove):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.modals.OpenDelete(row.Name); err != nil {
			m.status = err.Error()
		}

	case key.Matches(msg, m.keys.Pause):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		modals, ctx, name := m.modals, m.ctx, row.Name
		return m, func() tea.Msg {
			_, err := modals.TogglePause(ctx, name)
			return done("Pause", err)
		}
	}

	return m, nil
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.modals.Escape()
	case key.Matches(msg, m.keys.Up):
		m.modals.MoveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.modals.MoveSelection(1)
	case key.Matches(msg, m.keys.Confirm):
		modals, ctx := m.modals, m.ctx
		return m, func() tea.Msg {
			return done("Add", modals.CommitAdd(ctx))
		}
	}
	return m, nil
}

func (m *Model) seedEditInputs() tea.Cmd {
	s, ok := m.modals.Session().(*modal.EditSession)
	if !ok {
		return nil
	}
	m.timeInput.SetValue(s.TimeText)
	m.nameInput.SetValue(s.DisplayName)
	m.editField = fieldTime
	m.nameInput.Blur()
	return m.timeInput.Focus()
}

func (m *Model) blurInputs() {
	m.timeInput.Blur()
	m.nameInput.Blur()
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.modals.Escape()
		m.blurInputs()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		if m.editField == fieldTime {
			m.editField = fieldName
			m.timeInput.Blur()
			return m, m.nameInput.Focus()
		}
		m.editField = fieldTime
		m.nameInput.Blur()
		return m, m.timeInput.Focus()

	case key.Matches(msg, m.keys.ResetTime):
		m.modals.ResetEditTime()
		if s, ok := m.modals.Session().(*modal.EditSession); ok {
			m.timeInput.SetValue(s.TimeText)
		}
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.blurInputs()
		modals, ctx := m.modals, m.ctx
		return m, func() tea.Msg {
			return done("Edit", modals.CommitEdit(ctx))
		}
	}

	var cmd tea.Cmd
	if m.editField == fieldTime {
		m.timeInput, cmd = m.timeInput.Update(msg)
		m.modals.SetEditTime(m.timeInput.Value())
	} else {
		m.nameInput, cmd = m.nameInput.Update(msg)
		m.modals.SetEditDisplayName(m.nameInput.Value())
	}
	return m, cmd
}

func (m Model) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Cancel):
		m.modals.Cancel()
	case key.Matches(msg, m.keys.KeepUsage):
		return m, m.commitDelete(false)
	case key.Matches(msg, m.keys.DeleteUsage):
		return m, m.commitDelete(true)
	}
	return m, nil
}

func (m Model) commitDelete(deleteUsage bool) tea.Cmd {
	modals, ctx := m.modals, m.ctx
	return func() tea.Msg {
		return done("Remove", modals.CommitDelete(ctx, deleteUsage))
	}
}

// Run starts the program and blocks until the user quits. Polling stops
// and the store is closed on return, so late results are discarded.
func Run(ctx context.Context, m Model, mouse bool) error {
	defer m.zones.Close()
	defer m.store.Close()
	defer m.sched.Stop()

	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}
	if mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
