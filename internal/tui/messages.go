package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yowainwright/tynamo/internal/modal"
)

// pollStartedMsg follows the initial refresh.
type pollStartedMsg struct{}

// viewChangedMsg is sent whenever the store installs a new snapshot.
type viewChangedMsg struct{}

// addOpenedMsg carries the result of fetching Add candidates.
type addOpenedMsg struct{ err error }

// commandDoneMsg reports the outcome of an asynchronous user action.
type commandDoneMsg struct {
	action string
	err    error
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return viewChangedMsg{}
	}
}

func done(action string, err error) tea.Msg {
	return commandDoneMsg{action: action, err: err}
}

func zoneID(kind modal.Kind) string {
	return "modal-" + kind.String()
}
