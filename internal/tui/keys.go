package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Add    key.Binding
	Edit   key.Binding
	Remove key.Binding
	Pause  key.Binding
	Escape key.Binding
	Quit   key.Binding

	// Modal keys
	Confirm     key.Binding
	NextField   key.Binding
	ResetTime   key.Binding
	KeepUsage   key.Binding
	DeleteUsage key.Binding
	Cancel      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add app"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "remove"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch field"),
		),
		ResetTime: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset time"),
		),
		KeepUsage: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "keep usage"),
		),
		DeleteUsage: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete usage"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel"),
		),
	}
}

// ShortHelp and FullHelp make KeyMap a help.KeyMap for the main list.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Remove, k.Pause, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Add, k.Edit, k.Remove, k.Pause},
		{k.Escape, k.Quit},
	}
}

type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

func (k KeyMap) addHelp() bindings {
	return bindings{k.Up, k.Down, k.Confirm, k.Escape}
}

func (k KeyMap) editHelp() bindings {
	return bindings{k.NextField, k.ResetTime, k.Confirm, k.Escape}
}

func (k KeyMap) deleteHelp() bindings {
	return bindings{k.KeepUsage, k.DeleteUsage, k.Cancel}
}
