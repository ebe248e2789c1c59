package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yowainwright/tynamo/internal/modal"
	"github.com/yowainwright/tynamo/internal/rows"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tynamo"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Track how much time you've spent in your apps"))
	b.WriteString("\n\n")

	switch s := m.modals.Session().(type) {
	case *modal.AddSession:
		b.WriteString(m.zones.Mark(zoneID(modal.KindAdd), m.renderAdd(s)))
	case *modal.EditSession:
		b.WriteString(m.zones.Mark(zoneID(modal.KindEdit), m.renderEdit(s)))
	case *modal.DeleteSession:
		b.WriteString(m.zones.Mark(zoneID(modal.KindDelete), m.renderDelete(s)))
	default:
		b.WriteString(m.renderList())
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.status))
	}

	return m.zones.Scan(b.String())
}

func (m Model) renderList() string {
	if len(m.rows) == 0 {
		return subtitleStyle.Render("You are not tracking any apps.") + "\n"
	}

	var b strings.Builder
	for i, row := range m.rows {
		b.WriteString(m.renderRow(row, i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(row rows.Row, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("▸ ")
	}

	parts := []string{cursor + lipgloss.NewStyle().Bold(true).Render(row.Label)}
	if row.Running {
		parts = append(parts, runningBadge.Render(row.Status()))
	} else {
		parts = append(parts, stoppedBadge.Render(row.Status()))
	}
	if row.Paused {
		parts = append(parts, pausedBadge.Render("Paused"))
	}
	if row.HasTime {
		parts = append(parts, timeStyle.Render(row.TimeLabel))
	}
	if selected {
		parts = append(parts, subtitleStyle.Render("["+row.PauseAction()+"]"))
	}

	return strings.Join(parts, " ")
}

func (m Model) renderAdd(s *modal.AddSession) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select an App"))
	b.WriteString("\n\n")

	if len(s.Candidates) == 0 {
		b.WriteString(subtitleStyle.Render("No running processes found."))
		b.WriteString("\n")
	}

	// Show a window of candidates around the selection.
	const window = 10
	start := s.Index() - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(s.Candidates) {
		end = len(s.Candidates)
		if start = end - window; start < 0 {
			start = 0
		}
	}

	for _, p := range s.Candidates[start:end] {
		if p.Name == s.Selected {
			b.WriteString(cursorStyle.Render("▸ " + p.Name))
		} else {
			b.WriteString("  " + p.Name)
		}
		b.WriteString("\n")
	}

	if p, ok := s.Current(); ok {
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(p.ExePath))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys.addHelp()))

	return modalStyle.Render(b.String())
}

func (m Model) renderEdit(s *modal.EditSession) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Edit " + s.Target.Name))
	b.WriteString("\n\n")
	b.WriteString(m.timeInput.View())
	b.WriteString("\n")
	b.WriteString(m.nameInput.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys.editHelp()))

	return modalStyle.Render(b.String())
}

func (m Model) renderDelete(s *modal.DeleteSession) string {
	var b strings.Builder
	b.WriteString(dangerStyle.Render(fmt.Sprintf("Remove %s?", s.Target.Label())))
	b.WriteString("\n\n")
	b.WriteString("Keep its recorded usage, or delete it too?")
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys.deleteHelp()))

	return modalStyle.Render(b.String())
}
