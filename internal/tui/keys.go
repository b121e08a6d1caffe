package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/tui/commands"
	"github.com/javiermolinar/clinica/internal/tui/input"
)

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModePrompt:
		return m.handlePromptKeys(msg)
	case ModeConflict:
		return m.handleConflictKeys(msg)
	case ModeDrag:
		return m.handleDragKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleCursorKeys moves the cursor. It reports whether msg was a
// movement key.
func (m Model) handleCursorKeys(msg tea.KeyMsg) (Model, bool) {
	month := m.nav.View() == calendar.ViewMonth
	switch msg.String() {
	case "h", "left":
		return m.moveCursorDays(-1), true
	case "l", "right":
		return m.moveCursorDays(1), true
	case "k", "up":
		if month {
			return m.moveCursorDays(-7), true
		}
		return m.moveCursorHours(-1), true
	case "j", "down":
		if month {
			return m.moveCursorDays(7), true
		}
		return m.moveCursorHours(1), true
	case "[":
		return m.navigate(calendar.Prev), true
	case "]":
		return m.navigate(calendar.Next), true
	case "t":
		m.nav.GoToToday()
		m.cursor.Date = m.nav.CurrentDate()
		m.selected = 0
		return m, true
	}
	return m, false
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if moved, ok := m.handleCursorKeys(msg); ok {
		return moved, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "v":
		m.nav.SetView(nextView(m.nav.View()))
	case "1", "2", "3", "4":
		m.nav.SetView(calendar.Views[int(msg.String()[0]-'1')])

	case "tab":
		m.selected++
	case "shift+tab":
		if m.selected > 0 {
			m.selected--
		}

	case "g":
		m.mode = ModePrompt
		m.prompt.SetValue("")
		cmd := m.prompt.Focus()
		return m, cmd

	case "r":
		m.loading = true
		return m, m.reload()

	case "c", "y":
		a, ok := m.selectedAppointment()
		if !ok {
			return m.setStatus("No appointment selected", true)
		}
		return m, commands.CopyToClipboard(a.Summary(), "appointment")

	case "m", " ":
		a, ok := m.selectedAppointment()
		if !ok {
			return m.setStatus("No appointment selected", true)
		}
		if !m.coord.OnDragStart(a.ID) {
			return m.setStatus("Appointment is not movable right now", true)
		}
		m.mode = ModeDrag
		m.dragID = a.ID
		m.coord.OnDragOver(m.cursorSlotID())
		return m.setStatus(fmt.Sprintf("Moving %s, pick a slot and press enter", a.PatientRef), false)
	}
	return m, nil
}

// handleDragKeys handles keys while an appointment is picked up.
func (m Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if moved, ok := m.handleCursorKeys(msg); ok {
		moved.coord.OnDragOver(moved.cursorSlotID())
		return moved, nil
	}

	switch msg.String() {
	case "esc", "q":
		m.coord.CancelDrag()
		m.mode = ModeNormal
		m.dragID = ""
		return m.setStatus("Move cancelled", false)
	case "enter", "m", " ":
		id, slot := m.dragID, m.cursorSlotID()
		m.mode = ModeNormal
		m.dragID = ""
		return m, commands.Drop(m.cal, id, slot)
	}
	return m, nil
}

// handleConflictKeys handles the overlap confirmation modal.
func (m Model) handleConflictKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = ModeNormal
		return m, commands.ConfirmConflict(m.coord)
	case "n", "N", "esc", "q":
		m.coord.CancelConflict()
		m.mode = ModeNormal
		return m.setStatus("Move cancelled", false)
	}
	return m, nil
}

// handlePromptKeys handles the go-to-date prompt.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.prompt.Blur()
		return m, nil
	case "tab":
		if completed, ok := input.Autocomplete(m.prompt.Value(), input.DateSuggestions); ok {
			m.prompt.SetValue(completed)
			m.prompt.CursorEnd()
		}
		return m, nil
	case "enter":
		value := m.prompt.Value()
		d, err := dateutil.ParseRelativeDate(value, m.now())
		if err != nil {
			return m.setStatus(fmt.Sprintf("Unknown date %q", value), true)
		}
		m.mode = ModeNormal
		m.prompt.Blur()
		return m.goToDate(d), nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func nextView(v calendar.View) calendar.View {
	for i, known := range calendar.Views {
		if known == v {
			return calendar.Views[(i+1)%len(calendar.Views)]
		}
	}
	return calendar.ViewWeek
}

// weekdayLabel formats a column header.
func weekdayLabel(d time.Time) string {
	return d.Format("Mon 02")
}
