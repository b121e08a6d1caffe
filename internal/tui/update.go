package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/tui/commands"
)

const (
	statusDuration = 3 * time.Second
	errorDuration  = 5 * time.Second
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// A narrow terminal forces the day view; the range arrives on
		// the updates channel.
		m.nav.SetViewportWidth(msg.Width)
		return m, nil

	case commands.RangeSettledMsg:
		m.loading = true
		return m, tea.Batch(
			commands.LoadRange(m.cal, msg.Range),
			commands.WaitForRange(m.nav.Updates()),
		)

	case commands.RangeLoadedMsg:
		m.loading = false
		if !msg.Range.Contains(m.cursor.Date) && !m.nav.Pending() {
			m.cursor.Date = msg.Range.Date
		}
		m.selected = 0
		return m, nil

	case commands.DropMsg:
		return m.handleDrop(msg)

	case commands.ErrMsg:
		m.loading = false
		return m.setStatus(fmt.Sprintf("Error: %v", msg.Err), true)

	case commands.StatusMsgCmd:
		return m.setStatus(msg.Msg, false)

	case commands.ClearStatusMsg:
		if !m.now().Before(m.statusTime) {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil
	}

	if m.mode == ModePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleDrop(msg commands.DropMsg) (tea.Model, tea.Cmd) {
	res := msg.Result
	if msg.Err != nil {
		m.mode = ModeNormal
		model, cmd := m.setStatus(fmt.Sprintf("Move failed: %v", msg.Err), true)
		return model, tea.Batch(cmd, m.reload())
	}

	switch res.Outcome {
	case calendar.OutcomeConflict:
		m.mode = ModeConflict
		return m, nil
	case calendar.OutcomeCommitted:
		m.mode = ModeNormal
		m.selected = 0
		text := fmt.Sprintf("Moved %s to %s %s", res.Move.Appointment.PatientRef, res.Move.Date.Format("Mon Jan 2"), res.Move.Time)
		model, cmd := m.setStatus(text, false)
		return model, tea.Batch(cmd, m.reload())
	case calendar.OutcomeBusy:
		m.mode = ModeNormal
		return m.setStatus("Previous move still saving", true)
	case calendar.OutcomeOutsideHours:
		m.mode = ModeNormal
		return m.setStatus("Clinic is closed at that hour", true)
	case calendar.OutcomeUnchanged:
		m.mode = ModeNormal
		return m.setStatus("Same slot, nothing to move", false)
	default:
		m.mode = ModeNormal
		return m, nil
	}
}

// reload refetches the settled range.
func (m Model) reload() tea.Cmd {
	return commands.LoadRange(m.cal, m.nav.VisibleRange())
}

func (m Model) setStatus(text string, isErr bool) (Model, tea.Cmd) {
	d := statusDuration
	if isErr {
		d = errorDuration
	}
	m.statusMsg = text
	m.statusErr = isErr
	m.statusTime = m.now().Add(d)
	return m, commands.ClearStatusAfter(d)
}

// moveCursorDays shifts the cursor by days and follows it with the
// navigator when it leaves the requested range.
func (m Model) moveCursorDays(days int) Model {
	m.cursor.Date = m.cursor.Date.AddDate(0, 0, days)
	m.selected = 0
	view := m.nav.View()
	if !calendar.RangeFor(view, m.nav.CurrentDate()).Contains(m.cursor.Date) {
		m.nav.GoToDate(m.cursor.Date)
	}
	return m
}

func (m Model) moveCursorHours(hours int) Model {
	first, last := m.hours.FirstWorkingHour(), m.hours.LastWorkingHour()
	m.cursor.Hour = min(max(m.cursor.Hour+hours, first), max(last-1, first))
	m.selected = 0
	return m
}

// navigate steps the navigator and brings the cursor along.
func (m Model) navigate(dir calendar.Direction) Model {
	m.nav.Navigate(dir)
	m.cursor.Date = m.nav.CurrentDate()
	m.selected = 0
	return m
}

func (m Model) goToDate(d time.Time) Model {
	d = dateutil.TruncateToDay(d)
	m.nav.GoToDate(d)
	m.cursor.Date = d
	m.selected = 0
	return m
}

// isDragged reports whether a is the appointment being dragged.
func (m Model) isDragged(a *appointment.Appointment) bool {
	return m.mode == ModeDrag && a.ID == m.dragID
}
