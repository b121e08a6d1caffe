// Package tui provides the terminal calendar for clinica.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/scheduler"
	"github.com/javiermolinar/clinica/internal/tui/commands"
	"github.com/javiermolinar/clinica/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal   Mode = iota
	ModeDrag          // An appointment is picked up
	ModeConflict      // A drop waits for confirmation
	ModePrompt        // Go-to-date prompt
)

// Position is the cursor in the calendar grid.
type Position struct {
	Date time.Time
	Hour int
}

// Options configures the model.
type Options struct {
	ClinicName string
	Theme      string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	cal   *calendar.Calendar
	nav   *calendar.Navigator
	coord *calendar.Coordinator
	hours *scheduler.WorkingHours

	clinic string
	now    func() time.Time
	styles *Styles

	// State
	mode     Mode
	cursor   Position
	selected int    // index among the appointments at the cursor slot
	dragID   string // appointment being dragged
	loading  bool

	prompt textinput.Model

	width  int
	height int

	statusMsg  string
	statusErr  bool
	statusTime time.Time
}

// New creates a model over cal.
func New(cal *calendar.Calendar, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	t, err := theme.Load(opts.Theme)
	if err != nil {
		t, _ = theme.Load(theme.DefaultName)
	}
	styles := NewStyles(t)

	prompt := textinput.New()
	prompt.Placeholder = "2025-01-15, tomorrow, next-monday"
	prompt.Prompt = "Go to: "
	prompt.PromptStyle = styles.PromptStyle
	prompt.CharLimit = 32

	name := opts.ClinicName
	if name == "" {
		name = "Clinica"
	}

	nav := cal.Navigator()
	hours := cal.Hours()
	return Model{
		cal:    cal,
		nav:    nav,
		coord:  cal.Coordinator(),
		hours:  hours,
		clinic: name,
		now:    now,
		styles: styles,
		mode:   ModeNormal,
		cursor: Position{Date: nav.CurrentDate(), Hour: defaultHour(hours, now())},
		prompt: prompt,
	}
}

// defaultHour places the cursor on the current hour when it is on the
// grid, otherwise on the first working hour.
func defaultHour(hours *scheduler.WorkingHours, now time.Time) int {
	first, last := hours.FirstWorkingHour(), hours.LastWorkingHour()
	if h := now.Hour(); h >= first && h < last {
		return h
	}
	return first
}

// Init loads the initial range and starts listening for navigation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		commands.LoadRange(m.cal, m.nav.VisibleRange()),
		commands.WaitForRange(m.nav.Updates()),
	)
}

// Mode returns the interaction mode.
func (m Model) Mode() Mode { return m.mode }

// Cursor returns the cursor position.
func (m Model) Cursor() Position { return m.cursor }

// selectedAppointment returns the highlighted appointment at the cursor.
func (m Model) selectedAppointment() (*appointment.Appointment, bool) {
	appts := m.cal.AppointmentsAt(m.cursor.Date, m.cursor.Hour)
	if len(appts) == 0 {
		return nil, false
	}
	return appts[m.selected%len(appts)], true
}

// cursorSlotID is the drop target under the cursor. The month grid has no
// hours, so there the dragged appointment keeps its original hour.
func (m Model) cursorSlotID() string {
	hour := m.cursor.Hour
	if m.nav.View() == calendar.ViewMonth {
		if p, ok := m.coord.Payload(); ok {
			hour, _ = appointment.ParseClock(p.SourceTime)
		}
	}
	return calendar.SlotID(m.cursor.Date, hour)
}

// Run starts the TUI over cal.
func Run(cal *calendar.Calendar, opts Options) error {
	p := tea.NewProgram(New(cal, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
