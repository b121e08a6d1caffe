package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/dateutil"
)

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.nav.View() {
	case calendar.ViewMonth:
		b.WriteString(m.renderMonth())
	case calendar.ViewTeam:
		b.WriteString(m.renderTeam())
	default:
		b.WriteString(m.renderGrid())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	out := b.String()
	if m.mode == ModeConflict {
		if modal := m.renderConflictModal(); modal != "" {
			width, height := m.width, m.height
			if width <= 0 {
				width = lipgloss.Width(out)
			}
			if height <= 0 {
				height = lipgloss.Height(out)
			}
			out = placeOverlay(out, modal, width, height)
		}
	}
	return out
}

func (m Model) renderHeader() string {
	r := m.nav.VisibleRange()
	title := m.styles.TitleStyle.Render(m.clinic)
	label := m.styles.RangeStyle.Render(rangeLabel(r))

	tabs := make([]string, 0, len(calendar.Views))
	for i, v := range calendar.Views {
		text := fmt.Sprintf("%d %s", i+1, titleCase(string(v)))
		if v == m.nav.View() {
			tabs = append(tabs, m.styles.TabActiveStyle.Render(text))
		} else {
			tabs = append(tabs, m.styles.TabStyle.Render(text))
		}
	}

	line := title + "  " + label
	if m.loading || m.nav.Pending() {
		line += "  " + m.styles.LoadingStyle.Render("loading…")
	}
	return line + "\n" + strings.Join(tabs, "")
}

func rangeLabel(r calendar.VisibleRange) string {
	switch r.View {
	case calendar.ViewMonth:
		return r.Date.Format("January 2006")
	case calendar.ViewWeek:
		return fmt.Sprintf("%s - %s", r.Start.Format("Mon Jan 2"), r.End.Format("Mon Jan 2, 2006"))
	default:
		return r.Date.Format("Monday, January 2, 2006")
	}
}

// columnWidth splits the terminal between n columns after the gutter.
func (m Model) columnWidth(n int) int {
	if n <= 0 {
		return minColWidth
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	return min(max((width-gutterWidth)/n, minColWidth), maxColWidth)
}

// renderGrid draws the hour-by-day grid of the day and week views.
func (m Model) renderGrid() string {
	days := m.nav.VisibleRange().Days()
	colW := m.columnWidth(len(days))
	today := dateutil.TruncateToDay(m.now())

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for _, d := range days {
		style := m.styles.DayHeaderStyle
		if dateutil.SameDay(d, today) {
			style = m.styles.DayHeaderTodayStyle
		}
		text := fmt.Sprintf("%s (%d)", weekdayLabel(d), m.cal.CountForDay(d))
		b.WriteString(style.Width(colW).Render(truncate(text, colW)))
	}
	b.WriteString("\n")

	for _, hour := range m.hours.Hours() {
		b.WriteString(m.styles.TimeColumnStyle.Render(appointment.HourClock(hour)))
		for _, d := range days {
			appts := m.cal.AppointmentsAt(d, hour)
			b.WriteString(m.renderCell(d, hour, appts, colW))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// renderTeam draws the single-day view with one lane per service.
func (m Model) renderTeam() string {
	date := m.nav.VisibleRange().Date
	lanes := m.teamLanes(date)
	colW := m.columnWidth(len(lanes))

	var b strings.Builder
	b.WriteString(m.styles.DayHeaderStyle.Render(date.Format("Monday, January 2")))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for _, lane := range lanes {
		b.WriteString(m.styles.LaneHeaderStyle.Width(colW).Render(truncate(laneTitle(lane), colW)))
	}
	b.WriteString("\n")

	for _, hour := range m.hours.Hours() {
		b.WriteString(m.styles.TimeColumnStyle.Render(appointment.HourClock(hour)))
		all := m.cal.AppointmentsAt(date, hour)
		for _, lane := range lanes {
			var inLane []*appointment.Appointment
			for _, a := range all {
				if a.ServiceRef == lane {
					inLane = append(inLane, a)
				}
			}
			b.WriteString(m.renderCell(date, hour, inLane, colW))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// teamLanes lists the services booked on date, sorted. A day without
// bookings gets one unnamed lane.
func (m Model) teamLanes(date time.Time) []string {
	var lanes []string
	for _, a := range m.cal.Appointments() {
		if a.IsCancelled() || !a.OnDay(date) || slices.Contains(lanes, a.ServiceRef) {
			continue
		}
		lanes = append(lanes, a.ServiceRef)
	}
	if len(lanes) == 0 {
		return []string{""}
	}
	slices.Sort(lanes)
	return lanes
}

func laneTitle(service string) string {
	if service == "" {
		return "general"
	}
	return service
}

func (m Model) renderCell(date time.Time, hour int, appts []*appointment.Appointment, width int) string {
	isCursor := dateutil.SameDay(date, m.cursor.Date) && hour == m.cursor.Hour
	working := m.hours.IsWorkingHour(date, hour)

	text := ""
	style := m.styles.CellStyle
	if !working {
		style = m.styles.ClosedCellStyle
		text = "·"
	}

	if len(appts) > 0 {
		idx := 0
		if isCursor {
			idx = m.selected % len(appts)
		}
		a := appts[idx]
		text = a.Time + " " + a.PatientRef
		if len(appts) > 1 {
			text += fmt.Sprintf(" +%d", len(appts)-1)
		}
		switch {
		case m.isDragged(a):
			style = m.styles.DraggedStyle
		case a.IsConfirmed():
			style = m.styles.ConfirmedStyle
		default:
			style = m.styles.PendingStyle
		}
	}

	if isCursor {
		if m.mode == ModeDrag {
			style = m.styles.HoverCellStyle
			if len(appts) == 0 {
				text = "drop here"
			}
		} else if len(appts) == 0 {
			style = m.styles.CursorCellStyle
		} else {
			style = style.Bold(true).Underline(true)
		}
	}
	return style.Width(width).Render(truncate(" "+text, width))
}

// renderMonth draws Monday-first weeks covering the month.
func (m Model) renderMonth() string {
	r := m.nav.VisibleRange()
	first, _ := dateutil.WeekRange(r.Start)
	_, last := dateutil.WeekRange(r.End)
	colW := m.columnWidth(7)
	today := dateutil.TruncateToDay(m.now())

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for i := range 7 {
		b.WriteString(m.styles.DayHeaderStyle.Width(colW).Render(appointment.WeekdayShortName(i)))
	}
	b.WriteString("\n")

	for week := first; !week.After(last); week = week.AddDate(0, 0, 7) {
		_, isoWeek := week.ISOWeek()
		lines := [monthRowLines]strings.Builder{}
		lines[0].WriteString(m.styles.TimeColumnStyle.Render(fmt.Sprintf("W%02d", isoWeek)))
		lines[1].WriteString(strings.Repeat(" ", gutterWidth))

		for i := range 7 {
			d := week.AddDate(0, 0, i)
			dayStyle := m.styles.CellStyle
			switch {
			case !r.Contains(d):
				dayStyle = m.styles.OutsideDayStyle
			case !m.hours.IsWorkingDay(d):
				dayStyle = m.styles.ClosedCellStyle
			}
			if dateutil.SameDay(d, today) {
				dayStyle = dayStyle.Foreground(m.styles.Palette().Today).Bold(true)
			}
			if dateutil.SameDay(d, m.cursor.Date) {
				if m.mode == ModeDrag {
					dayStyle = m.styles.HoverCellStyle
				} else {
					dayStyle = m.styles.CursorCellStyle.Underline(true)
				}
			}

			count := ""
			if n := m.cal.CountForDay(d); n > 0 && r.Contains(d) {
				count = m.styles.MonthCountStyle.Render(fmt.Sprintf(" • %d", n))
			}
			lines[0].WriteString(dayStyle.Width(colW).Render(truncate(fmt.Sprintf(" %2d", d.Day()), colW)))
			lines[1].WriteString(lipgloss.NewStyle().Width(colW).Render(count))
		}
		b.WriteString(lines[0].String())
		b.WriteString("\n")
		b.WriteString(lines[1].String())
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderFooter() string {
	var lines []string
	lines = append(lines, m.styles.SummaryStyle.Render(m.summaryLine()))

	if a, ok := m.selectedAppointment(); ok && m.nav.View() != calendar.ViewMonth {
		lines = append(lines, m.styles.RangeStyle.Render(a.Summary()))
	}

	switch {
	case m.mode == ModePrompt:
		lines = append(lines, m.prompt.View())
	case m.statusMsg != "":
		style := m.styles.StatusStyle
		if m.statusErr {
			style = m.styles.StatusErrorStyle
		}
		lines = append(lines, style.Render(m.statusMsg))
	}

	lines = append(lines, m.styles.HelpStyle.Render(m.helpLine()))
	return strings.Join(lines, "\n")
}

func (m Model) helpLine() string {
	switch m.mode {
	case ModeDrag:
		return "←↓↑→ pick slot • [/] page • enter drop • esc cancel"
	case ModeConflict:
		return "y confirm overlap • n keep original time"
	case ModePrompt:
		return "enter go • tab complete • esc cancel"
	default:
		return "[/] prev/next • t today • g go to • v/1-4 view • m move • tab next • c copy • q quit"
	}
}

func (m Model) renderConflictModal() string {
	res, ok := m.coord.Pending()
	if !ok || res.Move == nil || res.Conflict == nil {
		return ""
	}
	moving := res.Move.Appointment
	other := res.Conflict.Appointment
	end := appointment.MinutesToTime(appointment.TimeToMinutes(res.Move.Time) + moving.Duration)

	body := []string{
		m.styles.ModalTitleStyle.Render("Overlapping appointment"),
		"",
		m.styles.ModalTextStyle.Render(fmt.Sprintf("Move %s to %s %s-%s?",
			moving.PatientRef, res.Move.Date.Format("Mon Jan 2"), res.Move.Time, end)),
		m.styles.ModalMutedStyle.Render("Overlaps " + other.Summary()),
		m.styles.ModalWarnStyle.Render(fmt.Sprintf("%d minutes of overlap", res.Conflict.OverlapMinutes)),
		"",
		m.styles.ModalMutedStyle.Render("y confirm • n cancel"),
	}
	return m.styles.ModalStyle.Render(strings.Join(body, "\n"))
}

func truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
