package tui

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
)

// summaryLine describes the loaded snapshot. The week view adds the
// busiest day.
func (m Model) summaryLine() string {
	appts := m.cal.Appointments()
	stats := appointment.Summarize(appts)
	if stats == (appointment.DayStats{}) {
		return "No appointments in view"
	}

	parts := []string{
		fmt.Sprintf("%d booked", stats.Active()),
		fmt.Sprintf("%d confirmed", stats.Confirmed),
		fmt.Sprintf("%d pending", stats.Pending),
	}
	if stats.Cancelled > 0 {
		parts = append(parts, fmt.Sprintf("%d cancelled", stats.Cancelled))
	}
	parts = append(parts, formatMinutes(stats.BookedMinutes))

	if m.nav.View() == calendar.ViewWeek {
		week := appointment.NewWeekFromAppointments(m.nav.VisibleRange().Date, appts)
		if day, minutes := week.Stats().BusiestDay(); day >= 0 {
			parts = append(parts, fmt.Sprintf("busiest %s (%s)", appointment.WeekdayShortName(day), formatMinutes(minutes)))
		}
	}
	return strings.Join(parts, " · ")
}

func formatMinutes(total int) string {
	h, m := total/60, total%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, m)
	}
}
