package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/clinica/internal/appointment"
)

// PrintOpts configures appointment printing behavior.
type PrintOpts struct {
	Verbose      bool // Show notes and full names
	ShowDuration bool // Show duration column
	ShowID       bool // Show the appointment id
	MaxNameWidth int  // Maximum patient/service width (0 = auto)
}

// CalcMaxNameWidth calculates the maximum patient/service width.
func (o PrintOpts) CalcMaxNameWidth(defaultWidth int) int {
	if o.MaxNameWidth > 0 {
		return o.MaxNameWidth
	}
	if !o.Verbose {
		return defaultWidth
	}
	tw := termWidth()
	// Base: "  ○  HH:MM-HH:MM  " = ~18 chars
	// Duration suffix: "  Xh" = ~6 chars
	// Id prefix: 36 char uuid plus padding
	overhead := 18
	if o.ShowDuration {
		overhead += 6
	}
	if o.ShowID {
		overhead += 38
	}
	available := tw - overhead
	if available > defaultWidth {
		return available
	}
	return defaultWidth
}

// statusSymbol returns the status indicator for an appointment.
func statusSymbol(s appointment.Status) string {
	switch s {
	case appointment.StatusConfirmed:
		return "●"
	case appointment.StatusPending:
		return "○"
	case appointment.StatusCancelled:
		return "✗"
	default:
		return "?"
	}
}

// describe is the patient plus service label of a row.
func describe(a *appointment.Appointment) string {
	if a.ServiceRef == "" {
		return a.PatientRef
	}
	return a.PatientRef + " · " + a.ServiceRef
}

// PrintAppointmentRow prints a single appointment row with consistent
// formatting.
func PrintAppointmentRow(w io.Writer, a *appointment.Appointment, opts PrintOpts, maxNameWidth int) {
	symbol := formatStatus(a.Status, statusSymbol(a.Status))
	name := ansi.Truncate(describe(a), maxNameWidth, "...")
	name = formatStatus(a.Status, name+strings.Repeat(" ", max(maxNameWidth-ansi.StringWidth(name), 0)))

	var b strings.Builder
	b.WriteString("  ")
	if opts.ShowID {
		b.WriteString(formatMuted(a.ID))
		b.WriteString("  ")
	}
	fmt.Fprintf(&b, "%s  %s-%s  %s", symbol, a.Time, a.EndTime(), name)
	if opts.ShowDuration {
		b.WriteString("  ")
		b.WriteString(formatMuted(FormatDuration(a.Duration)))
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))

	if opts.Verbose && a.Notes != "" {
		wrapAndPrint(w, a.Notes, "      │ ", maxNameWidth+12)
	}
}

// printDayGroups prints appointments grouped under a header per date.
func printDayGroups(w io.Writer, appts []*appointment.Appointment, opts PrintOpts, maxNameWidth int) {
	var currentDate string
	for _, a := range appts {
		date := a.Date.Format("2006-01-02")
		if date != currentDate {
			if currentDate != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "  %s\n", formatHeader(a.Date.Format("Mon Jan 2")))
			currentDate = date
		}
		PrintAppointmentRow(w, a, opts, maxNameWidth)
	}
}

// PrintWeekStats prints the week summary. openMinutes is the clinic's
// total opening time that week.
func PrintWeekStats(w io.Writer, stats appointment.WeekStats, openMinutes int) {
	fmt.Fprintf(w, "  %s  |  %s  |  %s  |  Booked: %s\n",
		formatStatus(appointment.StatusConfirmed, fmt.Sprintf("Confirmed: %d", stats.Confirmed)),
		formatStatus(appointment.StatusPending, fmt.Sprintf("Pending: %d", stats.Pending)),
		formatStatus(appointment.StatusCancelled, fmt.Sprintf("Cancelled: %d", stats.Cancelled)),
		formatStats(FormatDuration(stats.BookedMinutes)),
	)

	if day, minutes := stats.BusiestDay(); day >= 0 {
		fmt.Fprintf(w, "  Busiest day: %s (%s booked)\n", appointment.WeekdayName(day), formatStats(FormatDuration(minutes)))
	}
	if openMinutes > 0 {
		fmt.Fprintf(w, "  Load: %s\n", LoadBar(stats.BookedMinutes, openMinutes, 20))
	}
}

// LoadBar draws booked minutes against opening minutes.
func LoadBar(bookedMinutes, openMinutes, width int) string {
	if openMinutes <= 0 {
		return "[" + strings.Repeat("░", width) + "] (0% booked)"
	}

	pct := (bookedMinutes * 100) / openMinutes
	filled := min((bookedMinutes*width)/openMinutes, width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	label := fmt.Sprintf("(%d%% booked)", pct)
	if pct > 100 {
		return fmt.Sprintf("[%s] %s", formatWarning(bar), formatWarning(label))
	}
	return fmt.Sprintf("[%s] %s", formatStats(bar), formatStats(label))
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// wrapAndPrint wraps text to width and prints with the given prefix.
func wrapAndPrint(w io.Writer, text, prefix string, width int) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	line := ""
	for _, word := range words {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			fmt.Fprintln(w, formatMuted(prefix+line))
			line = word
		}
	}
	if line != "" {
		fmt.Fprintln(w, formatMuted(prefix+line))
	}
}
