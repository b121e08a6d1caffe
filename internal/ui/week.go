package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/scheduler"
)

func (a *App) weekCmd() *cobra.Command {
	var (
		date    string
		verbose bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show a week of appointments with stats",
		Long: `Display Monday through Sunday of a week with each day's appointments,
status counts, the busiest day and how much of the opening time is booked.`,
		Example: `  clinica week
  clinica week --date=next-week`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			day, err := dateutil.ParseRelativeDate(date, a.now())
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", date, err)
			}
			monday, sunday := dateutil.WeekRange(day)

			appts, err := a.repo.ListAppointmentsByDateRange(context.Background(), monday, sunday)
			if err != nil {
				return fmt.Errorf("listing appointments: %w", err)
			}

			w := cmd.OutOrStdout()
			header := fmt.Sprintf("WEEK: %s - %s", monday.Format("Mon Jan 2"), sunday.Format("Mon Jan 2, 2006"))
			fmt.Fprintf(w, "\n  %s\n", formatHeader(header))
			fmt.Fprintln(w, strings.Repeat("─", 74))

			if len(appts) == 0 {
				fmt.Fprintln(w, "  No appointments booked this week.")
				return nil
			}

			opts := PrintOpts{Verbose: verbose, ShowDuration: true, ShowID: verbose}
			printDayGroups(w, appts, opts, opts.CalcMaxNameWidth(36))

			week := appointment.NewWeekFromAppointments(monday, appts)
			fmt.Fprintln(w, strings.Repeat("─", 74))
			PrintWeekStats(w, week.Stats(), openMinutes(a.config.WorkingHours(), monday))
			fmt.Fprintln(w)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any day of the week to show (default: today)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show ids, notes and full names")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

// openMinutes sums the opening time of the seven days from monday.
func openMinutes(hours *scheduler.WorkingHours, monday time.Time) int {
	total := 0
	for i := range 7 {
		if win, ok := hours.WorkingWindow(monday.AddDate(0, 0, i)); ok {
			iv := win.Interval()
			total += iv.End - iv.Start
		}
	}
	return total
}
