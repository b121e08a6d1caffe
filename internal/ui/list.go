package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/dateutil"
)

func (a *App) listCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		status    string
		verbose   bool
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments in a date range",
		Long: `List all appointments booked within a date range.

If no dates are specified, lists today's appointments.
If only --start is specified, lists appointments for that single day.
If both --start and --end are specified, lists appointments in that range (inclusive).`,
		Example: `  clinica list
  clinica list --start=2025-01-15
  clinica list --start=2025-01-15 --end=2025-01-20 --status=pending`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			var want appointment.Status
			if status != "" {
				s, err := appointment.ParseStatus(status)
				if err != nil {
					return err
				}
				want = s
			}

			dateRange, err := dateutil.NewDateRange(startDate, endDate)
			if err != nil {
				return err
			}

			appts, err := a.repo.ListAppointmentsByDateRange(context.Background(), dateRange.Start, dateRange.End)
			if err != nil {
				return fmt.Errorf("listing appointments: %w", err)
			}
			appts = filterStatus(appts, want)

			w := cmd.OutOrStdout()
			if len(appts) == 0 {
				fmt.Fprintln(w, "No appointments found in the specified date range.")
				return nil
			}

			opts := PrintOpts{Verbose: verbose, ShowDuration: true, ShowID: true}
			printDayGroups(w, appts, opts, opts.CalcMaxNameWidth(32))
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD, defaults to start date)")
	cmd.Flags().StringVar(&status, "status", "", "Only show pending, confirmed or cancelled")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show notes and full names")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")

	return cmd
}

// filterStatus keeps appointments with status want; empty keeps all.
func filterStatus(appts []*appointment.Appointment, want appointment.Status) []*appointment.Appointment {
	if want == "" {
		return appts
	}
	out := appts[:0:0]
	for _, a := range appts {
		if a.Status == want {
			out = append(out, a)
		}
	}
	return out
}
