package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/scheduler"
)

var ErrNoOpenSlot = errors.New("clinic has no opening hours configured")

func (a *App) addCmd() *cobra.Command {
	var (
		date      string
		start     string
		duration  int
		service   string
		notes     string
		confirmed bool
	)

	cmd := &cobra.Command{
		Use:   "add <patient>",
		Short: "Book a new appointment",
		Long: `Book a new appointment.

Without --time the next available start is used. Bookings outside opening
hours or overlapping other appointments are created with a warning.`,
		Example: `  clinica add "Ana Ruiz" --date=2025-01-10 --time=09:30 --service=cleaning
  clinica add "Ana Ruiz" --date=tomorrow --duration=60
  clinica add "Ana Ruiz"  # next available start`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if duration == 0 {
				duration = a.config.Calendar.AppointmentMinutes
			}

			hours := a.config.WorkingHours()
			day, at, err := resolveStart(hours, date, start, a.now())
			if err != nil {
				return err
			}

			appt, err := appointment.New(args[0], service, dateutil.FormatDate(day), at, duration)
			if err != nil {
				return err
			}
			appt.Notes = notes
			if confirmed {
				appt.Status = appointment.StatusConfirmed
			}

			ctx := context.Background()
			w := cmd.OutOrStdout()
			if err := a.warnBooking(ctx, w, hours, appt); err != nil {
				return err
			}

			if err := a.repo.CreateAppointment(ctx, appt); err != nil {
				return fmt.Errorf("creating appointment: %w", err)
			}
			a.logger.Info("appointment_created", "appointment_id", appt.ID, "date", dateutil.FormatDate(appt.Date), "time", appt.Time)

			fmt.Fprintf(w, "Booked %s: %s\n", appt.ID, appt.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD, today, tomorrow, monday, +3...)")
	cmd.Flags().StringVar(&start, "time", "", "Start time (HH:MM, default: next available)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes (default from config)")
	cmd.Flags().StringVar(&service, "service", "", "Service reference")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&confirmed, "confirmed", false, "Book as confirmed instead of pending")

	return cmd
}

// resolveStart picks the booking day and time. A missing time is the next
// available start: from now when no date is given, otherwise the opening
// time of that date.
func resolveStart(hours *scheduler.WorkingHours, date, start string, now time.Time) (time.Time, string, error) {
	if date == "" && start == "" {
		slot, ok := hours.NextAvailableStart(now)
		if !ok {
			return time.Time{}, "", ErrNoOpenSlot
		}
		return dateutil.TruncateToDay(slot.Date), slot.Start, nil
	}

	day, err := dateutil.ParseRelativeDate(date, now)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	if start != "" {
		return day, start, nil
	}
	if dateutil.SameDay(day, now) {
		if slot, ok := hours.NextAvailableStart(now); ok && dateutil.SameDay(slot.Date, day) {
			return day, slot.Start, nil
		}
	}
	win, ok := hours.WorkingWindow(day)
	if !ok {
		return time.Time{}, "", fmt.Errorf("%s: %w", dateutil.FormatDate(day), scheduler.ErrClosedDay)
	}
	return day, win.Start, nil
}

// warnBooking prints opening-hours and overlap warnings for appt.
func (a *App) warnBooking(ctx context.Context, w io.Writer, hours *scheduler.WorkingHours, appt *appointment.Appointment) error {
	if err := hours.ValidateSlot(appt.Date, appt.Time, appt.Duration); err != nil {
		fmt.Fprintln(w, formatWarning("Warning: "+err.Error()))
	}

	sameDay, err := a.repo.ListAppointmentsByDateRange(ctx, appt.Date, appt.Date)
	if err != nil {
		return fmt.Errorf("checking overlaps: %w", err)
	}
	for _, c := range calendar.NewDetector(sameDay).Conflicts(appt.Date, appt.Time, appt.Duration, appt.ID) {
		fmt.Fprintln(w, formatWarning(fmt.Sprintf("Warning: overlaps %s by %d minutes", c.Appointment.Summary(), c.OverlapMinutes)))
	}
	return nil
}
