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
)

// Move errors.
var (
	ErrMoveOutsideHours = errors.New("clinic is closed at that hour")
	ErrMoveBusy         = errors.New("another move of this appointment is still saving")
	ErrMoveIgnored      = errors.New("appointment cannot be moved")
)

func (a *App) moveCmd() *cobra.Command {
	var (
		date string
		hour int
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "move <appointment-id>",
		Short: "Move an appointment to another hour",
		Long: `Move an appointment to the given date and hour.

The new start is the top of the hour and the duration is kept. If the new
slot overlaps another appointment you are asked to confirm, unless --yes
is given.`,
		Example: `  clinica move 4f9c... --hour=11
  clinica move 4f9c... --date=tomorrow --hour=9 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("date") && !cmd.Flags().Changed("hour") {
				return errors.New("--date or --hour is required")
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if err := a.ensureGuard(); err != nil {
				return err
			}

			ctx := context.Background()
			appt, err := a.repo.GetAppointment(ctx, args[0])
			if err != nil {
				return err
			}

			day := appt.Date
			if date != "" {
				if day, err = dateutil.ParseRelativeDate(date, a.now()); err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}
			if !cmd.Flags().Changed("hour") {
				hour = appt.StartHour()
			}
			if hour < 0 || hour > 23 {
				return fmt.Errorf("hour must be between 0 and 23, got %d", hour)
			}

			return a.moveAppointment(ctx, cmd.OutOrStdout(), appt, day, hour, yes)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Target date (YYYY-MM-DD, tomorrow, monday, +3...; default: same day)")
	cmd.Flags().IntVar(&hour, "hour", 0, "Target hour (0-23; default: same hour)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm overlapping moves without asking")

	return cmd
}

// moveAppointment drives the drag coordinator for a single drop of appt on
// the hour slot of day.
func (a *App) moveAppointment(ctx context.Context, w io.Writer, appt *appointment.Appointment, day time.Time, hour int, yes bool) error {
	target, err := a.repo.ListAppointmentsByDateRange(ctx, day, day)
	if err != nil {
		return fmt.Errorf("loading target day: %w", err)
	}
	snapshot := target
	if !dateutil.SameDay(appt.Date, day) {
		snapshot = append(snapshot, appt)
	}

	coord := a.newCoordinator()
	coord.SetAppointments(snapshot)
	if !coord.OnDragStart(appt.ID) {
		return ErrMoveIgnored
	}
	slot := calendar.SlotID(day, hour)
	coord.OnDragOver(slot)

	res, err := coord.OnDragEnd(ctx, appt.ID, slot)
	if err != nil {
		return err
	}

	if res.Outcome == calendar.OutcomeConflict {
		c := res.Conflict
		fmt.Fprintln(w, formatWarning(fmt.Sprintf("Overlaps %s by %d minutes", c.Appointment.Summary(), c.OverlapMinutes)))
		if !yes && !promptYesNo(a.in, w, "Move anyway?") {
			coord.CancelConflict()
			fmt.Fprintln(w, "Move cancelled")
			return nil
		}
		if res, err = coord.ConfirmConflict(ctx); err != nil {
			return err
		}
	}

	switch res.Outcome {
	case calendar.OutcomeCommitted:
		fmt.Fprintf(w, "Moved %s to %s %s\n", appt.PatientRef, dateutil.FormatDate(res.Move.Date), res.Move.Time)
		return nil
	case calendar.OutcomeUnchanged:
		fmt.Fprintf(w, "%s is already at %s %s\n", appt.PatientRef, dateutil.FormatDate(appt.Date), appt.Time)
		return nil
	case calendar.OutcomeOutsideHours:
		return fmt.Errorf("%w: %s %s", ErrMoveOutsideHours, dateutil.FormatDate(day), appointment.HourClock(hour))
	case calendar.OutcomeBusy:
		return ErrMoveBusy
	default:
		return ErrMoveIgnored
	}
}
