package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/scheduler"
)

var seedServices = []string{
	"checkup",
	"cleaning",
	"filling",
	"whitening",
	"orthodontics",
	"x-ray",
	"consultation",
}

var seedDurations = []int{30, 30, 45, 60}

// SeedOptions shapes generated demo data.
type SeedOptions struct {
	From   time.Time
	Days   int
	PerDay int
}

func (a *App) seedCmd() *cobra.Command {
	var (
		from   string
		days   int
		perDay int
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the calendar with demo appointments",
		Long: `Generate fake appointments inside the clinic's opening hours.

Some generated bookings overlap on purpose so conflict handling can be
tried out. Use --seed for reproducible data.`,
		Example: `  clinica seed
  clinica seed --from=monday --days=14 --per-day=8 --seed=42`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			start, err := dateutil.ParseRelativeDate(from, a.now())
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", from, err)
			}

			faker := gofakeit.New(seed)
			appts := GenerateAppointments(faker, a.config.WorkingHours(), SeedOptions{From: start, Days: days, PerDay: perDay})
			if len(appts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Clinic is closed on every selected day, nothing to seed.")
				return nil
			}

			if err := a.repo.CreateAppointments(context.Background(), appts); err != nil {
				return fmt.Errorf("seeding appointments: %w", err)
			}
			a.logger.Info("appointments_seeded", "count", len(appts), "from", dateutil.FormatDate(start), "days", days)

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d appointments over %d days from %s\n", len(appts), days, dateutil.FormatDate(start))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD, monday, tomorrow...; default: today)")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to fill")
	cmd.Flags().IntVar(&perDay, "per-day", 6, "Appointments per working day")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	return cmd
}

// GenerateAppointments creates fake bookings on every working day in
// opts. Starts fall on quarter hours inside the opening window and every
// booking fits before closing.
func GenerateAppointments(f *gofakeit.Faker, hours *scheduler.WorkingHours, opts SeedOptions) []*appointment.Appointment {
	var out []*appointment.Appointment
	now := time.Now()
	day := dateutil.TruncateToDay(opts.From)
	for range opts.Days {
		if win, ok := hours.WorkingWindow(day); ok {
			open := win.Interval()
			for range opts.PerDay {
				duration := seedDurations[f.Number(0, len(seedDurations)-1)]
				latest := open.End - duration
				if latest < open.Start {
					continue
				}
				quarters := (latest - open.Start) / 15
				start := appointment.MinutesToTime(open.Start + 15*f.Number(0, quarters))

				out = append(out, &appointment.Appointment{
					ID:         uuid.NewString(),
					Date:       day,
					Time:       start,
					Duration:   duration,
					Status:     seedStatus(f),
					PatientRef: f.Name(),
					ServiceRef: seedServices[f.Number(0, len(seedServices)-1)],
					Notes:      seedNotes(f),
					CreatedAt:  now,
					UpdatedAt:  now,
				})
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// seedStatus favours confirmed bookings with a few cancellations.
func seedStatus(f *gofakeit.Faker) appointment.Status {
	switch n := f.Number(1, 10); {
	case n <= 5:
		return appointment.StatusConfirmed
	case n <= 9:
		return appointment.StatusPending
	default:
		return appointment.StatusCancelled
	}
}

func seedNotes(f *gofakeit.Faker) string {
	if f.Number(1, 4) > 1 {
		return ""
	}
	return "Call back on " + f.Phone()
}
