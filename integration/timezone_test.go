package integration

import (
	"context"
	"testing"
	"time"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/dateutil"
)

func TestTimezone_TodayVisibleInCurrentWeek(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	a := &appointment.Appointment{
		PatientRef: "Local patient",
		Date:       today,
		Time:       "10:00",
		Duration:   30,
		Status:     appointment.StatusConfirmed,
	}
	if err := repo.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	// Navigator defaults to the clock's today, in local time.
	cal := calendar.New(repo, calendar.Config{})
	t.Cleanup(cal.Close)
	if err := cal.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	r := cal.LoadedRange()
	t.Logf("week %s - %s in %v", dateutil.FormatDate(r.Start), dateutil.FormatDate(r.End), r.Start.Location())
	if !r.Contains(today) {
		t.Fatalf("expected loaded range to contain %s", dateutil.FormatDate(today))
	}
	if got := cal.CountForDay(today); got != 1 {
		t.Errorf("expected 1 appointment today, got %d", got)
	}
	if got := cal.AppointmentsAt(today, 10); len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("expected the appointment in today's 10:00 slot, got %d", len(got))
	}
}

func TestTimezone_SlotIDUsesCalendarDay(t *testing.T) {
	zones := []struct {
		name string
		loc  *time.Location
	}{
		{"utc", time.UTC},
		{"far east", time.FixedZone("UTC+13", 13*3600)},
		{"far west", time.FixedZone("UTC-11", -11*3600)},
	}

	for _, z := range zones {
		t.Run(z.name, func(t *testing.T) {
			late := time.Date(2025, 1, 15, 23, 30, 0, 0, z.loc)
			if got := calendar.SlotID(late, 9); got != "slot-2025-01-15-09" {
				t.Errorf("expected slot-2025-01-15-09, got %s", got)
			}
		})
	}
}

func TestTimezone_DropPersistsCalendarDay(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	a := book(t, repo, "Ana", "2025-01-15", "09:00", 30)

	cal := openCalendar(t, repo, "2025-01-15", nil)
	coord := cal.Coordinator()

	// A cell picked from a late-evening local time far east of UTC still
	// names the 16th.
	cell := time.Date(2025, 1, 16, 23, 0, 0, 0, time.FixedZone("UTC+13", 13*3600))
	coord.OnDragStart(a.ID)
	res, err := coord.OnDragEnd(ctx, a.ID, calendar.SlotID(cell, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != calendar.OutcomeCommitted {
		t.Fatalf("expected committed, got %s", res.Outcome)
	}

	got := get(t, repo, a.ID)
	if dateutil.FormatDate(got.Date) != "2025-01-16" || got.Time != "12:00" {
		t.Errorf("expected 2025-01-16 12:00, got %s %s", dateutil.FormatDate(got.Date), got.Time)
	}
	if got.Date.Location() != time.Local {
		t.Errorf("expected stored dates to load in local time, got %v", got.Date.Location())
	}

	// Reloaded snapshot indexes the move under the same day whichever
	// location the lookup date carries.
	if err := cal.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	for _, day := range []time.Time{
		mustParseDate(t, "2025-01-16"),
		time.Date(2025, 1, 16, 0, 0, 0, 0, time.Local),
	} {
		if n := len(cal.AppointmentsAt(day, 12)); n != 1 {
			t.Errorf("expected 1 appointment at 12:00 on %v, got %d", day, n)
		}
	}
}
