package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/config"
	"github.com/javiermolinar/clinica/internal/db"
	"github.com/javiermolinar/clinica/internal/redislock"
)

// openRepo creates a fresh repository for each test with automatic cleanup.
func openRepo(t *testing.T) *db.SQLite {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// mustParseDate parses a date string or fails the test.
func mustParseDate(t *testing.T, s string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", s, err)
	}
	return date
}

// book creates and inserts a confirmed appointment.
func book(t *testing.T, repo *db.SQLite, patient, date, start string, duration int) *appointment.Appointment {
	t.Helper()
	a, err := appointment.New(patient, "checkup", date, start, duration)
	if err != nil {
		t.Fatalf("failed to create appointment: %v", err)
	}
	a.Status = appointment.StatusConfirmed
	if err := repo.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("failed to insert appointment: %v", err)
	}
	return a
}

func get(t *testing.T, repo *db.SQLite, id string) *appointment.Appointment {
	t.Helper()
	a, err := repo.GetAppointment(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get appointment %s: %v", id, err)
	}
	return a
}

// openCalendar wires a calendar over repo showing the week of date.
func openCalendar(t *testing.T, repo *db.SQLite, date string, guard calendar.Guard) *calendar.Calendar {
	t.Helper()
	cal := calendar.New(repo, calendar.Config{
		Hours: config.Default().WorkingHours(),
		Navigator: calendar.NavigatorOptions{
			View:     calendar.ViewWeek,
			Date:     mustParseDate(t, date),
			Debounce: calendar.MinDebounce,
		},
		Guard:               guard,
		EnforceWorkingHours: true,
	})
	t.Cleanup(cal.Close)
	if err := cal.Refresh(context.Background()); err != nil {
		t.Fatalf("failed to refresh calendar: %v", err)
	}
	return cal
}

func TestCreateAndGetAppointment(t *testing.T) {
	repo := openRepo(t)

	a := book(t, repo, "Ana Ruiz", "2025-01-15", "10:30", 45)
	got := get(t, repo, a.ID)

	if got.PatientRef != "Ana Ruiz" {
		t.Errorf("PatientRef: expected %q, got %q", "Ana Ruiz", got.PatientRef)
	}
	if got.Time != "10:30" || got.Duration != 45 {
		t.Errorf("expected 10:30 for 45 minutes, got %s for %d", got.Time, got.Duration)
	}
	if got.Status != appointment.StatusConfirmed {
		t.Errorf("Status: expected confirmed, got %s", got.Status)
	}
	if !got.OnDay(mustParseDate(t, "2025-01-15")) {
		t.Errorf("expected appointment on 2025-01-15, got %v", got.Date)
	}
}

func TestGetAppointment_NotFound(t *testing.T) {
	repo := openRepo(t)

	_, err := repo.GetAppointment(context.Background(), "missing")
	if !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestListAppointmentsByDateRange(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	book(t, repo, "Before", "2025-01-12", "09:00", 30)
	book(t, repo, "Monday", "2025-01-13", "11:00", 30)
	book(t, repo, "Monday early", "2025-01-13", "09:00", 30)
	book(t, repo, "Sunday", "2025-01-19", "10:00", 30)
	book(t, repo, "After", "2025-01-20", "09:00", 30)

	appts, err := repo.ListAppointmentsByDateRange(ctx, mustParseDate(t, "2025-01-13"), mustParseDate(t, "2025-01-19"))
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}

	want := []string{"Monday early", "Monday", "Sunday"}
	if len(appts) != len(want) {
		t.Fatalf("expected %d appointments, got %d", len(want), len(appts))
	}
	for i, name := range want {
		if appts[i].PatientRef != name {
			t.Errorf("appointment %d: expected %q, got %q", i, name, appts[i].PatientRef)
		}
	}
}

func TestSetStatus(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	a := book(t, repo, "Ana", "2025-01-15", "10:00", 30)

	if err := repo.SetStatus(ctx, a.ID, appointment.StatusCancelled); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}
	if got := get(t, repo, a.ID); !got.IsCancelled() {
		t.Errorf("expected cancelled, got %s", got.Status)
	}

	if err := repo.SetStatus(ctx, "missing", appointment.StatusConfirmed); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
	if err := repo.SetStatus(ctx, a.ID, "maybe"); !errors.Is(err, appointment.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCalendar_LoadsWeekFromStore(t *testing.T) {
	repo := openRepo(t)
	book(t, repo, "Ana", "2025-01-15", "10:00", 30)
	book(t, repo, "Ben", "2025-01-15", "10:30", 30)
	cancelled := book(t, repo, "Cid", "2025-01-16", "09:00", 30)
	book(t, repo, "Next week", "2025-01-20", "09:00", 30)
	if err := repo.SetStatus(context.Background(), cancelled.ID, appointment.StatusCancelled); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}

	cal := openCalendar(t, repo, "2025-01-15", nil)

	if got := len(cal.Appointments()); got != 3 {
		t.Errorf("expected 3 appointments in the week snapshot, got %d", got)
	}
	wed := mustParseDate(t, "2025-01-15")
	if got := cal.CountForDay(wed); got != 2 {
		t.Errorf("expected 2 active appointments on Wednesday, got %d", got)
	}
	if got := len(cal.AppointmentsAt(wed, 10)); got != 2 {
		t.Errorf("expected 2 appointments in the 10:00 slot, got %d", got)
	}
	if got := cal.CountForDay(mustParseDate(t, "2025-01-16")); got != 0 {
		t.Errorf("expected cancelled appointments to be left out of the index, got %d", got)
	}
}

func TestDragReschedule_Commit(t *testing.T) {
	repo := openRepo(t)
	a := book(t, repo, "Ana", "2025-01-15", "10:30", 45)
	cal := openCalendar(t, repo, "2025-01-15", nil)
	coord := cal.Coordinator()
	ctx := context.Background()

	if !coord.OnDragStart(a.ID) {
		t.Fatal("expected drag to start")
	}
	slot := calendar.SlotID(mustParseDate(t, "2025-01-17"), 14)
	coord.OnDragOver(slot)

	res, err := coord.OnDragEnd(ctx, a.ID, slot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != calendar.OutcomeCommitted {
		t.Fatalf("expected committed, got %s", res.Outcome)
	}

	got := get(t, repo, a.ID)
	if !got.OnDay(mustParseDate(t, "2025-01-17")) || got.Time != "14:00" {
		t.Errorf("expected 2025-01-17 14:00, got %v %s", got.Date, got.Time)
	}
	if got.Duration != 45 || got.PatientRef != "Ana" {
		t.Errorf("expected duration and patient preserved, got %d %q", got.Duration, got.PatientRef)
	}
	if coord.State() != calendar.StateIdle {
		t.Errorf("expected idle after commit, got %s", coord.State())
	}
}

func TestDragReschedule_NoOpAndOutsideHours(t *testing.T) {
	tests := []struct {
		name string
		date string
		hour int
		want calendar.Outcome
	}{
		{"same slot", "2025-01-15", 10, calendar.OutcomeUnchanged},
		{"before opening", "2025-01-15", 8, calendar.OutcomeOutsideHours},
		{"after closing", "2025-01-15", 18, calendar.OutcomeOutsideHours},
		{"saturday afternoon", "2025-01-18", 15, calendar.OutcomeOutsideHours},
		{"sunday", "2025-01-19", 10, calendar.OutcomeOutsideHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := openRepo(t)
			a := book(t, repo, "Ana", "2025-01-15", "10:30", 30)
			cal := openCalendar(t, repo, "2025-01-15", nil)
			coord := cal.Coordinator()

			coord.OnDragStart(a.ID)
			res, err := coord.OnDragEnd(context.Background(), a.ID, calendar.SlotID(mustParseDate(t, tt.date), tt.hour))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != tt.want {
				t.Errorf("expected %s, got %s", tt.want, res.Outcome)
			}

			got := get(t, repo, a.ID)
			if !got.OnDay(mustParseDate(t, "2025-01-15")) || got.Time != "10:30" {
				t.Errorf("expected store untouched, got %v %s", got.Date, got.Time)
			}
			if got.UpdatedAt.After(a.UpdatedAt.Add(time.Second)) {
				t.Errorf("expected no write, updated at %v", got.UpdatedAt)
			}
		})
	}
}

func TestDragReschedule_Conflict(t *testing.T) {
	tests := []struct {
		name     string
		confirm  bool
		wantDate string
		wantTime string
	}{
		{"confirmed", true, "2025-01-16", "11:00"},
		{"cancelled", false, "2025-01-15", "09:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := openRepo(t)
			ctx := context.Background()
			moving := book(t, repo, "Ana", "2025-01-15", "09:00", 60)
			blocker := book(t, repo, "Ben", "2025-01-16", "11:30", 30)
			cal := openCalendar(t, repo, "2025-01-15", nil)
			coord := cal.Coordinator()

			coord.OnDragStart(moving.ID)
			res, err := coord.OnDragEnd(ctx, moving.ID, calendar.SlotID(mustParseDate(t, "2025-01-16"), 11))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != calendar.OutcomeConflict {
				t.Fatalf("expected conflict, got %s", res.Outcome)
			}
			if res.Conflict.Appointment.ID != blocker.ID {
				t.Errorf("expected conflict with %s, got %s", blocker.ID, res.Conflict.Appointment.ID)
			}
			if res.Conflict.OverlapMinutes != 30 {
				t.Errorf("expected 30 minutes of overlap, got %d", res.Conflict.OverlapMinutes)
			}
			if got := get(t, repo, moving.ID); got.Time != "09:00" {
				t.Fatalf("expected no write before confirmation, got %s", got.Time)
			}

			if tt.confirm {
				res, err = coord.ConfirmConflict(ctx)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if res.Outcome != calendar.OutcomeCommitted {
					t.Errorf("expected committed, got %s", res.Outcome)
				}
			} else if !coord.CancelConflict() {
				t.Error("expected a pending conflict to cancel")
			}

			got := get(t, repo, moving.ID)
			if !got.OnDay(mustParseDate(t, tt.wantDate)) || got.Time != tt.wantTime {
				t.Errorf("expected %s %s, got %v %s", tt.wantDate, tt.wantTime, got.Date, got.Time)
			}
			if coord.State() != calendar.StateIdle {
				t.Errorf("expected idle, got %s", coord.State())
			}
		})
	}
}

func TestDragReschedule_TargetOutsideLoadedWeek(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	moving := book(t, repo, "Ana", "2025-01-15", "09:00", 30)
	blocker := book(t, repo, "Ben", "2025-01-21", "10:00", 30)
	cal := openCalendar(t, repo, "2025-01-15", nil)
	coord := cal.Coordinator()

	coord.OnDragStart(moving.ID)
	res, err := cal.Drop(ctx, moving.ID, calendar.SlotID(mustParseDate(t, "2025-01-21"), 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != calendar.OutcomeConflict || res.Conflict.Appointment.ID != blocker.ID {
		t.Fatalf("expected conflict with next week's booking, got %s", res.Outcome)
	}
	if !coord.CancelConflict() {
		t.Fatal("expected a pending conflict to cancel")
	}

	coord.OnDragStart(moving.ID)
	res, err = cal.Drop(ctx, moving.ID, calendar.SlotID(mustParseDate(t, "2025-01-21"), 11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != calendar.OutcomeCommitted {
		t.Fatalf("expected committed, got %s", res.Outcome)
	}
	if got := get(t, repo, moving.ID); !got.OnDay(mustParseDate(t, "2025-01-21")) || got.Time != "11:00" {
		t.Errorf("expected 2025-01-21 11:00, got %v %s", got.Date, got.Time)
	}
}

func TestDragReschedule_OwnSlotIsNotAConflict(t *testing.T) {
	repo := openRepo(t)
	a := book(t, repo, "Ana", "2025-01-15", "10:00", 90)
	cal := openCalendar(t, repo, "2025-01-15", nil)
	coord := cal.Coordinator()

	coord.OnDragStart(a.ID)
	res, err := coord.OnDragEnd(context.Background(), a.ID, calendar.SlotID(mustParseDate(t, "2025-01-15"), 11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != calendar.OutcomeCommitted {
		t.Errorf("expected committed, got %s", res.Outcome)
	}
	if got := get(t, repo, a.ID); got.Time != "11:00" {
		t.Errorf("expected 11:00, got %s", got.Time)
	}
}

func TestDragReschedule_BusyWhileInFlight(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	a := book(t, repo, "Ana", "2025-01-15", "10:00", 30)
	guard := calendar.NewMemoryGuard()
	cal := openCalendar(t, repo, "2025-01-15", guard)

	release, err := guard.Acquire(ctx, a.ID)
	if err != nil {
		t.Fatalf("failed to acquire guard: %v", err)
	}
	t.Cleanup(release)

	coord := cal.Coordinator()
	coord.OnDragStart(a.ID)
	res, err := coord.OnDragEnd(ctx, a.ID, calendar.SlotID(mustParseDate(t, "2025-01-15"), 14))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != calendar.OutcomeBusy {
		t.Errorf("expected busy, got %s", res.Outcome)
	}
	if got := get(t, repo, a.ID); got.Time != "10:00" {
		t.Errorf("expected store untouched, got %s", got.Time)
	}
}

func TestDragReschedule_RedisGuardAcrossCalendars(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := openRepo(t)
	ctx := context.Background()
	a := book(t, repo, "Ana", "2025-01-15", "10:00", 30)

	// Another process holds the reschedule lock for the same appointment.
	other := redislock.New(client, time.Minute)
	release, err := other.Acquire(ctx, a.ID)
	if err != nil {
		t.Fatalf("failed to acquire lock: %v", err)
	}

	cal := openCalendar(t, repo, "2025-01-15", redislock.New(client, time.Minute))
	coord := cal.Coordinator()
	slot := calendar.SlotID(mustParseDate(t, "2025-01-15"), 15)

	coord.OnDragStart(a.ID)
	res, err := coord.OnDragEnd(ctx, a.ID, slot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != calendar.OutcomeBusy {
		t.Fatalf("expected busy while locked elsewhere, got %s", res.Outcome)
	}

	release()
	coord.OnDragStart(a.ID)
	res, err = coord.OnDragEnd(ctx, a.ID, slot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != calendar.OutcomeCommitted {
		t.Errorf("expected committed after release, got %s", res.Outcome)
	}
	if got := get(t, repo, a.ID); got.Time != "15:00" {
		t.Errorf("expected 15:00, got %s", got.Time)
	}
}

func TestNavigator_SettlesOnceAndRefetches(t *testing.T) {
	repo := openRepo(t)
	book(t, repo, "Three weeks out", "2025-02-05", "10:00", 30)
	cal := openCalendar(t, repo, "2025-01-15", nil)
	nav := cal.Navigator()

	nav.Navigate(calendar.Next)
	nav.Navigate(calendar.Next)
	nav.Navigate(calendar.Next)

	var r calendar.VisibleRange
	select {
	case r = <-nav.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for navigation to settle")
	}

	if want := mustParseDate(t, "2025-02-03"); !r.Start.Equal(want) {
		t.Errorf("expected range starting %v, got %v", want, r.Start)
	}
	select {
	case extra := <-nav.Updates():
		t.Errorf("expected a single settle, got another for %v", extra.Start)
	case <-time.After(3 * calendar.MinDebounce):
	}

	if err := cal.RefreshRange(context.Background(), r); err != nil {
		t.Fatalf("failed to refresh: %v", err)
	}
	appts := cal.Appointments()
	if len(appts) != 1 || appts[0].PatientRef != "Three weeks out" {
		t.Errorf("expected the February appointment, got %d appointments", len(appts))
	}
}

func TestNavigator_ViewSwitchRefetchesMonth(t *testing.T) {
	repo := openRepo(t)
	book(t, repo, "Early", "2025-01-02", "10:00", 30)
	book(t, repo, "Late", "2025-01-30", "10:00", 30)
	book(t, repo, "February", "2025-02-03", "10:00", 30)
	cal := openCalendar(t, repo, "2025-01-15", nil)
	nav := cal.Navigator()

	if got := len(cal.Appointments()); got != 0 {
		t.Fatalf("expected empty week, got %d", got)
	}

	nav.SetView(calendar.ViewMonth)
	r := <-nav.Updates()
	if err := cal.RefreshRange(context.Background(), r); err != nil {
		t.Fatalf("failed to refresh: %v", err)
	}
	if got := len(cal.Appointments()); got != 2 {
		t.Errorf("expected 2 appointments in January, got %d", got)
	}
}

func TestNavigator_NarrowViewportForcesDay(t *testing.T) {
	repo := openRepo(t)
	cal := calendar.New(repo, calendar.Config{
		Navigator: calendar.NavigatorOptions{
			View:        calendar.ViewMonth,
			Date:        mustParseDate(t, "2025-01-15"),
			MobileWidth: 80,
		},
	})
	t.Cleanup(cal.Close)
	nav := cal.Navigator()

	nav.SetViewportWidth(120)
	if nav.View() != calendar.ViewMonth {
		t.Errorf("expected month on a wide viewport, got %s", nav.View())
	}
	nav.SetViewportWidth(60)
	if nav.View() != calendar.ViewDay {
		t.Errorf("expected day on a narrow viewport, got %s", nav.View())
	}
	r := nav.VisibleRange()
	if !r.Start.Equal(r.End) {
		t.Errorf("expected a single-day range, got %v - %v", r.Start, r.End)
	}
}
