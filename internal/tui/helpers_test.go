package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/scheduler"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Wednesday, 10:00.
var testNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

// manualClock fires debounce timers only when flushed.
type manualClock struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) Now() time.Time { return testNow }

func (c *manualClock) AfterFunc(_ time.Duration, f func()) calendar.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.pending = append(c.pending, t)
	return t
}

// flush runs every timer that was not stopped.
func (c *manualClock) flush() {
	c.mu.Lock()
	timers := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

type fakeStore struct {
	mu    sync.Mutex
	appts []*appointment.Appointment
	calls []string
}

func (s *fakeStore) ListAppointmentsByDateRange(_ context.Context, start, end time.Time) ([]*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range s.appts {
		if !a.Date.Before(start) && !a.Date.After(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) RescheduleAppointment(_ context.Context, id string, date time.Time, start string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id+" "+date.Format("2006-01-02")+" "+start)
	return nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func weekdayHours() *scheduler.WorkingHours {
	var days []scheduler.WorkingDay
	for wd := time.Monday; wd <= time.Friday; wd++ {
		days = append(days, scheduler.WorkingDay{Weekday: wd, Open: true, Start: "09:00", End: "18:00"})
	}
	return scheduler.New(days)
}

func testAppt(id, patient, service string, day int, start string) *appointment.Appointment {
	return &appointment.Appointment{
		ID:         id,
		Date:       time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Time:       start,
		Duration:   30,
		Status:     appointment.StatusConfirmed,
		PatientRef: patient,
		ServiceRef: service,
	}
}

type testEnv struct {
	model Model
	store *fakeStore
	clock *manualClock
	cal   *calendar.Calendar
}

func newTestEnv(t *testing.T, view calendar.View, appts ...*appointment.Appointment) *testEnv {
	t.Helper()

	store := &fakeStore{appts: appts}
	clock := &manualClock{}
	cal := calendar.New(store, calendar.Config{
		Hours: weekdayHours(),
		Navigator: calendar.NavigatorOptions{
			Clock:       clock,
			View:        view,
			Date:        testNow,
			MobileWidth: 80,
		},
		EnforceWorkingHours: true,
	})
	t.Cleanup(cal.Close)

	if err := cal.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	m := New(cal, Options{ClinicName: "Test Clinic", Theme: "mocha", Now: clock.Now})
	return &testEnv{model: m, store: store, clock: clock, cal: cal}
}

// send feeds msg to the model and keeps the result.
func (e *testEnv) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	updated, cmd := e.model.Update(msg)
	m, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	e.model = m
	return cmd
}

func (e *testEnv) press(t *testing.T, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = e.send(t, keyMsg(k))
	}
	return cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var errTest = errors.New("boom")
