package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/javiermolinar/clinica/internal/appointment"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward and runs every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type rescheduleCall struct {
	ID   string
	Date time.Time
	Time string
}

// fakeStore records reschedule calls and serves a fixed snapshot.
type fakeStore struct {
	mu      sync.Mutex
	appts   []*appointment.Appointment
	calls   []rescheduleCall
	err     error
	listErr error
	lists   int
	block   chan struct{} // when set, RescheduleAppointment waits on it
	inCall  chan struct{}
}

func (s *fakeStore) RescheduleAppointment(ctx context.Context, id string, date time.Time, start string) error {
	if s.inCall != nil {
		s.inCall <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, rescheduleCall{ID: id, Date: date, Time: start})
	return s.err
}

func (s *fakeStore) ListAppointmentsByDateRange(_ context.Context, start, end time.Time) ([]*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*appointment.Appointment
	for _, a := range s.appts {
		if !a.Date.Before(start) && !a.Date.After(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) Calls() []rescheduleCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rescheduleCall(nil), s.calls...)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func appt(id string, date time.Time, start string, duration int, status appointment.Status) *appointment.Appointment {
	return &appointment.Appointment{
		ID:         id,
		Date:       date,
		Time:       start,
		Duration:   duration,
		Status:     status,
		PatientRef: "patient-" + id,
	}
}
