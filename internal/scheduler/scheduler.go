// Package scheduler answers working-hours questions for the clinic calendar.
package scheduler

import (
	"errors"
	"time"

	"github.com/javiermolinar/clinica/internal/appointment"
)

// Default grid bounds used when no day is open.
const (
	DefaultFirstHour = 9
	DefaultLastHour  = 18
)

var (
	ErrClosedDay     = errors.New("clinic is closed on that day")
	ErrBeforeOpening = errors.New("start time is before opening")
	ErrAfterClosing  = errors.New("appointment ends after closing")
)

// WorkingDay is the opening configuration of one weekday.
type WorkingDay struct {
	Weekday time.Weekday
	Open    bool
	Start   string // "HH:MM"
	End     string // "HH:MM"
}

// Window is the open interval of a working day.
type Window struct {
	Start string
	End   string
}

// Interval returns the window in minutes since midnight.
func (w Window) Interval() appointment.Interval {
	return appointment.Interval{Start: appointment.TimeToMinutes(w.Start), End: appointment.TimeToMinutes(w.End)}
}

// WorkingHours resolves opening hours per weekday. Weekdays without an
// entry are treated as closed.
type WorkingHours struct {
	days map[time.Weekday]WorkingDay
}

// New creates a WorkingHours policy. Later entries for the same weekday
// replace earlier ones.
func New(days []WorkingDay) *WorkingHours {
	m := make(map[time.Weekday]WorkingDay, len(days))
	for _, d := range days {
		m[d.Weekday] = d
	}
	return &WorkingHours{days: m}
}

// IsWorkingDay reports whether the clinic opens on date's weekday.
func (w *WorkingHours) IsWorkingDay(date time.Time) bool {
	_, ok := w.WorkingWindow(date)
	return ok
}

// WorkingWindow returns the open window for date, false when closed.
func (w *WorkingHours) WorkingWindow(date time.Time) (Window, bool) {
	d, ok := w.days[date.Weekday()]
	if !ok || !d.Open {
		return Window{}, false
	}
	win := Window{Start: d.Start, End: d.End}
	if win.Interval().Empty() {
		return Window{}, false
	}
	return win, true
}

// IsWorkingHour reports whether hour lies in [startHour, endHour) of the
// day's window, both bounds truncated to whole hours. A 09:00-13:30 window
// makes hours 9 through 12 working; 13 is not.
func (w *WorkingHours) IsWorkingHour(date time.Time, hour int) bool {
	win, ok := w.WorkingWindow(date)
	if !ok {
		return false
	}
	iv := win.Interval()
	return hour >= iv.Start/60 && hour < iv.End/60
}

// FirstWorkingHour returns the earliest opening hour across the week.
func (w *WorkingHours) FirstWorkingHour() int {
	first := -1
	for _, d := range w.openDays() {
		h := appointment.TimeToMinutes(d.Start) / 60
		if first < 0 || h < first {
			first = h
		}
	}
	if first < 0 {
		return DefaultFirstHour
	}
	return first
}

// LastWorkingHour returns the latest closing hour across the week, rounded
// up to a whole hour. It is the exclusive end of the calendar grid.
func (w *WorkingHours) LastWorkingHour() int {
	last := -1
	for _, d := range w.openDays() {
		h := (appointment.TimeToMinutes(d.End) + 59) / 60
		if h > last {
			last = h
		}
	}
	if last < 0 {
		return DefaultLastHour
	}
	return last
}

// Hours returns the grid rows from FirstWorkingHour up to, not including,
// LastWorkingHour.
func (w *WorkingHours) Hours() []int {
	first, last := w.FirstWorkingHour(), w.LastWorkingHour()
	hours := make([]int, 0, max(last-first, 0))
	for h := first; h < last; h++ {
		hours = append(hours, h)
	}
	return hours
}

func (w *WorkingHours) openDays() []WorkingDay {
	var out []WorkingDay
	for _, d := range w.days {
		if d.Open && appointment.TimeToMinutes(d.End) > appointment.TimeToMinutes(d.Start) {
			out = append(out, d)
		}
	}
	return out
}

// AvailableSlot represents the next bookable start on a working day.
type AvailableSlot struct {
	Date  time.Time
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// NextAvailableStart returns the next moment a booking could start.
// Before opening it is the opening time, during opening hours it is now
// rounded up to the next 15 minutes, and after closing it is the opening
// of the next working day.
func (w *WorkingHours) NextAvailableStart(now time.Time) (AvailableSlot, bool) {
	if win, ok := w.WorkingWindow(now); ok {
		nowTime := now.Format("15:04")
		if nowTime < win.Start {
			return AvailableSlot{Date: now, Start: win.Start, End: win.End}, true
		}
		if nowTime < win.End {
			start := roundUpTo15Min(now)
			if start.Format("15:04") < win.End && start.Day() == now.Day() {
				return AvailableSlot{Date: now, Start: start.Format("15:04"), End: win.End}, true
			}
		}
	}
	return w.nextWorkday(now)
}

// nextWorkday finds the first working day strictly after from.
func (w *WorkingHours) nextWorkday(from time.Time) (AvailableSlot, bool) {
	next := from.AddDate(0, 0, 1)
	for range 7 {
		if win, ok := w.WorkingWindow(next); ok {
			return AvailableSlot{Date: next, Start: win.Start, End: win.End}, true
		}
		next = next.AddDate(0, 0, 1)
	}
	return AvailableSlot{}, false
}

// ValidateSlot checks that an appointment of duration minutes starting at
// start fits inside date's working window.
func (w *WorkingHours) ValidateSlot(date time.Time, start string, duration int) error {
	win, ok := w.WorkingWindow(date)
	if !ok {
		return ErrClosedDay
	}
	open := win.Interval()
	slot := appointment.NewInterval(start, duration)
	if slot.Start < open.Start {
		return ErrBeforeOpening
	}
	if slot.End > open.End || slot.Start >= open.End {
		return ErrAfterClosing
	}
	return nil
}

// CanFit returns true if an appointment of the given duration fits
// starting at start on date.
func (w *WorkingHours) CanFit(date time.Time, start string, duration int) bool {
	return w.ValidateSlot(date, start, duration) == nil
}

// roundUpTo15Min rounds a time up to the next 15-minute boundary.
func roundUpTo15Min(t time.Time) time.Time {
	remainder := t.Minute() % 15
	if remainder == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	return t.Truncate(time.Minute).Add(time.Duration(15-remainder) * time.Minute)
}
