package appointment

import (
	"slices"
	"time"

	"github.com/javiermolinar/clinica/internal/dateutil"
)

// Day holds all appointments booked on a single calendar day.
type Day struct {
	Date         time.Time
	appointments []*Appointment // sorted by start time, insertion order on ties
}

// NewDay creates an empty Day for the given date.
func NewDay(date time.Time) *Day {
	return &Day{Date: dateutil.TruncateToDay(date)}
}

// Add inserts an appointment keeping the day sorted by start time.
// Appointments booked on another day are ignored and reported as false.
func (d *Day) Add(a *Appointment) bool {
	if a == nil || !a.OnDay(d.Date) {
		return false
	}
	d.appointments = append(d.appointments, a)
	slices.SortStableFunc(d.appointments, func(x, y *Appointment) int {
		return TimeToMinutes(x.Time) - TimeToMinutes(y.Time)
	})
	return true
}

// Appointments returns a copy of the day's appointments.
func (d *Day) Appointments() []*Appointment {
	return slices.Clone(d.appointments)
}

// Active returns the appointments that are not cancelled.
func (d *Day) Active() []*Appointment {
	var out []*Appointment
	for _, a := range d.appointments {
		if !a.IsCancelled() {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of appointments in the day, cancelled included.
func (d *Day) Len() int {
	return len(d.appointments)
}

// DayStats summarises a day's bookings.
type DayStats struct {
	Pending       int
	Confirmed     int
	Cancelled     int
	BookedMinutes int // active appointments only
}

// Active returns the number of non-cancelled appointments.
func (s DayStats) Active() int {
	return s.Pending + s.Confirmed
}

// Stats calculates statistics for the day.
func (d *Day) Stats() DayStats {
	return Summarize(d.appointments)
}

// Summarize counts appointments by status and sums active minutes.
func Summarize(appts []*Appointment) DayStats {
	var stats DayStats
	for _, a := range appts {
		switch a.Status {
		case StatusCancelled:
			stats.Cancelled++
			continue
		case StatusConfirmed:
			stats.Confirmed++
		default:
			stats.Pending++
		}
		stats.BookedMinutes += max(a.Duration, 0)
	}
	return stats
}

// Week holds 7 days starting from Monday.
type Week struct {
	StartDate time.Time // Monday of the week
	Days      [7]*Day   // Monday (0) through Sunday (6)
}

// NewWeek creates an empty Week for the ISO week containing date.
func NewWeek(date time.Time) *Week {
	monday, _ := dateutil.WeekRange(date)
	w := &Week{StartDate: monday}
	for i := range w.Days {
		w.Days[i] = NewDay(monday.AddDate(0, 0, i))
	}
	return w
}

// NewWeekFromAppointments creates a Week and distributes appointments to
// their days. Appointments outside the week are ignored.
func NewWeekFromAppointments(date time.Time, appts []*Appointment) *Week {
	w := NewWeek(date)
	for _, a := range appts {
		if day := w.DayByDate(a.Date); day != nil {
			day.Add(a)
		}
	}
	return w
}

// DayByDate returns the Day for the given date, nil if not in this week.
func (w *Week) DayByDate(date time.Time) *Day {
	for _, day := range w.Days {
		if dateutil.SameDay(day.Date, date) {
			return day
		}
	}
	return nil
}

// EndDate returns the Sunday of the week.
func (w *Week) EndDate() time.Time {
	return w.StartDate.AddDate(0, 0, 6)
}

// WeekStats aggregates DayStats over a week.
type WeekStats struct {
	DayStats
	PerDay [7]DayStats
}

// BusiestDay returns the weekday index (0=Monday) with the most booked
// minutes, or -1 when the week is empty.
func (s WeekStats) BusiestDay() (weekday int, minutes int) {
	weekday = -1
	for i, ds := range s.PerDay {
		if ds.BookedMinutes > minutes {
			minutes = ds.BookedMinutes
			weekday = i
		}
	}
	return weekday, minutes
}

// Stats calculates statistics for the week.
func (w *Week) Stats() WeekStats {
	var stats WeekStats
	for i, day := range w.Days {
		ds := day.Stats()
		stats.PerDay[i] = ds
		stats.Pending += ds.Pending
		stats.Confirmed += ds.Confirmed
		stats.Cancelled += ds.Cancelled
		stats.BookedMinutes += ds.BookedMinutes
	}
	return stats
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayName returns the name of the weekday (0=Monday).
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return ""
	}
	return weekdayNames[weekday]
}

// WeekdayShortName returns the three letter name of the weekday (0=Monday).
func WeekdayShortName(weekday int) string {
	name := WeekdayName(weekday)
	if name == "" {
		return ""
	}
	return name[:3]
}
