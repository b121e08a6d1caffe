package calendar

import (
	"time"

	"github.com/javiermolinar/clinica/internal/appointment"
)

// Conflict describes an existing appointment overlapping a candidate slot.
type Conflict struct {
	Appointment    *appointment.Appointment
	OverlapMinutes int
}

// Detector finds overlaps between a candidate booking and a snapshot of
// appointments.
type Detector struct {
	appts []*appointment.Appointment
}

// NewDetector creates a detector over appts. The slice order is the order
// in which conflicts are reported.
func NewDetector(appts []*appointment.Appointment) *Detector {
	return &Detector{appts: appts}
}

// CheckConflict returns the first appointment, in snapshot order, whose
// interval overlaps [start, start+duration) on date. Cancelled appointments
// and the one with excludeID are skipped. Returns nil when the slot is free.
func (d *Detector) CheckConflict(date time.Time, start string, duration int, excludeID string) *Conflict {
	candidate := appointment.NewInterval(start, duration)
	for _, a := range d.appts {
		if c, ok := conflictWith(a, date, candidate, excludeID); ok {
			return &c
		}
	}
	return nil
}

// Conflicts returns every overlapping appointment in snapshot order.
func (d *Detector) Conflicts(date time.Time, start string, duration int, excludeID string) []Conflict {
	candidate := appointment.NewInterval(start, duration)
	var out []Conflict
	for _, a := range d.appts {
		if c, ok := conflictWith(a, date, candidate, excludeID); ok {
			out = append(out, c)
		}
	}
	return out
}

func conflictWith(a *appointment.Appointment, date time.Time, candidate appointment.Interval, excludeID string) (Conflict, bool) {
	if a == nil || a.IsCancelled() {
		return Conflict{}, false
	}
	if excludeID != "" && a.ID == excludeID {
		return Conflict{}, false
	}
	if !a.OnDay(date) {
		return Conflict{}, false
	}
	existing := a.Interval()
	if !candidate.Overlaps(existing) {
		return Conflict{}, false
	}
	return Conflict{Appointment: a, OverlapMinutes: candidate.OverlapMinutes(existing)}, true
}
