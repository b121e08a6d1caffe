package calendar

import (
	"time"

	"github.com/javiermolinar/clinica/internal/appointment"
)

// SlotIndex groups active appointments by the hour cell they start in.
// An index is immutable once built; rebuild it from a fresh snapshot.
type SlotIndex struct {
	slots map[SlotKey][]*appointment.Appointment
	days  map[dayKey]int
}

// BuildIndex indexes the non-cancelled appointments in appts. Within a slot
// appointments keep their input order.
func BuildIndex(appts []*appointment.Appointment) *SlotIndex {
	idx := &SlotIndex{
		slots: make(map[SlotKey][]*appointment.Appointment),
		days:  make(map[dayKey]int),
	}
	for _, a := range appts {
		if a == nil || a.IsCancelled() {
			continue
		}
		key := KeyFor(a.Date, a.StartHour())
		idx.slots[key] = append(idx.slots[key], a)
		idx.days[dayKeyFor(a.Date)]++
	}
	return idx
}

// AppointmentsAt returns the active appointments starting within hour on
// date. An unknown slot yields an empty result.
func (s *SlotIndex) AppointmentsAt(date time.Time, hour int) []*appointment.Appointment {
	if s == nil {
		return nil
	}
	return s.slots[KeyFor(date, hour)]
}

// CountForDay returns the number of active appointments on date.
func (s *SlotIndex) CountForDay(date time.Time) int {
	if s == nil {
		return 0
	}
	return s.days[dayKeyFor(date)]
}

// Len returns the number of indexed appointments.
func (s *SlotIndex) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, c := range s.days {
		n += c
	}
	return n
}
