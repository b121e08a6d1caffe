// Package calendar holds the scheduling core behind the clinic calendar:
// slot indexing, conflict detection, debounced navigation and the
// drag-to-reschedule state machine.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/javiermolinar/clinica/internal/dateutil"
)

const slotIDPrefix = "slot-"

// SlotKey identifies one hour cell of the calendar grid.
type SlotKey struct {
	Year  int
	Month time.Month
	Day   int
	Hour  int
}

// KeyFor returns the slot containing hour on date's calendar day.
func KeyFor(date time.Time, hour int) SlotKey {
	y, m, d := date.Date()
	return SlotKey{Year: y, Month: m, Day: d, Hour: hour}
}

// Date returns the slot's calendar day at midnight UTC.
func (k SlotKey) Date() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC)
}

// ID renders the slot id used as a drop target, e.g. "slot-2025-01-15-09".
func (k SlotKey) ID() string {
	return fmt.Sprintf("%s%s-%02d", slotIDPrefix, dateutil.FormatDate(k.Date()), k.Hour)
}

func (k SlotKey) String() string {
	return k.ID()
}

// SlotID is shorthand for KeyFor(date, hour).ID().
func SlotID(date time.Time, hour int) string {
	return KeyFor(date, hour).ID()
}

// ParseSlotID decodes a slot id. It returns false for anything that is not
// a well-formed id naming a real date and an hour in 0..23.
func ParseSlotID(id string) (SlotKey, bool) {
	rest, ok := strings.CutPrefix(id, slotIDPrefix)
	if !ok {
		return SlotKey{}, false
	}
	i := strings.LastIndexByte(rest, '-')
	if i < 0 {
		return SlotKey{}, false
	}
	day, err := time.Parse(dateutil.Layout, rest[:i])
	if err != nil {
		return SlotKey{}, false
	}
	hour, err := strconv.Atoi(rest[i+1:])
	if err != nil || hour < 0 || hour > 23 {
		return SlotKey{}, false
	}
	return KeyFor(day, hour), true
}

type dayKey struct {
	Year  int
	Month time.Month
	Day   int
}

func dayKeyFor(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}
