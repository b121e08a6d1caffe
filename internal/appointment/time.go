package appointment

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ParseClock splits an "HH:MM" string into hour and minute.
// Components that are missing or not numeric count as zero.
func ParseClock(s string) (hour, minute int) {
	h, m, _ := strings.Cut(strings.TrimSpace(s), ":")
	hour, _ = strconv.Atoi(h)
	minute, _ = strconv.Atoi(m)
	return hour, minute
}

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// Unparseable components are treated as 0, so "10:xx" is 600.
func TimeToMinutes(s string) int {
	h, m := ParseClock(s)
	return h*60 + m
}

// MinutesToTime converts minutes since midnight to "HH:MM" format.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= minutesPerDay {
		m = minutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// HourClock returns the "HH:00" start of the given hour.
func HourClock(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// Interval is a half-open [Start, End) range of minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds the interval covered by an appointment starting at
// clock and lasting duration minutes.
func NewInterval(clock string, duration int) Interval {
	start := TimeToMinutes(clock)
	return Interval{Start: start, End: start + duration}
}

// Empty reports whether the interval covers no minutes.
func (i Interval) Empty() bool {
	return i.End <= i.Start
}

// Overlaps reports whether the intervals share at least one minute.
// Touching intervals ([600,630) and [630,660)) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	if i.Empty() || o.Empty() {
		return false
	}
	return i.Start < o.End && i.End > o.Start
}

// OverlapMinutes returns the number of shared minutes, 0 when disjoint.
func (i Interval) OverlapMinutes(o Interval) int {
	if !i.Overlaps(o) {
		return 0
	}
	return min(i.End, o.End) - max(i.Start, o.Start)
}

func (i Interval) String() string {
	return MinutesToTime(i.Start) + "-" + MinutesToTime(i.End)
}
