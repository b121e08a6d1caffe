// Package appointment defines the core domain types for clinica.
package appointment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/clinica/internal/dateutil"
)

// Validation errors.
var (
	ErrEmptyPatient      = errors.New("patient reference cannot be empty")
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrInvalidDuration   = errors.New("duration must be a positive number of minutes")
	ErrInvalidStatus     = errors.New("status must be 'pending', 'confirmed' or 'cancelled'")
	ErrCrossesMidnight   = errors.New("appointment must end on the day it starts")
)

// Domain errors.
var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Status represents the booking state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus resolves a case-insensitive status name.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Appointment is a single booking on the clinic calendar.
type Appointment struct {
	ID         string
	Date       time.Time // calendar day, time component ignored
	Time       string    // "HH:MM" start
	Duration   int       // minutes
	Status     Status
	PatientRef string
	ServiceRef string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New creates a pending Appointment with validation and a fresh id.
// date can be empty (defaults to today) or in YYYY-MM-DD format.
func New(patientRef, serviceRef, date, start string, duration int) (*Appointment, error) {
	if strings.TrimSpace(patientRef) == "" {
		return nil, ErrEmptyPatient
	}

	day, err := dateutil.ParseDate(date)
	if err != nil {
		return nil, err
	}

	if err := ValidateTime(start); err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}

	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if TimeToMinutes(start)+duration > minutesPerDay {
		return nil, ErrCrossesMidnight
	}

	now := time.Now()
	return &Appointment{
		ID:         uuid.NewString(),
		Date:       day,
		Time:       start,
		Duration:   duration,
		Status:     StatusPending,
		PatientRef: strings.TrimSpace(patientRef),
		ServiceRef: strings.TrimSpace(serviceRef),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ValidateTime checks the strict "HH:MM" form accepted on input.
func ValidateTime(s string) error {
	if len(s) != 5 {
		return ErrInvalidTimeFormat
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTimeFormat
	}
	return nil
}

// IsCancelled returns true if the appointment has cancelled status.
func (a *Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// IsConfirmed returns true if the appointment has confirmed status.
func (a *Appointment) IsConfirmed() bool {
	return a.Status == StatusConfirmed
}

// IsPending returns true if the appointment has pending status.
func (a *Appointment) IsPending() bool {
	return a.Status == StatusPending
}

// StartHour returns the hour component of the start time.
func (a *Appointment) StartHour() int {
	h, _ := ParseClock(a.Time)
	return h
}

// Interval returns the [start, end) minutes the appointment occupies.
func (a *Appointment) Interval() Interval {
	return NewInterval(a.Time, a.Duration)
}

// EndTime returns the "HH:MM" end of the appointment.
func (a *Appointment) EndTime() string {
	return MinutesToTime(a.Interval().End)
}

// StartsAt combines Date and Time in the date's location.
func (a *Appointment) StartsAt() time.Time {
	h, m := ParseClock(a.Time)
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), h, m, 0, 0, a.Date.Location())
}

// OnDay reports whether the appointment is booked on the given calendar day.
func (a *Appointment) OnDay(day time.Time) bool {
	return dateutil.SameDay(a.Date, day)
}

// Summary is the one-line description used by the CLI and clipboard.
func (a *Appointment) Summary() string {
	s := fmt.Sprintf("%s %s-%s %s", dateutil.FormatDate(a.Date), a.Time, a.EndTime(), a.PatientRef)
	if a.ServiceRef != "" {
		s += " (" + a.ServiceRef + ")"
	}
	return s + " [" + string(a.Status) + "]"
}
