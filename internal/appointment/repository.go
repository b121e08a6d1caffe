package appointment

import (
	"context"
	"time"
)

// Repository defines the storage interface for appointments.
type Repository interface {
	// CreateAppointment stores a new appointment. An empty ID is replaced
	// with a generated one.
	CreateAppointment(ctx context.Context, a *Appointment) error

	// GetAppointment retrieves an appointment by ID.
	// Returns ErrAppointmentNotFound if it does not exist.
	GetAppointment(ctx context.Context, id string) (*Appointment, error)

	// ListAppointmentsByDateRange returns appointments booked within the date
	// range (inclusive), cancelled ones included, ordered by date and start time.
	ListAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*Appointment, error)

	// RescheduleAppointment moves an appointment to a new date and start
	// time. Duration and every other field are preserved.
	RescheduleAppointment(ctx context.Context, id string, date time.Time, start string) error

	// SetStatus changes an appointment's booking status.
	SetStatus(ctx context.Context, id string, status Status) error

	// CreateAppointments adds multiple appointments in one transaction.
	CreateAppointments(ctx context.Context, appts []*Appointment) error

	// Close releases any resources held by the repository.
	Close() error
}
