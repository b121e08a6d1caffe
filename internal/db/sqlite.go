// Package db provides SQLite and PostgreSQL appointment storage.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/dateutil"
)

// SQLite implements appointment.Repository using SQLite.
type SQLite struct {
	db *sql.DB
}

var _ appointment.Repository = (*SQLite)(nil)

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

const insertAppointment = `
	INSERT INTO appointments (
		id, date, start_time, duration, status,
		patient_ref, service_ref, notes, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectAppointment = `
	SELECT id, date, start_time, duration, status,
	       patient_ref, service_ref, notes, created_at, updated_at
	FROM appointments
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, e execer, a *appointment.Appointment) error {
	prepareForInsert(a)
	_, err := e.ExecContext(ctx, insertAppointment,
		a.ID,
		dateutil.FormatDate(a.Date),
		a.Time,
		a.Duration,
		a.Status,
		a.PatientRef,
		a.ServiceRef,
		a.Notes,
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

// prepareForInsert fills in the id, status and timestamps when missing.
func prepareForInsert(a *appointment.Appointment) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = appointment.StatusPending
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
}

// CreateAppointment adds a new appointment to the repository.
func (s *SQLite) CreateAppointment(ctx context.Context, a *appointment.Appointment) error {
	return insert(ctx, s.db, a)
}

// CreateAppointments adds multiple appointments in a single transaction.
func (s *SQLite) CreateAppointments(ctx context.Context, appts []*appointment.Appointment) error {
	if len(appts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range appts {
		if err := insert(ctx, tx, a); err != nil {
			return fmt.Errorf("appointment for %q: %w", a.PatientRef, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetAppointment retrieves an appointment by ID.
func (s *SQLite) GetAppointment(ctx context.Context, id string) (*appointment.Appointment, error) {
	row := s.db.QueryRowContext(ctx, selectAppointment+` WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying appointment: %w", err)
	}
	return a, nil
}

// ListAppointmentsByDateRange returns all appointments within the date range (inclusive).
func (s *SQLite) ListAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*appointment.Appointment, error) {
	query := selectAppointment + `
		WHERE date >= ? AND date <= ?
		ORDER BY date, start_time, created_at
	`

	rows, err := s.db.QueryContext(ctx, query, dateutil.FormatDate(start), dateutil.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var appts []*appointment.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		appts = append(appts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating appointments: %w", err)
	}
	return appts, nil
}

// RescheduleAppointment moves an appointment to a new date and start time.
func (s *SQLite) RescheduleAppointment(ctx context.Context, id string, date time.Time, start string) error {
	if err := appointment.ValidateTime(start); err != nil {
		return err
	}
	query := `UPDATE appointments SET date = ?, start_time = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		dateutil.FormatDate(date),
		start,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("rescheduling appointment: %w", err)
	}
	return requireRow(result, id)
}

// SetStatus changes an appointment's status.
func (s *SQLite) SetStatus(ctx context.Context, id string, status appointment.Status) error {
	if _, err := appointment.ParseStatus(string(status)); err != nil {
		return err
	}
	query := `UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("setting appointment status: %w", err)
	}
	return requireRow(result, id)
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (*appointment.Appointment, error) {
	var (
		a                    appointment.Appointment
		date                 string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&a.ID,
		&date,
		&a.Time,
		&a.Duration,
		&a.Status,
		&a.PatientRef,
		&a.ServiceRef,
		&a.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated at: %w", err)
	}
	return &a, nil
}

// parseDate parses a stored date as local midnight so it compares equal to
// dates derived from time.Now().
func parseDate(s string) (time.Time, error) {
	if len(s) >= 10 {
		if t, err := time.ParseInLocation(dateutil.Layout, s[:10], time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
