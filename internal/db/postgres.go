package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/javiermolinar/clinica/internal/appointment"
)

// Postgres implements appointment.Repository on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ appointment.Repository = (*Postgres)(nil)

// ConnectPostgres opens a pool for dsn and checks connectivity.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgres connects to dsn and runs migrations.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := ConnectPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating appointments table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

const pgSelectAppointment = `
	SELECT id, date, start_time, duration, status,
	       patient_ref, service_ref, notes, created_at, updated_at
	FROM appointments
`

const pgInsertAppointment = `
	INSERT INTO appointments (
		id, date, start_time, duration, status,
		patient_ref, service_ref, notes, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

func pgScanAppointment(row pgx.Row) (*appointment.Appointment, error) {
	var (
		a    appointment.Appointment
		id   uuid.UUID
		date time.Time
	)
	err := row.Scan(
		&id,
		&date,
		&a.Time,
		&a.Duration,
		&a.Status,
		&a.PatientRef,
		&a.ServiceRef,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}
	a.ID = id.String()
	a.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local)
	return &a, nil
}

func pgDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseID maps malformed ids to not-found; they cannot exist in a uuid column.
func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	return u, nil
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgInsert(ctx context.Context, e pgExecer, a *appointment.Appointment) error {
	prepareForInsert(a)
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return fmt.Errorf("appointment id must be a uuid: %w", err)
	}
	_, err = e.Exec(ctx, pgInsertAppointment,
		id,
		pgDate(a.Date),
		a.Time,
		a.Duration,
		string(a.Status),
		a.PatientRef,
		a.ServiceRef,
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

// CreateAppointment adds a new appointment to the repository.
func (p *Postgres) CreateAppointment(ctx context.Context, a *appointment.Appointment) error {
	return pgInsert(ctx, p.pool, a)
}

// CreateAppointments adds multiple appointments in a single transaction.
func (p *Postgres) CreateAppointments(ctx context.Context, appts []*appointment.Appointment) error {
	if len(appts) == 0 {
		return nil
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, a := range appts {
		if err := pgInsert(ctx, tx, a); err != nil {
			return fmt.Errorf("appointment for %q: %w", a.PatientRef, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetAppointment retrieves an appointment by ID.
func (p *Postgres) GetAppointment(ctx context.Context, id string) (*appointment.Appointment, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	a, err := pgScanAppointment(p.pool.QueryRow(ctx, pgSelectAppointment+` WHERE id = $1`, uid))
	if errors.Is(err, appointment.ErrAppointmentNotFound) {
		return nil, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying appointment: %w", err)
	}
	return a, nil
}

// ListAppointmentsByDateRange returns all appointments within the date range (inclusive).
func (p *Postgres) ListAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*appointment.Appointment, error) {
	rows, err := p.pool.Query(ctx, pgSelectAppointment+`
		WHERE date >= $1 AND date <= $2
		ORDER BY date, start_time, created_at
	`, pgDate(start), pgDate(end))
	if err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}
	defer rows.Close()

	var appts []*appointment.Appointment
	for rows.Next() {
		a, err := pgScanAppointment(rows)
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
func (p *Postgres) RescheduleAppointment(ctx context.Context, id string, date time.Time, start string) error {
	if err := appointment.ValidateTime(start); err != nil {
		return err
	}
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE appointments SET date = $1, start_time = $2, updated_at = now() WHERE id = $3`,
		pgDate(date), start, uid,
	)
	if err != nil {
		return fmt.Errorf("rescheduling appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	return nil
}

// SetStatus changes an appointment's status.
func (p *Postgres) SetStatus(ctx context.Context, id string, status appointment.Status) error {
	if _, err := appointment.ParseStatus(string(status)); err != nil {
		return err
	}
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE appointments SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), uid,
	)
	if err != nil {
		return fmt.Errorf("setting appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
