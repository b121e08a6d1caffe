package db

import "fmt"

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS appointments (
		id          TEXT PRIMARY KEY,
		date        TEXT NOT NULL,
		start_time  TEXT NOT NULL,
		duration    INTEGER NOT NULL CHECK(duration > 0),
		status      TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'confirmed', 'cancelled')),
		patient_ref TEXT NOT NULL,
		service_ref TEXT NOT NULL DEFAULT '',
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date, start_time);
	CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status);
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS appointments (
		id          UUID PRIMARY KEY,
		date        DATE NOT NULL,
		start_time  TEXT NOT NULL,
		duration    INTEGER NOT NULL CHECK (duration > 0),
		status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'confirmed', 'cancelled')),
		patient_ref TEXT NOT NULL,
		service_ref TEXT NOT NULL DEFAULT '',
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments (date, start_time);
	CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments (status);
`

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	if _, err := s.db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("creating appointments table: %w", err)
	}
	return nil
}
