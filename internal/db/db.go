package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/javiermolinar/clinica/internal/appointment"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnknownDriver = errors.New("storage driver must be 'sqlite' or 'postgres'")

// Options selects and locates the appointment store.
type Options struct {
	Driver      string
	Path        string // sqlite file
	PostgresDSN string
}

// Open returns the repository selected by opts. SQLite parent directories
// are created as needed.
func Open(ctx context.Context, opts Options) (appointment.Repository, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if dir := filepath.Dir(opts.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		s, err := New(opts.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		p, err := NewPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
