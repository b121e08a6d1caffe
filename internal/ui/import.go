package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/db"
)

// Bounds used to read a whole source database.
var (
	importFrom = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	importTo   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

func (a *App) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [database_path]",
		Short: "Import appointments from another database",
		Long: `Import all appointments from another Clinica SQLite database into the
current store. Appointments whose id already exists are skipped, so the
import can be repeated safely.

Example:
  clinica import /path/to/other.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			sourcePath, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			if a.config.Storage.Driver != db.DriverPostgres {
				destPath, err := resolvePath(a.config.Storage.DBPath)
				if err != nil {
					return err
				}
				if sourcePath == destPath {
					return fmt.Errorf("source database matches current database")
				}
			}

			info, err := os.Stat(sourcePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("source database does not exist: %s", sourcePath)
				}
				return fmt.Errorf("checking source database: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source database path is a directory: %s", sourcePath)
			}

			imported, skipped, err := importAppointments(context.Background(), a.repo, sourcePath)
			if err != nil {
				return err
			}
			a.logger.Info("appointments_imported", "source", sourcePath, "imported", imported, "skipped", skipped)

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d appointments from %s (%d already present)\n", imported, sourcePath, skipped)
			return nil
		},
	}

	return cmd
}

// importAppointments copies every appointment of the SQLite file at
// sourcePath into dest in one transaction, keeping ids.
func importAppointments(ctx context.Context, dest appointment.Repository, sourcePath string) (imported, skipped int, err error) {
	sourceRepo, err := db.New(sourcePath)
	if err != nil {
		return 0, 0, fmt.Errorf("opening source database: %w", err)
	}
	defer func() { _ = sourceRepo.Close() }()

	appts, err := sourceRepo.ListAppointmentsByDateRange(ctx, importFrom, importTo)
	if err != nil {
		return 0, 0, fmt.Errorf("listing source appointments: %w", err)
	}

	fresh := make([]*appointment.Appointment, 0, len(appts))
	for _, a := range appts {
		_, err := dest.GetAppointment(ctx, a.ID)
		switch {
		case err == nil:
			skipped++
		case errors.Is(err, appointment.ErrAppointmentNotFound):
			fresh = append(fresh, a)
		default:
			return 0, skipped, fmt.Errorf("checking appointment %s: %w", a.ID, err)
		}
	}

	if err := dest.CreateAppointments(ctx, fresh); err != nil {
		return 0, skipped, fmt.Errorf("importing appointments: %w", err)
	}
	return len(fresh), skipped, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
