// Package ui implements the clinica command line.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/config"
	"github.com/javiermolinar/clinica/internal/db"
	"github.com/javiermolinar/clinica/internal/logging"
	"github.com/javiermolinar/clinica/internal/redislock"
	"github.com/javiermolinar/clinica/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	repo   appointment.Repository
	config *config.Config
	root   *cobra.Command
	debug  bool // Enable debug logging

	logger    *slog.Logger
	logCloser io.Closer
	redis     *redis.Client
	guard     calendar.Guard

	in  io.Reader
	now func() time.Time
}

// NewApp creates a new CLI application. A nil repo is opened lazily from
// the storage config.
func NewApp(repo appointment.Repository, cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{
		repo:   repo,
		config: cfg,
		logger: logging.Discard(),
		in:     os.Stdin,
		now:    time.Now,
	}

	a.root = &cobra.Command{
		Use:   "clinica",
		Short: "A terminal calendar for clinic appointments",
		Long: `Clinica keeps a clinic's appointment book.

Run without arguments to open the calendar. Appointments can be moved by
picking them up and dropping them on another hour; overlapping moves ask
for confirmation first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initLogging(cmd == a.root)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runCalendar()
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to temp file)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.listCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.cancelCmd())
	a.root.AddCommand(a.confirmCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.seedCmd())
	a.root.AddCommand(a.importCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clinica %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the repository, the redis client and the log file.
func (a *App) Close() error {
	var first error
	if a.repo != nil {
		first = a.repo.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && first == nil {
			first = err
		}
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// initLogging builds the logger from config. The calendar owns the
// terminal, so without a log path its logs are dropped; --debug sends
// them to a temp file.
func (a *App) initLogging(fullscreen bool) error {
	if a.logCloser != nil {
		return nil
	}
	opts := a.config.LoggingOptions()
	if a.debug {
		opts.Level = "debug"
		if opts.Path == "" {
			opts.Path = filepath.Join(os.TempDir(), "clinica-debug.log")
		}
	}
	if opts.Path == "" && fullscreen {
		a.logger = logging.Discard()
		return nil
	}
	a.logger, a.logCloser = logging.New(opts)
	a.logger.Debug("logging_ready", "level", opts.Level, "path", opts.Path)
	return nil
}

// ensureRepo opens the configured store if no repository was injected.
func (a *App) ensureRepo() error {
	if a.repo != nil {
		return nil
	}
	opts := a.config.StorageOptions()
	repo, err := db.Open(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", opts.Driver, err)
	}
	a.repo = repo
	a.logger.Debug("storage_opened", "driver", opts.Driver)
	return nil
}

// ensureGuard picks the reschedule guard: redis when configured, memory
// otherwise.
func (a *App) ensureGuard() error {
	if a.guard != nil {
		return nil
	}
	rc := a.config.Redis
	if rc.Addr == "" {
		a.guard = calendar.NewMemoryGuard()
		return nil
	}
	client, err := redislock.NewClient(rc.Addr, rc.Username, rc.Password)
	if err != nil {
		return fmt.Errorf("connecting reschedule lock: %w", err)
	}
	a.redis = client
	a.guard = redislock.New(client, a.config.LockTTL())
	a.logger.Debug("redis_guard_ready", "addr", rc.Addr)
	return nil
}

// newCoordinator builds a drag coordinator over the repository that
// enforces the clinic's working hours.
func (a *App) newCoordinator() *calendar.Coordinator {
	return calendar.NewCoordinator(a.repo, calendar.CoordinatorConfig{
		Guard:  a.guard,
		Hours:  a.config.WorkingHours(),
		Logger: a.logger,
	})
}

func (a *App) runCalendar() error {
	if err := a.ensureRepo(); err != nil {
		return err
	}
	if err := a.ensureGuard(); err != nil {
		return err
	}

	cal := calendar.New(a.repo, calendar.Config{
		Hours: a.config.WorkingHours(),
		Navigator: calendar.NavigatorOptions{
			Debounce:      a.config.Debounce(),
			MobileWidth:   a.config.Calendar.MobileWidth,
			View:          a.config.View(),
			ViewportWidth: viewportWidth(),
		},
		Guard:               a.guard,
		EnforceWorkingHours: true,
		Logger:              a.logger,
	})
	defer cal.Close()

	return tui.Run(cal, tui.Options{
		ClinicName: a.config.Clinic.Name,
		Theme:      a.config.UI.Theme,
	})
}
