// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/db"
	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/logging"
	"github.com/javiermolinar/clinica/internal/scheduler"
)

// Config holds the application configuration.
type Config struct {
	Clinic   ClinicConfig   `toml:"clinic"`
	Calendar CalendarConfig `toml:"calendar"`
	Storage  StorageConfig  `toml:"storage"`
	Redis    RedisConfig    `toml:"redis"`
	Logging  LoggingConfig  `toml:"logging"`
	UI       UIConfig       `toml:"ui"`
}

// ClinicConfig holds the clinic name and its opening hours.
type ClinicConfig struct {
	Name  string        `toml:"name"`
	Hours []HoursConfig `toml:"hours"`
}

// HoursConfig is the opening configuration of a single weekday.
type HoursConfig struct {
	Day   string `toml:"day"` // e.g., "monday"
	Open  bool   `toml:"open"`
	Start string `toml:"start"` // e.g., "09:00"
	End   string `toml:"end"`   // e.g., "18:00"
}

// CalendarConfig holds calendar screen settings.
type CalendarConfig struct {
	DefaultView        string `toml:"default_view"`        // day, week, month, team
	DebounceMS         int    `toml:"debounce_ms"`         // navigation settle delay
	MobileWidth        int    `toml:"mobile_width"`        // columns below which the day view is forced
	AppointmentMinutes int    `toml:"appointment_minutes"` // default duration for new appointments
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Driver      string `toml:"driver"` // "sqlite" or "postgres"
	DBPath      string `toml:"db_path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

// RedisConfig configures the shared reschedule lock. An empty address keeps
// the lock in memory.
type RedisConfig struct {
	Addr           string `toml:"addr"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	LockTTLSeconds int    `toml:"lock_ttl_seconds"`
}

// LoggingConfig holds structured log settings.
type LoggingConfig struct {
	Level      string `toml:"level"`
	Path       string `toml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Clinic: ClinicConfig{
			Name:  "Clinica",
			Hours: DefaultHours(),
		},
		Calendar: CalendarConfig{
			DefaultView:        string(calendar.ViewWeek),
			DebounceMS:         int(calendar.DefaultDebounce / time.Millisecond),
			MobileWidth:        80,
			AppointmentMinutes: 30,
		},
		Storage: StorageConfig{
			Driver: db.DriverSQLite,
			DBPath: defaultDBPath(),
		},
		Redis: RedisConfig{
			LockTTLSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		UI: UIConfig{
			Theme: "frappe",
		},
	}
}

// DefaultHours is a business week with a shortened Saturday.
func DefaultHours() []HoursConfig {
	hours := make([]HoursConfig, 0, 7)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		hours = append(hours, HoursConfig{Day: day, Open: true, Start: "09:00", End: "18:00"})
	}
	return append(hours,
		HoursConfig{Day: "saturday", Open: true, Start: "09:00", End: "13:00"},
		HoursConfig{Day: "sunday", Open: false},
	)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "clinica.db"
	}
	return filepath.Join(home, ".local", "share", "clinica", "clinica.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "clinica", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies
// .env and environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Logging.Path = expandPath(cfg.Logging.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	// A file that lists hours replaces the default week entirely.
	var listed struct {
		Clinic struct {
			Hours []HoursConfig `toml:"hours"`
		} `toml:"clinic"`
	}
	if err := toml.Unmarshal(data, &listed); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if len(listed.Clinic.Hours) > 0 {
		cfg.Clinic.Hours = nil
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies CLINICA_* variables. They take precedence over
// file config.
func applyEnvOverrides(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"CLINICA_NAME", &cfg.Clinic.Name},
		{"CLINICA_DEFAULT_VIEW", &cfg.Calendar.DefaultView},
		{"CLINICA_STORAGE_DRIVER", &cfg.Storage.Driver},
		{"CLINICA_DB_PATH", &cfg.Storage.DBPath},
		{"CLINICA_POSTGRES_DSN", &cfg.Storage.PostgresDSN},
		{"CLINICA_REDIS_ADDR", &cfg.Redis.Addr},
		{"CLINICA_REDIS_USERNAME", &cfg.Redis.Username},
		{"CLINICA_REDIS_PASSWORD", &cfg.Redis.Password},
		{"CLINICA_LOG_LEVEL", &cfg.Logging.Level},
		{"CLINICA_LOG_PATH", &cfg.Logging.Path},
		{"CLINICA_UI_THEME", &cfg.UI.Theme},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"CLINICA_DEBOUNCE_MS", &cfg.Calendar.DebounceMS},
		{"CLINICA_MOBILE_WIDTH", &cfg.Calendar.MobileWidth},
		{"CLINICA_APPOINTMENT_MINUTES", &cfg.Calendar.AppointmentMinutes},
		{"CLINICA_REDIS_LOCK_TTL_SECONDS", &cfg.Redis.LockTTLSeconds},
	}
	for _, i := range ints {
		v := os.Getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", i.key, v)
		}
		*i.dst = n
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	seen := make(map[time.Weekday]bool, len(c.Clinic.Hours))
	for _, h := range c.Clinic.Hours {
		wd, err := dateutil.ParseWeekday(h.Day)
		if err != nil {
			return fmt.Errorf("invalid day in clinic hours: %q", h.Day)
		}
		if seen[wd] {
			return fmt.Errorf("clinic hours list %s twice", strings.ToLower(h.Day))
		}
		seen[wd] = true
		if !h.Open {
			continue
		}
		if err := validateTime(h.Start, h.Day+" start"); err != nil {
			return err
		}
		if err := validateTime(h.End, h.Day+" end"); err != nil {
			return err
		}
		if h.Start >= h.End {
			return fmt.Errorf("%s start must be before end", h.Day)
		}
	}

	if _, err := calendar.ParseView(c.Calendar.DefaultView); err != nil {
		return fmt.Errorf("default_view: %w", err)
	}
	if c.Calendar.DebounceMS <= 0 {
		return errors.New("debounce_ms must be positive")
	}
	if c.Calendar.MobileWidth <= 0 {
		return errors.New("mobile_width must be positive")
	}
	if c.Calendar.AppointmentMinutes <= 0 {
		return errors.New("appointment_minutes must be positive")
	}

	switch c.Storage.Driver {
	case db.DriverSQLite:
		if c.Storage.DBPath == "" {
			return errors.New("db_path must be set")
		}
	case db.DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("postgres_dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("%w: %q", db.ErrUnknownDriver, c.Storage.Driver)
	}

	if c.Redis.Addr != "" && c.Redis.LockTTLSeconds <= 0 {
		return errors.New("lock_ttl_seconds must be positive when redis is configured")
	}
	return nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	hour, err1 := strconv.Atoi(t[0:2])
	minute, err2 := strconv.Atoi(t[3:5])
	if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

// WorkingDays converts the clinic hours into the scheduler's representation.
// Entries that fail to parse are skipped; Validate reports them.
func (c *Config) WorkingDays() []scheduler.WorkingDay {
	days := make([]scheduler.WorkingDay, 0, len(c.Clinic.Hours))
	for _, h := range c.Clinic.Hours {
		wd, err := dateutil.ParseWeekday(h.Day)
		if err != nil {
			continue
		}
		days = append(days, scheduler.WorkingDay{Weekday: wd, Open: h.Open, Start: h.Start, End: h.End})
	}
	return days
}

// WorkingHours builds the working-hours policy.
func (c *Config) WorkingHours() *scheduler.WorkingHours {
	return scheduler.New(c.WorkingDays())
}

// View returns the configured default view, week when invalid.
func (c *Config) View() calendar.View {
	v, err := calendar.ParseView(c.Calendar.DefaultView)
	if err != nil {
		return calendar.ViewWeek
	}
	return v
}

// Debounce returns the navigation debounce, clamped to the supported range.
func (c *Config) Debounce() time.Duration {
	return calendar.ClampDebounce(time.Duration(c.Calendar.DebounceMS) * time.Millisecond)
}

// LockTTL returns the redis lock expiry.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Redis.LockTTLSeconds) * time.Second
}

// StorageOptions returns the options for db.Open.
func (c *Config) StorageOptions() db.Options {
	return db.Options{Driver: c.Storage.Driver, Path: c.Storage.DBPath, PostgresDSN: c.Storage.PostgresDSN}
}

// LoggingOptions returns the options for logging.New.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Logging.Level,
		Path:       c.Logging.Path,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
	}
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
