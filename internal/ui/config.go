package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/clinica/internal/calendar"
	"github.com/javiermolinar/clinica/internal/config"
	"github.com/javiermolinar/clinica/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	var (
		path string
		show bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  clinica config
  clinica config --show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultConfigPath()
			}
			return runConfigInteractive(a.in, cmd.OutOrStdout(), path, show)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Config file (default: ~/.config/clinica/config.toml)")
	cmd.Flags().BoolVar(&show, "show", false, "Print the configuration without editing")
	return cmd
}

func runConfigInteractive(in io.Reader, w io.Writer, configPath string, showOnly bool) error {
	fmt.Fprintf(w, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(w, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "Created %s\n\n", configPath)
	}

	printConfig(w, cfg)
	if showOnly {
		return nil
	}

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, w, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Clinic.Name = promptValue(reader, w, "Clinic name", cfg.Clinic.Name)
	cfg.Calendar.DefaultView = promptChoice(reader, w, "Default view", cfg.Calendar.DefaultView, viewNames())
	cfg.Calendar.DebounceMS = promptInt(reader, w, "Navigation debounce (ms, 100-200)", cfg.Calendar.DebounceMS)
	cfg.Calendar.MobileWidth = promptInt(reader, w, "Day view below width (columns)", cfg.Calendar.MobileWidth)
	cfg.Calendar.AppointmentMinutes = promptInt(reader, w, "Default appointment minutes", cfg.Calendar.AppointmentMinutes)
	cfg.Storage.Driver = promptChoice(reader, w, "Storage driver", cfg.Storage.Driver, []string{"sqlite", "postgres"})
	if cfg.Storage.Driver == "postgres" {
		cfg.Storage.PostgresDSN = promptValue(reader, w, "Postgres DSN", cfg.Storage.PostgresDSN)
	} else {
		cfg.Storage.DBPath = promptValue(reader, w, "Database path", cfg.Storage.DBPath)
	}
	cfg.Redis.Addr = promptValue(reader, w, "Redis address for shared locks (empty to disable)", cfg.Redis.Addr)
	cfg.Logging.Level = promptChoice(reader, w, "Log level", cfg.Logging.Level, []string{"debug", "info", "warn", "error"})
	cfg.Logging.Path = promptValue(reader, w, "Log file (empty for stderr)", cfg.Logging.Path)
	cfg.UI.Theme = promptChoice(reader, w, "UI theme", cfg.UI.Theme, theme.Available())

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(w, "\nConfiguration saved!")
	return nil
}

func viewNames() []string {
	names := make([]string, len(calendar.Views))
	for i, v := range calendar.Views {
		names[i] = string(v)
	}
	return names
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[clinic]")
	fmt.Fprintf(w, "  name                = %s\n", cfg.Clinic.Name)
	for _, h := range cfg.Clinic.Hours {
		if h.Open {
			fmt.Fprintf(w, "  %-19s = %s-%s\n", h.Day, h.Start, h.End)
		} else {
			fmt.Fprintf(w, "  %-19s = closed\n", h.Day)
		}
	}
	fmt.Fprintln(w, "\n[calendar]")
	fmt.Fprintf(w, "  default_view        = %s\n", cfg.Calendar.DefaultView)
	fmt.Fprintf(w, "  debounce_ms         = %d\n", cfg.Calendar.DebounceMS)
	fmt.Fprintf(w, "  mobile_width        = %d\n", cfg.Calendar.MobileWidth)
	fmt.Fprintf(w, "  appointment_minutes = %d\n", cfg.Calendar.AppointmentMinutes)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  driver              = %s\n", cfg.Storage.Driver)
	if cfg.Storage.Driver == "postgres" {
		fmt.Fprintf(w, "  postgres_dsn        = %s\n", maskSecret(cfg.Storage.PostgresDSN))
	} else {
		fmt.Fprintf(w, "  db_path             = %s\n", cfg.Storage.DBPath)
	}
	if cfg.Redis.Addr != "" {
		fmt.Fprintln(w, "\n[redis]")
		fmt.Fprintf(w, "  addr                = %s\n", cfg.Redis.Addr)
		fmt.Fprintf(w, "  lock_ttl_seconds    = %d\n", cfg.Redis.LockTTLSeconds)
	}
	fmt.Fprintln(w, "\n[logging]")
	fmt.Fprintf(w, "  level               = %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  path                = %s\n", cfg.Logging.Path)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme               = %s\n", cfg.UI.Theme)
}

// maskSecret hides a DSN password.
func maskSecret(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return dsn
	}
	return dsn[:scheme+3] + user + ":****" + dsn[at:]
}

func promptYesNo(in io.Reader, w io.Writer, question string) bool {
	reader, ok := in.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(in)
	}
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, w io.Writer, label, current string) string {
	if current == "" {
		fmt.Fprintf(w, "  %s: ", label)
	} else {
		fmt.Fprintf(w, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(reader *bufio.Reader, w io.Writer, label string, current int) int {
	for {
		value := promptValue(reader, w, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil && n > 0 {
			return n
		}
		fmt.Fprintf(w, "  Invalid number %q\n", value)
		if _, err := reader.Peek(1); err != nil {
			return current
		}
	}
}

func promptChoice(reader *bufio.Reader, w io.Writer, label, current string, options []string) string {
	list := strings.Join(options, ", ")
	prompt := fmt.Sprintf("%s (%s)", label, list)
	for {
		value := strings.ToLower(promptValue(reader, w, prompt, current))
		for _, o := range options {
			if value == o {
				return value
			}
		}
		fmt.Fprintf(w, "  Invalid choice %q. Available: %s\n", value, list)
		if _, err := reader.Peek(1); err != nil {
			return current
		}
	}
}
