package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/clinica/internal/appointment"
)

// Color definitions for consistent styling across the UI.
var (
	// Confirmed: green, the booking is settled
	colorConfirmed = color.New(color.FgGreen)

	// Pending: yellow, still needs a call back
	colorPending = color.New(color.FgYellow)

	// Cancelled: dim red, kept for history
	colorCancelled = color.New(color.FgRed, color.Faint)

	// Warnings: bold yellow
	colorWarning = color.New(color.FgYellow, color.Bold)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats: cyan
	colorStats = color.New(color.FgCyan)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// viewportWidth returns the terminal width, zero when stdout is not a
// terminal.
func viewportWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatStatus colors s by appointment status.
func formatStatus(status appointment.Status, s string) string {
	switch status {
	case appointment.StatusConfirmed:
		return colorConfirmed.Sprint(s)
	case appointment.StatusCancelled:
		return colorCancelled.Sprint(s)
	default:
		return colorPending.Sprint(s)
	}
}

func formatWarning(s string) string {
	return colorWarning.Sprint(s)
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatStats(s string) string {
	return colorStats.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
