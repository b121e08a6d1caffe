package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/clinica/internal/tui/theme"
)

// Grid geometry.
const (
	gutterWidth   = 6 // "09:00 "
	minColWidth   = 8
	maxColWidth   = 28
	monthRowLines = 2
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	TitleStyle     lipgloss.Style
	RangeStyle     lipgloss.Style
	TabStyle       lipgloss.Style
	TabActiveStyle lipgloss.Style
	LoadingStyle   lipgloss.Style

	DayHeaderStyle      lipgloss.Style
	DayHeaderTodayStyle lipgloss.Style
	TimeColumnStyle     lipgloss.Style

	CellStyle        lipgloss.Style
	ClosedCellStyle  lipgloss.Style
	CursorCellStyle  lipgloss.Style
	HoverCellStyle   lipgloss.Style
	PendingStyle     lipgloss.Style
	ConfirmedStyle   lipgloss.Style
	DraggedStyle     lipgloss.Style
	OutsideDayStyle  lipgloss.Style
	MonthCountStyle  lipgloss.Style
	LaneHeaderStyle  lipgloss.Style
	SummaryStyle     lipgloss.Style
	StatusStyle      lipgloss.Style
	StatusErrorStyle lipgloss.Style
	HelpStyle        lipgloss.Style
	PromptStyle      lipgloss.Style

	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
	ModalTextStyle  lipgloss.Style
	ModalMutedStyle lipgloss.Style
	ModalWarnStyle  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)

	return &Styles{
		palette: p,

		TitleStyle:     lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		RangeStyle:     lipgloss.NewStyle().Foreground(p.Fg),
		TabStyle:       lipgloss.NewStyle().Foreground(p.FgMuted).Padding(0, 1),
		TabActiveStyle: lipgloss.NewStyle().Bold(true).Foreground(p.TextOnAccent).Background(p.Accent).Padding(0, 1),
		LoadingStyle:   lipgloss.NewStyle().Foreground(p.Warning).Italic(true),

		DayHeaderStyle:      lipgloss.NewStyle().Bold(true).Foreground(p.Fg),
		DayHeaderTodayStyle: lipgloss.NewStyle().Bold(true).Foreground(p.Today),
		TimeColumnStyle:     lipgloss.NewStyle().Foreground(p.FgMuted).Width(gutterWidth),

		CellStyle:        lipgloss.NewStyle().Foreground(p.Fg).Background(p.BgHighlight),
		ClosedCellStyle:  lipgloss.NewStyle().Foreground(p.FgMuted),
		CursorCellStyle:  lipgloss.NewStyle().Foreground(p.Fg).Background(p.BgSelection).Bold(true),
		HoverCellStyle:   lipgloss.NewStyle().Foreground(p.TextOnWarning).Background(p.Warning).Bold(true),
		PendingStyle:     lipgloss.NewStyle().Foreground(p.TextOnPending).Background(p.PendingBg),
		ConfirmedStyle:   lipgloss.NewStyle().Foreground(p.TextOnConfirmed).Background(p.ConfirmedBg),
		DraggedStyle:     lipgloss.NewStyle().Foreground(p.Warning).Strikethrough(true),
		OutsideDayStyle:  lipgloss.NewStyle().Foreground(p.FgMuted).Faint(true),
		MonthCountStyle:  lipgloss.NewStyle().Foreground(p.Confirmed),
		LaneHeaderStyle:  lipgloss.NewStyle().Foreground(p.Pending).Bold(true),
		SummaryStyle:     lipgloss.NewStyle().Foreground(p.FgMuted),
		StatusStyle:      lipgloss.NewStyle().Foreground(p.Confirmed),
		StatusErrorStyle: lipgloss.NewStyle().Foreground(p.Cancelled).Bold(true),
		HelpStyle:        lipgloss.NewStyle().Foreground(p.FgMuted),
		PromptStyle:      lipgloss.NewStyle().Foreground(p.Accent),

		ModalStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.ModalBorder).
			Padding(1, 2),
		ModalTitleStyle: lipgloss.NewStyle().Bold(true).Foreground(p.Cancelled),
		ModalTextStyle:  lipgloss.NewStyle().Foreground(p.ModalText),
		ModalMutedStyle: lipgloss.NewStyle().Foreground(p.ModalMuted),
		ModalWarnStyle:  lipgloss.NewStyle().Foreground(p.Warning).Bold(true),
	}
}

// Palette returns the palette the styles were derived from.
func (s *Styles) Palette() *theme.Palette {
	return s.palette
}
