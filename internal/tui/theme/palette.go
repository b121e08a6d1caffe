package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette holds precomputed colors derived from a Theme.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Today       lipgloss.Color
	Warning     lipgloss.Color

	Pending   lipgloss.Color
	Confirmed lipgloss.Color
	Cancelled lipgloss.Color

	PendingBg   lipgloss.Color
	ConfirmedBg lipgloss.Color

	TextOnAccent    lipgloss.Color
	TextOnWarning   lipgloss.Color
	TextOnPending   lipgloss.Color
	TextOnConfirmed lipgloss.Color

	ModalBorder lipgloss.Color
	ModalText   lipgloss.Color
	ModalMuted  lipgloss.Color
}

// NewPalette derives a Palette from the provided Theme.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(DefaultName)
	}

	isLight := isLightTheme(t.Bg)
	pendingBg := appointmentBg(t.Pending, t.Bg, isLight)
	confirmedBg := appointmentBg(t.Confirmed, t.Bg, isLight)

	return &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Today:       lipgloss.Color(t.Today),
		Warning:     lipgloss.Color(t.Warning),

		Pending:   lipgloss.Color(t.Pending),
		Confirmed: lipgloss.Color(t.Confirmed),
		Cancelled: lipgloss.Color(t.Cancelled),

		PendingBg:   lipgloss.Color(pendingBg),
		ConfirmedBg: lipgloss.Color(confirmedBg),

		TextOnAccent:    lipgloss.Color(chooseTextColor(t.Accent, t.Bg, t.Fg)),
		TextOnWarning:   lipgloss.Color(chooseTextColor(t.Warning, t.Bg, t.Fg)),
		TextOnPending:   lipgloss.Color(chooseTextColor(pendingBg, t.Bg, t.Fg)),
		TextOnConfirmed: lipgloss.Color(chooseTextColor(confirmedBg, t.Bg, t.Fg)),

		ModalBorder: lipgloss.Color(t.ModalBorder),
		ModalText:   lipgloss.Color(t.TextPrimary),
		ModalMuted:  lipgloss.Color(t.TextMuted),
	}
}

func isLightTheme(bg string) bool {
	return relativeLuminance(bg) > 0.55
}

// appointmentBg tones an accent down enough to carry text on top.
func appointmentBg(accent, bg string, isLight bool) string {
	if isLight {
		return blendColors(accent, bg, 0.75)
	}
	return darkenColor(accent)
}

// minChannel keeps darkened blocks visible on dark backgrounds.
const minChannel = 40.0 / 255

// darkenColor halves each channel. Unparseable input is returned as is.
func darkenColor(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return colorful.Color{
		R: max(c.R*0.5, minChannel),
		G: max(c.G*0.5, minChannel),
		B: max(c.B*0.5, minChannel),
	}.Hex()
}

func blendColors(a, b string, ratio float64) string {
	ca, err := colorful.Hex(a)
	if err != nil {
		return a
	}
	cb, err := colorful.Hex(b)
	if err != nil {
		return a
	}
	return ca.BlendRgb(cb, min(max(ratio, 0), 1)).Hex()
}

func chooseTextColor(bg, lightText, darkText string) string {
	if contrastRatio(bg, lightText) >= contrastRatio(bg, darkText) {
		return lightText
	}
	return darkText
}

// contrastRatio follows the WCAG definition, from 1 to 21.
func contrastRatio(a, b string) float64 {
	l1, l2 := relativeLuminance(a), relativeLuminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func relativeLuminance(hex string) float64 {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0
	}
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
