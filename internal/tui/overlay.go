package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// placeOverlay draws box centered on base, which is first padded or cut to
// width x height. Lines of base outside the box are kept intact.
func placeOverlay(base, box string, width, height int) string {
	if width <= 0 || height <= 0 || box == "" {
		return base
	}

	baseLines := normalizeBase(base, width, height)
	boxLines := strings.Split(box, "\n")
	boxW := min(lipgloss.Width(box), width)
	boxH := min(len(boxLines), height)

	top := max((height-boxH)/2, 0)
	left := max((width-boxW)/2, 0)

	for i := 0; i < boxH; i++ {
		row := top + i
		line := boxLines[i]
		if w := lipgloss.Width(line); w > boxW {
			line = ansi.Cut(line, 0, boxW)
		} else if w < boxW {
			line += strings.Repeat(" ", boxW-w)
		}
		leftSlice := ansi.Cut(baseLines[row], 0, left)
		rightSlice := ansi.Cut(baseLines[row], left+boxW, width)
		baseLines[row] = leftSlice + ansi.ResetStyle + line + ansi.ResetStyle + rightSlice
	}
	return strings.Join(baseLines, "\n")
}

func normalizeBase(base string, width, height int) []string {
	lines := strings.Split(base, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	for i, line := range lines {
		lineWidth := lipgloss.Width(line)
		if lineWidth > width {
			lines[i] = ansi.Cut(line, 0, width)
			continue
		}
		if lineWidth < width {
			lines[i] = line + strings.Repeat(" ", width-lineWidth)
		}
	}
	return lines
}
