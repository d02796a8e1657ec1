package cliui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/hues/pkg/swatch"
)

// Swatch renders c as a block of width cells. Terminals without color
// support get the hex code in brackets instead.
func Swatch(c swatch.Color, width int) string {
	if lipgloss.ColorProfile() == termenv.Ascii {
		return "[" + c.Hex() + "]"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Render(strings.Repeat(" ", width))
}

// Palette renders a fingerprint as one line per color: swatch, hex code and
// share of the total weight.
func Palette(fp swatch.Fingerprint) string {
	var total float64
	for _, wc := range fp {
		total += wc.Weight
	}

	var b strings.Builder
	for _, wc := range fp {
		share := 0.0
		if total > 0 {
			share = wc.Weight / total * 100
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			Swatch(wc.Color, 4),
			ValueStyle.Render(wc.Hex()),
			DimStyle.Render(fmt.Sprintf("%5.1f%%", share)),
		)
	}
	return b.String()
}

// Strip renders a fingerprint as adjacent swatches on one line, each two
// cells wide.
func Strip(fp swatch.Fingerprint) string {
	parts := make([]string, len(fp))
	for i, wc := range fp {
		parts[i] = Swatch(wc.Color, 2)
	}
	return strings.Join(parts, "")
}
