// Package ui renders labs, setup steps and notifications for the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tphummel/lab_templates/internal/appctx"
)

// Catppuccin Latte (light) and Mocha (dark) base colours.
const (
	latteText    lipgloss.Color = "#4c4f69"
	latteSubtext lipgloss.Color = "#6c6f85"
	latteOverlay lipgloss.Color = "#9ca0b0"
	latteGreen   lipgloss.Color = "#40a02b"
	latteRed     lipgloss.Color = "#d20f39"
	latteYellow  lipgloss.Color = "#df8e1d"
	mochaText    lipgloss.Color = "#cdd6f4"
	mochaSubtext lipgloss.Color = "#a6adc8"
	mochaOverlay lipgloss.Color = "#6c7086"
	mochaGreen   lipgloss.Color = "#a6e3a1"
	mochaRed     lipgloss.Color = "#f38ba8"
	mochaYellow  lipgloss.Color = "#f9e2af"
)

// accents maps each colour theme to its light and dark accent.
var accents = map[appctx.Color][2]lipgloss.Color{
	appctx.ColorBlue:   {"#1e66f5", "#89b4fa"},
	appctx.ColorCyan:   {"#04a5e5", "#89dceb"},
	appctx.ColorGreen:  {"#40a02b", "#a6e3a1"},
	appctx.ColorPurple: {"#8839ef", "#cba6f7"},
	appctx.ColorOrange: {"#fe640b", "#fab387"},
	appctx.ColorPink:   {"#ea76cb", "#f5c2e7"},
}

// Palette is the set of semantic colours used by every renderer.
type Palette struct {
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
}

// PaletteFor returns the palette for a colour theme. Unknown colours use blue.
func PaletteFor(c appctx.Color, dark bool) Palette {
	pair, ok := accents[c]
	if !ok {
		pair = accents[appctx.ColorBlue]
	}
	if dark {
		return Palette{
			Accent: pair[1], Text: mochaText, Muted: mochaSubtext, Border: mochaOverlay,
			Success: mochaGreen, Error: mochaRed, Warning: mochaYellow,
		}
	}
	return Palette{
		Accent: pair[0], Text: latteText, Muted: latteSubtext, Border: latteOverlay,
		Success: latteGreen, Error: latteRed, Warning: latteYellow,
	}
}
