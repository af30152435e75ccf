package appctx

import (
	"fmt"

	"github.com/tphummel/lab_templates/internal/i18n"
)

// Theme selects light or dark output, or follows the terminal.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Themes lists every theme in menu order.
var Themes = []Theme{ThemeLight, ThemeDark, ThemeSystem}

// Color is the accent colour theme.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorCyan   Color = "cyan"
	ColorGreen  Color = "green"
	ColorPurple Color = "purple"
	ColorOrange Color = "orange"
	ColorPink   Color = "pink"
)

// Colors lists every colour theme in menu order.
var Colors = []Color{ColorBlue, ColorCyan, ColorGreen, ColorPurple, ColorOrange, ColorPink}

// Settings are the user's presentation preferences.
type Settings struct {
	Theme       Theme  `mapstructure:"theme"`
	Color       Color  `mapstructure:"color"`
	Locale      string `mapstructure:"locale"`
	SidebarOpen bool   `mapstructure:"sidebar_open"`
}

// DefaultSettings is what a first run starts with.
func DefaultSettings() Settings {
	return Settings{
		Theme:       ThemeSystem,
		Color:       ColorBlue,
		Locale:      i18n.Default.String(),
		SidebarOpen: true,
	}
}

// Validate rejects values outside the known themes, colours and locales.
func (s Settings) Validate() error {
	if !validTheme(s.Theme) {
		return fmt.Errorf("unknown theme %q", s.Theme)
	}
	if !validColor(s.Color) {
		return fmt.Errorf("unknown color %q", s.Color)
	}
	if !i18n.IsSupported(s.Locale) {
		return fmt.Errorf("unsupported locale %q", s.Locale)
	}
	return nil
}

// sanitize replaces each invalid field with its default.
func (s Settings) sanitize() Settings {
	d := DefaultSettings()
	if !validTheme(s.Theme) {
		s.Theme = d.Theme
	}
	if !validColor(s.Color) {
		s.Color = d.Color
	}
	if !i18n.IsSupported(s.Locale) {
		s.Locale = d.Locale
	}
	return s
}

func validTheme(t Theme) bool {
	for _, v := range Themes {
		if v == t {
			return true
		}
	}
	return false
}

func validColor(c Color) bool {
	for _, v := range Colors {
		if v == c {
			return true
		}
	}
	return false
}
