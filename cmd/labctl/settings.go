package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphummel/lab_templates/internal/appctx"
	"github.com/tphummel/lab_templates/internal/ui"
)

func newSettingsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change display preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			e.render.Settings(e.app.Settings())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e.render.Settings(e.app.Settings())
			return nil
		},
	})
	cmd.AddCommand(newSettingsSetCommand(e))
	return cmd
}

func newSettingsSetCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <theme|color|locale|sidebar> <value>",
		Short: "Change one preference",
		Long: `Change one preference and save it.

  theme    light, dark or system
  color    blue, cyan, green, purple, orange or pink
  locale   vi or en
  sidebar  open, collapsed or toggle`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setPreference(e.app, args[0], args[1]); err != nil {
				return err
			}
			if err := e.app.Close(); err != nil {
				return err
			}

			// Colour and locale may have changed.
			r := ui.NewRenderer(e.out, e.app)
			r.Message("settings.saved", nil)
			r.Settings(e.app.Settings())
			return nil
		},
	}
}

func setPreference(app *appctx.Context, key, value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	switch key {
	case "theme":
		return app.SetTheme(appctx.Theme(value))
	case "color", "colour":
		return app.SetColor(appctx.Color(value))
	case "locale", "language":
		return app.SetLocale(value)
	case "sidebar":
		switch value {
		case "open":
			return app.SetSidebarOpen(true)
		case "collapsed", "closed":
			return app.SetSidebarOpen(false)
		case "toggle":
			_, err := app.ToggleSidebar()
			return err
		}
		return fmt.Errorf("sidebar: want open, collapsed or toggle, got %q", value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
}
