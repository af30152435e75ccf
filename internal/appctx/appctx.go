// Package appctx holds the process-wide presentation state: theme, accent
// colour, locale and sidebar. It is created once, passed explicitly to
// whatever renders, and persisted on Close.
package appctx

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/language"

	"github.com/tphummel/lab_templates/internal/i18n"
)

// ErrClosed is returned by setters after Close.
var ErrClosed = errors.New("app context closed")

// Context is the application context. It is safe for concurrent use.
type Context struct {
	store Store

	mu       sync.RWMutex
	settings Settings
	tr       *i18n.Translator
	dirty    bool
	closed   bool
}

// Init loads settings from store. Stored values that are no longer valid are
// replaced with their defaults.
func Init(store Store) (*Context, error) {
	s, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	clean := s.sanitize()
	return &Context{
		store:    store,
		settings: clean,
		tr:       i18n.New(language.Make(clean.Locale)),
		dirty:    clean != s,
	}, nil
}

// Close persists pending changes. The context stays readable afterwards but
// rejects further changes.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if !c.dirty {
		return nil
	}
	if err := c.store.Save(c.settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	c.dirty = false
	return nil
}

// Settings returns a snapshot of the current settings.
func (c *Context) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

func (c *Context) Theme() Theme { return c.Settings().Theme }

func (c *Context) Color() Color { return c.Settings().Color }

func (c *Context) SidebarOpen() bool { return c.Settings().SidebarOpen }

// Locale returns the active locale as a language tag.
func (c *Context) Locale() language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tr.Tag()
}

// IsDark resolves the theme: ThemeSystem follows systemDark.
func (c *Context) IsDark(systemDark bool) bool {
	switch c.Theme() {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	default:
		return systemDark
	}
}

// T translates key in the active locale.
func (c *Context) T(key string, args map[string]string) string {
	c.mu.RLock()
	tr := c.tr
	c.mu.RUnlock()
	return tr.T(key, args)
}

// Translator returns the translator for the active locale.
func (c *Context) Translator() *i18n.Translator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tr
}

func (c *Context) SetTheme(t Theme) error {
	if !validTheme(t) {
		return fmt.Errorf("unknown theme %q", t)
	}
	return c.update(func(s *Settings) { s.Theme = t })
}

func (c *Context) SetColor(col Color) error {
	if !validColor(col) {
		return fmt.Errorf("unknown color %q", col)
	}
	return c.update(func(s *Settings) { s.Color = col })
}

// SetLocale switches the message language. locale must be a supported tag
// such as "vi" or "en".
func (c *Context) SetLocale(locale string) error {
	if !i18n.IsSupported(locale) {
		return fmt.Errorf("unsupported locale %q", locale)
	}
	return c.update(func(s *Settings) { s.Locale = locale })
}

func (c *Context) SetSidebarOpen(open bool) error {
	return c.update(func(s *Settings) { s.SidebarOpen = open })
}

// ToggleSidebar flips the sidebar and returns the new state.
func (c *Context) ToggleSidebar() (bool, error) {
	var open bool
	err := c.update(func(s *Settings) {
		s.SidebarOpen = !s.SidebarOpen
		open = s.SidebarOpen
	})
	return open, err
}

func (c *Context) update(fn func(*Settings)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	before := c.settings
	fn(&c.settings)
	if c.settings == before {
		return nil
	}
	if c.settings.Locale != before.Locale {
		c.tr = i18n.New(language.Make(c.settings.Locale))
	}
	c.dirty = true
	return nil
}
