package appctx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Store persists settings between runs.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps settings in a YAML file. A missing file loads defaults.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the settings file location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (Settings, error) {
	d := DefaultSettings()
	v := viper.New()
	v.SetDefault("theme", string(d.Theme))
	v.SetDefault("color", string(d.Color))
	v.SetDefault("locale", d.Locale)
	v.SetDefault("sidebar_open", d.SidebarOpen)
	v.SetConfigType("yaml")
	v.SetConfigFile(f.path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

// Save writes s, creating the settings directory if needed.
func (f *FileStore) Save(s Settings) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("mkdir settings dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("theme", string(s.Theme))
	v.Set("color", string(s.Color))
	v.Set("locale", s.Locale)
	v.Set("sidebar_open", s.SidebarOpen)

	if err := v.WriteConfigAs(f.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in memory, for tests and one-off runs.
type MemoryStore struct {
	mu    sync.Mutex
	s     *Settings
	saves int
}

// NewMemoryStore returns a store holding initial, or nothing when nil.
func NewMemoryStore(initial *Settings) *MemoryStore {
	m := &MemoryStore{}
	if initial != nil {
		s := *initial
		m.s = &s
	}
	return m
}

func (m *MemoryStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return DefaultSettings(), nil
	}
	return *m.s, nil
}

func (m *MemoryStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
