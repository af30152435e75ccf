package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is where labctl looks for the lab store when nothing is
// configured.
const DefaultBaseURL = "http://localhost:8080/api"

// Client holds labctl settings.
type Client struct {
	BaseURL      string        `mapstructure:"base_url"`
	Token        string        `mapstructure:"token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SettingsPath string        `mapstructure:"settings_path"`
}

// ConfigDir returns ~/.config/labctl.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "labctl")
}

// LoadClient reads the client configuration from LABCTL_CONFIG, or
// ~/.config/labctl/config.yaml when unset. Env var overrides use prefix
// LABCTL_. A missing file is not an error.
func LoadClient() (Client, error) {
	return LoadClientFrom(os.Getenv("LABCTL_CONFIG"))
}

// LoadClientFrom is LoadClient with an explicit config file path. An empty
// path searches the default location.
func LoadClientFrom(path string) (Client, error) {
	v := viper.New()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("token", "")
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("settings_path", filepath.Join(ConfigDir(), "settings.yaml"))

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LABCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Client{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Client
	if err := v.Unmarshal(&c); err != nil {
		return Client{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Client{}, err
	}
	return c, nil
}

// Validate checks that BaseURL is an absolute http(s) URL and Timeout is
// positive.
func (c Client) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
