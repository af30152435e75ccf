// Package config loads settings for the lab store server (environment) and
// the labctl client (config file plus environment).
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Server holds runtime configuration for cmd/server.
type Server struct {
	Addr            string        `env:"ADDR,default=:8080"`
	DBPath          string        `env:"DB_PATH,default=./lab_templates.db"`
	APIToken        string        `env:"API_TOKEN"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RateLimit       int           `env:"RATE_LIMIT,default=300"`
	NATSURL         string        `env:"NATS_URL"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=30s"`
}

// LoadServer returns a Server populated from environment variables.
func LoadServer(ctx context.Context) (Server, error) {
	return LoadServerFrom(ctx, envconfig.OsLookuper())
}

// LoadServerFrom is LoadServer with an explicit source of variables.
func LoadServerFrom(ctx context.Context, l envconfig.Lookuper) (Server, error) {
	var cfg Server
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit < 0 {
		return Server{}, fmt.Errorf("RATE_LIMIT must not be negative, got %d", cfg.RateLimit)
	}
	if _, err := cfg.Level(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Level parses LogLevel.
func (s Server) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s.LogLevel))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
