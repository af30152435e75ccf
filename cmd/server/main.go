package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphummel/lab_templates/internal/config"
	"github.com/tphummel/lab_templates/internal/db"
	"github.com/tphummel/lab_templates/internal/events"
	"github.com/tphummel/lab_templates/internal/handlers"
	"github.com/tphummel/lab_templates/internal/metrics"
	"github.com/tphummel/lab_templates/internal/telemetry"
)

const serviceName = "lab-templates"

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// app is the wired server: everything main needs to serve and shut down.
type app struct {
	handler  http.Handler
	db       *db.DB
	nats     *events.NATS
	registry *prometheus.Registry
}

// newApp opens the database, registers metrics, connects to NATS when
// configured and builds the router.
func newApp(cfg config.Server, logger *slog.Logger) (*app, error) {
	database, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg, database); err != nil {
		database.Close()
		return nil, err
	}

	a := &app{db: database, registry: reg}

	var pub events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL,
			nats.Name(serviceName),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", "error", err)
			}),
		)
		if err != nil {
			database.Close()
			return nil, err
		}
		a.nats = nc
		pub = nc
	}

	h := &handlers.Handler{
		DB:      database,
		Events:  pub,
		Logger:  logger,
		Version: version,
		Commit:  commit,
	}
	router := handlers.Router(h, handlers.RouterOptions{
		Token:          cfg.APIToken,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		Logger:         logger,
		Gatherer:       reg,
	})
	a.handler = telemetry.Handler(router, serviceName)
	return a, nil
}

func (a *app) close() {
	a.nats.Close()
	if err := a.db.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.LoadServer(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if cfg.APIToken == "" {
		logger.Warn("API_TOKEN is not set; /api is unauthenticated")
	}

	shutdownTracing, err := telemetry.Init(ctx, serviceName, version, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		log.Fatalf("start: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Addr, "version", version, "commit", commit)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", "error", err)
	}
	a.close()
	logger.Info("server stopped")
}
