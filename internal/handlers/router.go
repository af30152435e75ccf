package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphummel/lab_templates/internal/metrics"
	"github.com/tphummel/lab_templates/internal/middleware"
)

// RouterOptions configures the middleware stack around the API.
type RouterOptions struct {
	// Token guards everything under /api. Empty disables auth.
	Token          string
	AllowedOrigins []string
	// RateLimit is requests per minute per client IP. Zero disables limiting.
	RateLimit int
	Logger    *slog.Logger
	// Gatherer backs /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// Router builds the full HTTP router: health, metrics and docs at the root,
// lab and setup step routes under /api.
func Router(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger, func(r *http.Request) bool {
		return r.URL.Path == "/healthz"
	}))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))
	if opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
	}

	// No auth
	r.Get("/healthz", h.Health)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(opts.Gatherer))
	}
	r.Get("/openapi.yaml", OpenAPIDocument)
	r.Get("/docs", Docs)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireToken(opts.Token))

		r.Get("/lab", h.ListLabs)
		r.Post("/lab", h.CreateLab)
		r.Get("/lab/{id}", h.GetLab)
		r.Put("/lab/{id}", h.UpdateLab)
		r.Delete("/lab/{id}", h.DeleteLab)
		r.Put("/lab/{id}/toggle-status", h.ToggleLabStatus)
		r.Get("/lab/{id}/setup-steps", h.ListLabSteps)

		r.Post("/setup-step/batch/{labId}", h.CreateSetupStepsBatch)
		r.Post("/setup-step/{labId}", h.CreateSetupStep)
		r.Put("/setup-step", h.UpdateSetupStep)
		r.Put("/setup-step/reorder/{labId}", h.ReorderSetupSteps)
		r.Delete("/setup-step/batch", h.DeleteSetupStepsBatch)
		r.Delete("/setup-step/{id}", h.DeleteSetupStep)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
