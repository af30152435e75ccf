package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_templates_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lab_templates_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lab_templates_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})
)

// LabDB is the subset of db.DB needed to collect lab metrics.
type LabDB interface {
	CountLabsByStatus() (map[string]int, error)
	CountSteps() (int, error)
}

// labCollector queries the database on each scrape to report lab counts by
// status and the total number of setup steps.
type labCollector struct {
	db        LabDB
	labsDesc  *prometheus.Desc
	stepsDesc *prometheus.Desc
}

func newLabCollector(db LabDB) *labCollector {
	return &labCollector{
		db: db,
		labsDesc: prometheus.NewDesc(
			"lab_templates_labs_total",
			"Number of lab templates, partitioned by status.",
			[]string{"status"},
			nil,
		),
		stepsDesc: prometheus.NewDesc(
			"lab_templates_setup_steps_total",
			"Number of setup steps across all labs.",
			nil,
			nil,
		),
	}
}

func (c *labCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.labsDesc
	ch <- c.stepsDesc
}

func (c *labCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.db.CountLabsByStatus()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.labsDesc, err)
	} else {
		for status, n := range counts {
			ch <- prometheus.MustNewConstMetric(c.labsDesc, prometheus.GaugeValue, float64(n), status)
		}
	}

	steps, err := c.db.CountSteps()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.stepsDesc, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.stepsDesc, prometheus.GaugeValue, float64(steps))
}

// Register registers all metrics with reg. Call once at startup after the
// database is initialised.
func Register(reg prometheus.Registerer, db LabDB) error {
	for _, c := range []prometheus.Collector{
		// Standard Go runtime and process metrics
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		// HTTP service metrics
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		// Application metrics
		newLabCollector(db),
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns the Prometheus HTTP handler for gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records HTTP metrics labelled by the chi route pattern (e.g.
// "/api/lab/{id}") so the path label has bounded cardinality. Requests that
// matched no route are labelled "unmatched".
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			pattern := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}
