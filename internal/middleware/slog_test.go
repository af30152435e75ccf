package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tphummel/lab_templates/internal/middleware"
)

// logRouter serves a few lab store routes behind the access logger and
// returns the buffer the JSON log lines go to.
func logRouter(skip func(*http.Request) bool) (http.Handler, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	logger := slog.New(slog.NewJSONHandler(buf, nil))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger, skip))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/lab/{id}/setup-steps", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]")) //nolint:errcheck
	})
	r.Delete("/api/lab/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Put("/api/setup-step", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r, buf
}

func skipHealthz(r *http.Request) bool { return r.URL.Path == "/healthz" }

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		skip       func(*http.Request) bool
		method     string
		path       string
		wantLogged bool
		wantStatus int
		wantLevel  string
		wantRoute  string
	}{
		{name: "healthcheck skipped", skip: skipHealthz, method: http.MethodGet, path: "/healthz"},
		{name: "healthcheck logged without skip", method: http.MethodGet, path: "/healthz", wantLogged: true, wantStatus: 200, wantLevel: "INFO", wantRoute: "/healthz"},
		{name: "implicit 200", skip: skipHealthz, method: http.MethodGet, path: "/api/lab/abc/setup-steps", wantLogged: true, wantStatus: 200, wantLevel: "INFO", wantRoute: "/api/lab/{id}/setup-steps"},
		{name: "client error", skip: skipHealthz, method: http.MethodDelete, path: "/api/lab/abc", wantLogged: true, wantStatus: 404, wantLevel: "INFO", wantRoute: "/api/lab/{id}"},
		{name: "server error", skip: skipHealthz, method: http.MethodPut, path: "/api/setup-step", wantLogged: true, wantStatus: 500, wantLevel: "ERROR", wantRoute: "/api/setup-step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, buf := logRouter(tt.skip)
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			if !tt.wantLogged {
				if buf.Len() > 0 {
					t.Errorf("expected no log line, got: %s", buf.String())
				}
				return
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
			}
			for _, key := range []string{"method", "path", "status", "bytes", "duration", "remote_addr", "request_id"} {
				if _, ok := entry[key]; !ok {
					t.Errorf("missing key %q", key)
				}
			}
			if entry["method"] != tt.method || entry["path"] != tt.path {
				t.Errorf("request: got %v %v, want %s %s", entry["method"], entry["path"], tt.method, tt.path)
			}
			if got, _ := entry["status"].(float64); int(got) != tt.wantStatus {
				t.Errorf("status: got %v, want %d", entry["status"], tt.wantStatus)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level: got %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["route"] != tt.wantRoute {
				t.Errorf("route: got %v, want %s", entry["route"], tt.wantRoute)
			}
		})
	}
}

func TestRequestLogger_CountsBytes(t *testing.T) {
	h, buf := logRouter(nil)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/lab/abc/setup-steps", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if got, _ := entry["bytes"].(float64); got != 2 {
		t.Errorf("bytes: got %v, want 2", entry["bytes"])
	}
}

func TestRequestLogger_OutsideChi(t *testing.T) {
	var buf bytes.Buffer
	h := middleware.RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil)), nil, http.NotFoundHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	for _, key := range []string{"route", "request_id"} {
		if _, ok := entry[key]; ok {
			t.Errorf("unexpected key %q without chi", key)
		}
	}
}
