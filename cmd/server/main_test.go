package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"

	"github.com/tphummel/lab_templates/internal/config"
)

func testApp(t *testing.T, env map[string]string) *app {
	t.Helper()
	env["DB_PATH"] = ":memory:"
	cfg, err := config.LoadServerFrom(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)
	return a
}

func TestNewApp_ServesHealthAndMetrics(t *testing.T) {
	a := testApp(t, map[string]string{"API_TOKEN": "my-token"})

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: got %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "lab_templates_setup_steps_total 0") {
		t.Error("metrics output missing setup step gauge")
	}
}

func TestNewApp_TokenGuardsAPI(t *testing.T) {
	a := testApp(t, map[string]string{"API_TOKEN": "my-token"})

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lab", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without token: got %d, want 401", w.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/lab", nil)
	r.Header.Set("Authorization", "Bearer my-token")
	w = httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("with token: got %d, want 200", w.Code)
	}
}

func TestNewApp_NoTokenMeansOpenAPI(t *testing.T) {
	a := testApp(t, map[string]string{})

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lab", nil))
	if w.Code != http.StatusOK {
		t.Errorf("got %d, want 200", w.Code)
	}
}

func TestNewApp_BadNATSURL(t *testing.T) {
	cfg, err := config.LoadServerFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_PATH":  ":memory:",
		"NATS_URL": "nats://127.0.0.1:1",
	}))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if _, err := newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected error when NATS is unreachable")
	}
}
