package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/tphummel/lab_templates/internal/handlers"
)

type openAPIDoc struct {
	OpenAPI string                    `yaml:"openapi"`
	Servers []struct{ URL string }    `yaml:"servers"`
	Paths   map[string]map[string]any `yaml:"paths"`
}

func loadOpenAPI(t *testing.T) openAPIDoc {
	t.Helper()
	w := httptest.NewRecorder()
	handlers.OpenAPIDocument(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if ct := w.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type: got %q, want application/yaml", ct)
	}

	var doc openAPIDoc
	if err := yaml.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("openapi.yaml does not parse: %v", err)
	}
	return doc
}

func TestOpenAPIDocument_Parses(t *testing.T) {
	doc := loadOpenAPI(t)
	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		t.Errorf("openapi version: got %q, want 3.x", doc.OpenAPI)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "/api" {
		t.Errorf("servers: got %+v, want a single /api server", doc.Servers)
	}
}

// Every route mounted under /api must be described, and nothing else.
func TestOpenAPIDocument_MatchesRouter(t *testing.T) {
	doc := loadOpenAPI(t)
	var documented []string
	for path, ops := range doc.Paths {
		for method := range ops {
			switch method {
			case "get", "post", "put", "delete":
				documented = append(documented, strings.ToUpper(method)+" "+path)
			}
		}
	}

	mux, _ := newTestMux(t)
	routes, ok := mux.(chi.Routes)
	if !ok {
		t.Fatalf("router is %T, want chi.Routes", mux)
	}
	var mounted []string
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if path, ok := strings.CutPrefix(route, "/api"); ok {
			mounted = append(mounted, method+" "+path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("chi.Walk: %v", err)
	}

	slices.Sort(documented)
	slices.Sort(mounted)
	if !slices.Equal(documented, mounted) {
		t.Errorf("openapi.yaml and router disagree\ndocumented: %v\nmounted:    %v", documented, mounted)
	}
}

func TestDocs_ServedWithoutAuth(t *testing.T) {
	mux, _ := newTestMux(t)

	tests := []struct {
		path     string
		ctPrefix string
		contains string
	}{
		{path: "/openapi.yaml", ctPrefix: "application/yaml", contains: "/setup-step/reorder/{labId}:"},
		{path: "/docs", ctPrefix: "text/html", contains: `url: "/openapi.yaml"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(mux, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.ctPrefix) {
				t.Errorf("Content-Type: got %q, want prefix %q", ct, tt.ctPrefix)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}
