package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/formulary-api/config"
	"github.com/giygas/formulary-api/data"
	"github.com/giygas/formulary-api/logging"
)

// mockHandler implements interfaces.HTTPHandler for routing tests.
// Each endpoint writes its own marker so tests can verify dispatch.
type mockHandler struct{}

func (h *mockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func mark(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", name)
		w.WriteHeader(http.StatusOK)
	}
}

func (h *mockHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	mark("search")(w, r)
}

func (h *mockHandler) HandleDrugStatus(w http.ResponseWriter, r *http.Request) {
	mark("drug_status")(w, r)
}

func (h *mockHandler) HandleAlternatives(w http.ResponseWriter, r *http.Request) {
	mark("alternatives")(w, r)
}

func (h *mockHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	mark("filter")(w, r)
}

func (h *mockHandler) HandleAutocomplete(w http.ResponseWriter, r *http.Request) {
	mark("autocomplete")(w, r)
}

func (h *mockHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	mark("suggestions")(w, r)
}

func (h *mockHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	mark("categories")(w, r)
}

func (h *mockHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	mark("health")(w, r)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:              "8080",
		Address:           "localhost",
		Env:               config.EnvTest,
		LogLevel:          "info",
		MaxRequestBody:    1048576,
		MaxHeaderSize:     1048576,
		RateLimitRate:     1000,
		RateLimitCapacity: 10000,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logging.InitLogger("")

	catalog := data.NewCatalogContainer()
	catalog.UpdateData([]string{"Keytruda", "Humira"}, []string{"oncology", "immunology"})

	srv := NewServer(testConfig(), catalog, &mockHandler{})
	t.Cleanup(srv.rateLimiter.Stop)
	return srv
}

func TestServerRouting(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method  string
		path    string
		handler string
	}{
		{"POST", "/api/search", "search"},
		{"GET", "/api/drug/keytruda", "drug_status"},
		{"GET", "/api/alternatives/humira", "alternatives"},
		{"POST", "/api/filter", "filter"},
		{"GET", "/api/autocomplete?q=key", "autocomplete"},
		{"GET", "/api/suggestions/ketruda", "suggestions"},
		{"GET", "/api/categories", "categories"},
		{"GET", "/health", "health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "127.0.0.1:1234"
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got := rec.Header().Get("X-Handler"); got != tt.handler {
				t.Errorf("dispatched to %q, want %q", got, tt.handler)
			}
		})
	}
}

func TestServerRootEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Formulary Query API") {
		t.Error("root response missing service name")
	}
	for _, route := range []string{"/api/search", "/api/drug/{name}", "/api/categories"} {
		if !strings.Contains(body, route) {
			t.Errorf("root response missing endpoint %s", route)
		}
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_request_total") {
		t.Error("metrics output missing http_request_total")
	}
}

func TestServerEnforcesAPIKey(t *testing.T) {
	logging.InitLogger("")

	cfg := testConfig()
	cfg.RequireAPIKey = true
	cfg.APIKey = "secret-key"

	srv := NewServer(cfg, data.NewCatalogContainer(), &mockHandler{})
	t.Cleanup(srv.rateLimiter.Stop)

	req := httptest.NewRequest("GET", "/api/categories", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/categories", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rec.Code)
	}
}

func TestServerUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/nope", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServerShutdown(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestGetHealthData(t *testing.T) {
	srv := newTestServer(t)

	health := srv.GetHealthData()

	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.DrugCount != 2 {
		t.Errorf("DrugCount = %d, want 2", health.DrugCount)
	}
	if health.CategoryCount != 2 {
		t.Errorf("CategoryCount = %d, want 2", health.CategoryCount)
	}
	if health.Uptime == "" {
		t.Error("Uptime is empty")
	}
}

func TestFormatUptimeHuman(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{3*time.Minute + 20*time.Second, "3m 20s"},
		{2*time.Hour + 1*time.Minute, "2h 1m 0s"},
		{26*time.Hour + 5*time.Second, "1d 2h 0m 5s"},
	}

	for _, tt := range tests {
		if got := formatUptimeHuman(tt.d); got != tt.want {
			t.Errorf("formatUptimeHuman(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
