package server

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/giygas/formulary-api/config"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"Root endpoint", "/", 1},
		{"Health endpoint", "/health", 1},
		{"Metrics endpoint", "/metrics", 1},
		{"Categories endpoint", "/api/categories", 2},
		{"Search endpoint", "/api/search", 20},
		{"Filter endpoint", "/api/filter", 10},
		{"Autocomplete endpoint", "/api/autocomplete", 2},
		{"Drug status lookup", "/api/drug/keytruda", 5},
		{"Alternatives lookup", "/api/alternatives/humira", 10},
		{"Suggestions lookup", "/api/suggestions/ketruda", 5},

		// Default case
		{"Unknown endpoint", "/unknown", 5},
		{"Root path", "/", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			cost := getTokenCost(req)

			if cost != tt.expectedCost {
				t.Errorf("Expected cost %d for path %s, got %d", tt.expectedCost, tt.path, cost)
			}
		})
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		required   bool
		path       string
		sentKey    string
		wantStatus int
	}{
		{"Disabled passes without key", false, "/api/search", "", http.StatusOK},
		{"Missing key rejected", true, "/api/search", "", http.StatusUnauthorized},
		{"Wrong key rejected", true, "/api/search", "wrong-key", http.StatusForbidden},
		{"Correct key accepted", true, "/api/search", "secret-key", http.StatusOK},
		{"Health bypasses auth", true, "/health", "", http.StatusOK},
		{"Metrics bypasses auth", true, "/metrics", "", http.StatusOK},
		{"Root bypasses auth", true, "/", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				RequireAPIKey: tt.required,
				APIKey:        "secret-key",
			}
			handler := APIKeyMiddleware(cfg)(ok)

			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.sentKey != "" {
				req.Header.Set("X-API-Key", tt.sentKey)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestClientKey(t *testing.T) {
	withKey := httptest.NewRequest("GET", "/health", nil)
	withKey.Header.Set("X-API-Key", "abc123")
	if got := clientKey(withKey); got != "key:abc123" {
		t.Errorf("clientKey() = %q, want key:abc123", got)
	}

	withoutKey := httptest.NewRequest("GET", "/health", nil)
	withoutKey.RemoteAddr = "10.0.0.1:1234"
	if got := clientKey(withoutKey); got != "ip:10.0.0.1:1234" {
		t.Errorf("clientKey() = %q, want ip:10.0.0.1:1234", got)
	}
}

func TestRateLimiterBlocksAfterCapacity(t *testing.T) {
	rl := NewRateLimiter(0.001, 25)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// /api/search costs 20 tokens, so the second request exceeds the
	// 25-token budget.
	req := httptest.NewRequest("POST", "/api/search", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(0.001, 25)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest("POST", "/api/search", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client not limited: %d", rec.Code)
	}

	// A different client has its own budget.
	second := httptest.NewRequest("POST", "/api/search", nil)
	second.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Errorf("second client status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterSetsHeaders(t *testing.T) {
	rl := NewRateLimiter(10, 100)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-RateLimit-Limit"); got != "100" {
		t.Errorf("X-RateLimit-Limit = %q, want 100", got)
	}
	remaining, err := strconv.Atoi(rec.Header().Get("X-RateLimit-Remaining"))
	if err != nil || remaining >= 100 {
		t.Errorf("X-RateLimit-Remaining = %q, want numeric below 100", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRequestSizeMiddlewareRejectsLargeBody(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 64, MaxHeaderSize: 4096}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(strings.Repeat("x", 200)))
	req.Header.Set("Content-Length", "200")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRequestSizeMiddlewareRejectsLargeHeaders(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 1024, MaxHeaderSize: 32}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Big-Header", strings.Repeat("v", 100))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestHeaderFieldsTooLarge {
		t.Errorf("status = %d, want 431", rec.Code)
	}
}

func TestRealIPMiddleware(t *testing.T) {
	var seen string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "203.0.113.7" {
		t.Errorf("RemoteAddr = %q, want first X-Forwarded-For entry", seen)
	}
}
