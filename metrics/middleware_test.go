package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareLabelsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/api/drug/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	counter := HTTPRequestTotals.WithLabelValues("GET", "/api/drug/{name}", "200")
	before := testutil.ToFloat64(counter)

	for _, name := range []string{"keytruda", "humira"} {
		req := httptest.NewRequest("GET", "/api/drug/"+name, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}

	// Both drugs must land on the same series, keyed by the route
	// pattern rather than the concrete path.
	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Errorf("request counter = %v, want %v", got, before+2)
	}
}

func TestMetricsMiddlewareRecordsErrorStatus(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Post("/api/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	counter := HTTPRequestTotals.WithLabelValues("POST", "/api/search", "400")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest("POST", "/api/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("request counter = %v, want %v", got, before+1)
	}
}
