package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/formulary-api/entities"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", "test-model", RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond})
	c.baseURL = srv.URL
	return c
}

func completionBody(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

func TestClientRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, completionBody("ok"))
	})

	got, err := c.Complete(context.Background(), "hello", 0, 100)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Complete() = %q, want %q", got, "ok")
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestClientExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.Complete(context.Background(), "hello", 0, 100); err == nil {
		t.Fatal("Complete() succeeded, want error after exhausted retries")
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestClientSendsAuthHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		fmt.Fprint(w, completionBody("ok"))
	})

	if _, err := c.Complete(context.Background(), "hello", 0, 100); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestExtractIntentWhitelistsFilters(t *testing.T) {
	raw := `Here is the parse:
{"query_type": "list_filter", "drug_name": "", "filters": {"drug_status": "Non-Preferred", "pa_mnd_required": "maybe", "category": "oncology"}}
Done.`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionBody(raw))
	})
	svc := NewIntentService(c)

	intent, err := svc.ExtractIntent(context.Background(), "show oncology drugs", []string{"Keytruda"}, []string{"oncology"})
	if err != nil {
		t.Fatalf("ExtractIntent() error = %v", err)
	}

	if intent.QueryType != entities.QueryTypeListFilter {
		t.Errorf("QueryType = %q, want list_filter", intent.QueryType)
	}
	if intent.Filters.DrugStatus != entities.StatusNonPreferred {
		t.Errorf("DrugStatus = %q, want non_preferred", intent.Filters.DrugStatus)
	}
	if intent.Filters.PAMNDRequired != "" {
		t.Errorf("invalid pa_mnd_required kept: %q", intent.Filters.PAMNDRequired)
	}
	if intent.Filters.Category != "oncology" {
		t.Errorf("Category = %q, want oncology", intent.Filters.Category)
	}
	if intent.Confidence != fallbackConfidence {
		t.Errorf("Confidence = %d, want %d", intent.Confidence, fallbackConfidence)
	}
}

func TestExtractIntentRejectsUnknownQueryType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionBody(`{"query_type": "chitchat", "drug_name": "", "filters": {}}`))
	})
	svc := NewIntentService(c)

	if _, err := svc.ExtractIntent(context.Background(), "hi there", nil, nil); err == nil {
		t.Fatal("ExtractIntent() accepted an unknown query type")
	}
}

func TestParseIntentJSONRequiresObject(t *testing.T) {
	if _, err := parseIntentJSON("sorry, I cannot parse that"); err == nil {
		t.Fatal("parseIntentJSON() accepted output without a JSON object")
	}
}

func TestGenerateAnswerFallsBackOnModelFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	svc := NewAnswerService(c)

	results := []entities.DrugMatch{
		{Drug: entities.Drug{DrugName: "Keytruda", DrugStatus: entities.StatusPreferred, Categories: []string{"oncology"}}},
	}
	answer, err := svc.GenerateAnswer(context.Background(), "is keytruda covered", entities.QueryTypeDrugStatus, results, "")
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if !strings.Contains(answer, "Keytruda is a preferred drug") {
		t.Errorf("fallback answer = %q", answer)
	}
}

func TestGenerateAnswerReturnsNoticeVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("model should not be called when a notice is present")
	})
	svc := NewAnswerService(c)

	answer, err := svc.GenerateAnswer(context.Background(), "what about it", entities.QueryTypeDrugStatus, nil, "could not identify drug name")
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "could not identify drug name" {
		t.Errorf("answer = %q", answer)
	}
}

func TestFormatAnswerFallbackEmpty(t *testing.T) {
	got := FormatAnswerFallback(entities.QueryTypeListFilter, nil)
	want := "I could not find any drugs matching your query in the provided lists."
	if got != want {
		t.Errorf("FormatAnswerFallback() = %q, want %q", got, want)
	}
}

func TestFormatAnswerFallbackAlternatives(t *testing.T) {
	results := []entities.DrugMatch{
		{Drug: entities.Drug{DrugName: "Humira", Categories: []string{"immunology"}}},
		{Drug: entities.Drug{DrugName: "Enbrel", Categories: []string{"immunology"}}},
	}
	got := FormatAnswerFallback(entities.QueryTypeAlternatives, results)

	if !strings.HasPrefix(got, "Found 2 preferred alternative(s):") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "- Humira (immunology)") {
		t.Errorf("missing alternative line: %q", got)
	}
}

func TestFormatAnswerFallbackListSummarizesLargeSets(t *testing.T) {
	var results []entities.DrugMatch
	for i := 0; i < 15; i++ {
		results = append(results, entities.DrugMatch{
			Drug: entities.Drug{DrugName: fmt.Sprintf("Drug%02d", i), DrugStatus: entities.StatusPreferred},
		})
	}
	got := FormatAnswerFallback(entities.QueryTypeListFilter, results)

	if !strings.HasPrefix(got, "Found 15 matching drugs. First 10:") {
		t.Errorf("missing summary header: %q", got)
	}
	if strings.Count(got, "- Drug") != 10 {
		t.Errorf("listed %d drugs, want 10: %q", strings.Count(got, "- Drug"), got)
	}
}

func TestFormatAnswerFallbackMarksPAMND(t *testing.T) {
	results := []entities.DrugMatch{
		{Drug: entities.Drug{DrugName: "Keytruda", DrugStatus: entities.StatusPreferred, PAMNDRequired: entities.PAMNDYes}},
	}
	got := FormatAnswerFallback(entities.QueryTypeListFilter, results)
	if !strings.Contains(got, "(PA/MND required)") {
		t.Errorf("missing PA/MND marker: %q", got)
	}
}
