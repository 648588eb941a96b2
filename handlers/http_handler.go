// Package handlers provides HTTP request handlers for the formulary API
// endpoints. It implements the HTTPHandler interface with dependency
// injection.
package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/formulary-api/entities"
	"github.com/giygas/formulary-api/interfaces"
	"github.com/giygas/formulary-api/logging"
	"github.com/giygas/formulary-api/query"
)

// Compile-time check
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

const (
	defaultAutocompleteLimit = 10
	maxAutocompleteLimit     = 50
	suggestionLimit          = 5
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	catalog   interfaces.Catalog
	store     interfaces.StorageReader
	resolver  *query.Resolver
	executor  *query.Executor
	answers   interfaces.AnswerGenerator // nil disables answer generation
	validator interfaces.QueryValidator
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	catalog interfaces.Catalog,
	store interfaces.StorageReader,
	resolver *query.Resolver,
	executor *query.Executor,
	answers interfaces.AnswerGenerator,
	validator interfaces.QueryValidator,
) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		catalog:   catalog,
		store:     store,
		resolver:  resolver,
		executor:  executor,
		answers:   answers,
		validator: validator,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// This is a placeholder - the actual routing is handled by chi
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the envelope every query endpoint answers with.
type QueryResponse struct {
	Query       string                `json:"query,omitempty"`
	Intent      entities.ParsedIntent `json:"intent"`
	Results     []entities.DrugMatch  `json:"results"`
	Notice      string                `json:"notice,omitempty"`
	Answer      string                `json:"answer,omitempty"`
	Suggestions []string              `json:"suggestions,omitempty"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// HandleSearch runs the full query pipeline: validate, parse, execute,
// and optionally phrase an answer over the results.
func (h *HTTPHandlerImpl) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validator.ValidateQuery(req.Query); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	intent := h.resolver.Parse(r.Context(), req.Query)

	result, err := h.executor.Execute(r.Context(), intent)
	if err != nil {
		logging.Error("Query execution failed", "query", req.Query, "error", err)
		h.RespondWithError(w, http.StatusServiceUnavailable, "Drug data is temporarily unavailable")
		return
	}

	response := QueryResponse{
		Query:       req.Query,
		Intent:      intent,
		Results:     result.Matches,
		Notice:      result.Notice,
		Suggestions: intent.Suggestions,
	}

	if h.answers != nil {
		answer, err := h.answers.GenerateAnswer(r.Context(), req.Query, intent.QueryType, result.Matches, result.Notice)
		if err != nil {
			logging.Warn("Answer generation failed", "error", err)
		} else {
			response.Answer = answer
		}
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// HandleDrugStatus answers GET /api/drug/{name} without going through
// query parsing: the name is taken literally, with one fuzzy retry.
func (h *HTTPHandlerImpl) HandleDrugStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateDrugNameParam(name); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	intent := entities.ParsedIntent{
		QueryType:      entities.QueryTypeDrugStatus,
		Confidence:     100,
		DrugName:       name,
		DrugConfidence: 100,
		Method:         entities.MethodRuleBased,
	}

	result, err := h.executor.Execute(r.Context(), intent)
	if err != nil {
		logging.Error("Drug status lookup failed", "name", name, "error", err)
		h.RespondWithError(w, http.StatusServiceUnavailable, "Drug data is temporarily unavailable")
		return
	}
	if len(result.Matches) == 0 {
		h.RespondWithError(w, http.StatusNotFound, "Drug not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, QueryResponse{Intent: intent, Results: result.Matches})
}

// HandleAlternatives answers GET /api/alternatives/{name}. The optional
// status query parameter narrows results to one formulary status.
func (h *HTTPHandlerImpl) HandleAlternatives(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateDrugNameParam(name); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	filters := entities.FilterSet{}
	if status := r.URL.Query().Get("status"); status != "" {
		parsed := entities.DrugStatus(status)
		if !entities.ValidDrugStatus(parsed) {
			h.RespondWithError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filters.DrugStatus = parsed
	}

	intent := entities.ParsedIntent{
		QueryType:      entities.QueryTypeAlternatives,
		Confidence:     100,
		DrugName:       name,
		DrugConfidence: 100,
		Filters:        filters,
		Method:         entities.MethodRuleBased,
	}

	result, err := h.executor.Execute(r.Context(), intent)
	if err != nil {
		logging.Error("Alternatives lookup failed", "name", name, "error", err)
		h.RespondWithError(w, http.StatusServiceUnavailable, "Drug data is temporarily unavailable")
		return
	}

	// An empty result set still answers 200: the drug may exist with no
	// alternatives in its categories.
	h.RespondWithJSON(w, http.StatusOK, QueryResponse{Intent: intent, Results: result.Matches})
}

// HandleFilter answers POST /api/filter with a structured FilterSet
// body, bypassing natural-language parsing.
func (h *HTTPHandlerImpl) HandleFilter(w http.ResponseWriter, r *http.Request) {
	var filters entities.FilterSet
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if filters.DrugStatus != "" && !entities.ValidDrugStatus(filters.DrugStatus) {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid drug_status filter")
		return
	}
	if filters.PAMNDRequired != "" && !entities.ValidPAMND(filters.PAMNDRequired) {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid pa_mnd_required filter")
		return
	}

	intent := entities.ParsedIntent{
		QueryType:  entities.QueryTypeListFilter,
		Confidence: 100,
		Filters:    filters,
		Method:     entities.MethodRuleBased,
	}

	result, err := h.executor.Execute(r.Context(), intent)
	if err != nil {
		logging.Error("Filter listing failed", "error", err)
		h.RespondWithError(w, http.StatusServiceUnavailable, "Drug data is temporarily unavailable")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, QueryResponse{Intent: intent, Results: result.Matches})
}

// HandleAutocomplete completes a drug name prefix from the catalog.
func (h *HTTPHandlerImpl) HandleAutocomplete(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	if prefix == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing q parameter")
		return
	}

	limit := defaultAutocompleteLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.RespondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		if parsed > maxAutocompleteLimit {
			parsed = maxAutocompleteLimit
		}
		limit = parsed
	}

	completions := query.Autocomplete(prefix, h.catalog.GetDrugNames(), limit)
	if completions == nil {
		completions = []string{}
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"prefix":      prefix,
		"completions": completions,
	})
}

// HandleSuggestions returns "did you mean" drug names for a probable
// misspelling.
func (h *HTTPHandlerImpl) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	text := chi.URLParam(r, "query")
	if err := h.validator.ValidateDrugNameParam(text); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	scored := query.SuggestCorrections(text, h.catalog.GetDrugNames(), query.DefaultMatchThreshold, suggestionLimit)

	suggestions := make([]map[string]interface{}, 0, len(scored))
	for _, s := range scored {
		suggestions = append(suggestions, map[string]interface{}{
			"name":  s.Name,
			"score": s.Score,
		})
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":       text,
		"suggestions": suggestions,
	})
}

// HandleCategories lists the known therapeutic categories.
func (h *HTTPHandlerImpl) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.catalog.GetCategories()
	if categories == nil {
		categories = []string{}
	}
	h.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

// HealthResponseImpl defines the structure for consistent JSON ordering
type HealthResponseImpl struct {
	Status        string                 `json:"status"`
	LastUpdate    string                 `json:"last_update"`
	DataAgeHours  float64                `json:"data_age_hours"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Data          map[string]interface{} `json:"data"`
	System        map[string]interface{} `json:"system"`
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	// Get memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.catalog.GetServerStartTime())

	drugNames := h.catalog.GetDrugNames()
	categories := h.catalog.GetCategories()
	lastUpdate := h.catalog.GetLastUpdated()
	isUpdating := h.catalog.IsUpdating()
	dataAge := time.Since(lastUpdate)

	// Determine health status based on data availability and age
	var healthStatus string
	var httpStatus int
	switch {
	case len(drugNames) == 0:
		healthStatus = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case dataAge > 24*time.Hour:
		healthStatus = "degraded"
		httpStatus = http.StatusOK
	default:
		healthStatus = "healthy"
		httpStatus = http.StatusOK
	}

	response := HealthResponseImpl{
		Status:        healthStatus,
		LastUpdate:    lastUpdate.Format(time.RFC3339),
		DataAgeHours:  dataAge.Hours(),
		UptimeSeconds: uptime.Seconds(),
		Data: map[string]interface{}{
			"api_version": "1.0",
			"drugs":       len(drugNames),
			"categories":  len(categories),
			"is_updating": isUpdating,
		},
		System: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
