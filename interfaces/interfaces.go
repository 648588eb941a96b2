// Package interfaces defines core abstractions for the formulary API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/formulary-api/entities"
)

// NameScore pairs a stored drug name with an approximate-match score.
type NameScore struct {
	Name  string
	Score int
}

// StorageReader defines the read contract against the drugs table.
// All methods are safe for concurrent use.
type StorageReader interface {
	// FetchAllDrugNames returns every stored drug name, deduplicated.
	FetchAllDrugNames(ctx context.Context) ([]string, error)

	// FetchByNameExact returns every category row for a drug by
	// case-insensitive exact name match.
	FetchByNameExact(ctx context.Context, name string) ([]entities.DrugRecord, error)

	// FetchByCategories returns every row belonging to any of the
	// given categories.
	FetchByCategories(ctx context.Context, categories []string) ([]entities.DrugRecord, error)

	// FetchByFilters returns every row matching all set filters.
	FetchByFilters(ctx context.Context, filters entities.FilterSet) ([]entities.DrugRecord, error)

	// FetchDistinctCategories returns the sorted set of known categories.
	FetchDistinctCategories(ctx context.Context) ([]string, error)

	// ApproximateSearch returns up to limit stored names resembling
	// the given text, best first.
	ApproximateSearch(ctx context.Context, text string, limit int) ([]NameScore, error)
}

// StorageWriter defines the ingestion contract.
type StorageWriter interface {
	// EnsureSchema creates the drugs table and its indexes if missing.
	EnsureSchema(ctx context.Context) error

	// UpsertRecords writes records in bulk, replacing rows that share
	// the same (drug_name, category) key.
	UpsertRecords(ctx context.Context, records []entities.DrugRecord) (int, error)
}

// Catalog defines the contract for the in-memory drug name catalog.
// It provides lock-free reads with atomic swaps for zero-downtime
// refreshes.
type Catalog interface {
	GetDrugNames() []string
	GetCategories() []string
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(drugNames []string, categories []string)
	BeginUpdate() bool
	EndUpdate()
}

// IntentExtractor is the external fallback used when rule-based parsing
// is not confident enough. A nil intent with a nil error means the
// collaborator declined to answer.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, queryText string, drugNames []string, categories []string) (*entities.FallbackIntent, error)
}

// AnswerGenerator turns aggregated results into a natural-language
// answer. Implementations must never introduce drug names absent from
// results.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, queryText string, queryType entities.QueryType, results []entities.DrugMatch, notice string) (string, error)
}

// Scheduler defines the contract for job scheduling and health
// monitoring. It manages automated catalog refreshes.
type Scheduler interface {
	Start() error
	Stop()
}

// QueryValidator defines the contract for user input validation.
type QueryValidator interface {
	ValidateQuery(queryText string) error
	ValidateDrugNameParam(name string) error
}

// HTTPHandler defines the contract for the API endpoints.
type HTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	HandleSearch(w http.ResponseWriter, r *http.Request)
	HandleDrugStatus(w http.ResponseWriter, r *http.Request)
	HandleAlternatives(w http.ResponseWriter, r *http.Request)
	HandleFilter(w http.ResponseWriter, r *http.Request)
	HandleAutocomplete(w http.ResponseWriter, r *http.Request)
	HandleSuggestions(w http.ResponseWriter, r *http.Request)
	HandleCategories(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
