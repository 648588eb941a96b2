package query

import (
	"context"
	"fmt"

	"github.com/giygas/formulary-api/entities"
	"github.com/giygas/formulary-api/interfaces"
)

// NoticeNoDrugName is surfaced when a query structurally requires a
// drug name that could not be resolved. It is a displayable terminal
// outcome, not an error.
const NoticeNoDrugName = "could not identify drug name"

// NoticeDrugNotFound is surfaced when the named drug is absent from
// storage even after the fuzzy retry.
const NoticeDrugNotFound = "no drug found matching the query"

// ExecResult is the outcome of executing a parsed intent: zero or more
// aggregated drugs plus an optional caller-visible notice.
type ExecResult struct {
	Matches []entities.DrugMatch `json:"matches"`
	Notice  string               `json:"notice,omitempty"`
}

// Executor dispatches a parsed intent to the appropriate storage read
// and aggregates the resulting rows. It never mutates storage; storage
// faults propagate as errors while empty results stay errors-free.
type Executor struct {
	store   interfaces.StorageReader
	catalog interfaces.Catalog
}

// NewExecutor creates an Executor backed by the given storage reader
// and name catalog.
func NewExecutor(store interfaces.StorageReader, catalog interfaces.Catalog) *Executor {
	return &Executor{store: store, catalog: catalog}
}

// Execute runs the storage reads for intent and returns aggregated
// results.
func (e *Executor) Execute(ctx context.Context, intent entities.ParsedIntent) (ExecResult, error) {
	switch intent.QueryType {
	case entities.QueryTypeDrugStatus:
		return e.executeDrugStatus(ctx, intent)
	case entities.QueryTypeAlternatives:
		return e.executeAlternatives(ctx, intent)
	case entities.QueryTypeListFilter:
		return e.executeListFilter(ctx, intent)
	}
	return ExecResult{}, fmt.Errorf("unknown query type %q", intent.QueryType)
}

func (e *Executor) executeDrugStatus(ctx context.Context, intent entities.ParsedIntent) (ExecResult, error) {
	if intent.DrugName == "" {
		return ExecResult{Notice: NoticeNoDrugName}, nil
	}

	rows, provenance, err := e.lookupDrug(ctx, intent.DrugName)
	if err != nil {
		return ExecResult{}, err
	}
	if len(rows) == 0 {
		return ExecResult{Notice: NoticeDrugNotFound}, nil
	}

	drugs := AggregateRows(rows, false)
	matches := make([]entities.DrugMatch, 0, len(drugs))
	for _, drug := range drugs {
		matches = append(matches, entities.DrugMatch{Drug: drug, Provenance: provenance})
	}
	return ExecResult{Matches: matches}, nil
}

func (e *Executor) executeAlternatives(ctx context.Context, intent entities.ParsedIntent) (ExecResult, error) {
	if intent.DrugName == "" {
		return ExecResult{Notice: NoticeNoDrugName}, nil
	}

	sourceRows, _, err := e.lookupDrug(ctx, intent.DrugName)
	if err != nil {
		return ExecResult{}, err
	}
	if len(sourceRows) == 0 {
		return ExecResult{Notice: NoticeDrugNotFound}, nil
	}

	sourceName := sourceRows[0].DrugName
	var categories []string
	seen := make(map[string]struct{})
	for _, row := range sourceRows {
		if row.Category == "" {
			continue
		}
		if _, dup := seen[row.Category]; dup {
			continue
		}
		seen[row.Category] = struct{}{}
		categories = append(categories, row.Category)
	}
	if len(categories) == 0 {
		return ExecResult{}, nil
	}

	rows, err := e.store.FetchByCategories(ctx, categories)
	if err != nil {
		return ExecResult{}, err
	}

	var kept []entities.DrugRecord
	for _, row := range rows {
		if row.DrugName == sourceName {
			continue
		}
		kept = append(kept, row)
	}

	var matches []entities.DrugMatch
	for _, drug := range AggregateRows(kept, false) {
		if intent.Filters.DrugStatus != "" && drug.DrugStatus != intent.Filters.DrugStatus {
			continue
		}
		matches = append(matches, entities.DrugMatch{Drug: drug})
	}
	return ExecResult{Matches: matches}, nil
}

func (e *Executor) executeListFilter(ctx context.Context, intent entities.ParsedIntent) (ExecResult, error) {
	if intent.Filters.HasPreferredAlternative {
		return e.executePreferredAlternativeListing(ctx, intent.Filters)
	}

	rows, err := e.store.FetchByFilters(ctx, intent.Filters)
	if err != nil {
		return ExecResult{}, err
	}

	var matches []entities.DrugMatch
	for _, drug := range AggregateRows(rows, true) {
		matches = append(matches, entities.DrugMatch{Drug: drug})
	}
	return ExecResult{Matches: matches}, nil
}

// executePreferredAlternativeListing handles the "non-preferred drugs
// that have a preferred alternative" listing: non-preferred drugs whose
// category set intersects the categories containing at least one
// preferred drug. Any other status filter is ignored for this shape.
func (e *Executor) executePreferredAlternativeListing(ctx context.Context, filters entities.FilterSet) (ExecResult, error) {
	nonPrefFilters := filters
	nonPrefFilters.DrugStatus = entities.StatusNonPreferred
	nonPrefFilters.HasPreferredAlternative = false

	nonPrefRows, err := e.store.FetchByFilters(ctx, nonPrefFilters)
	if err != nil {
		return ExecResult{}, err
	}

	prefRows, err := e.store.FetchByFilters(ctx, entities.FilterSet{DrugStatus: entities.StatusPreferred})
	if err != nil {
		return ExecResult{}, err
	}

	preferredCategories := make(map[string]struct{})
	for _, row := range prefRows {
		if row.Category != "" {
			preferredCategories[row.Category] = struct{}{}
		}
	}

	var matches []entities.DrugMatch
	for _, drug := range AggregateRows(nonPrefRows, true) {
		for _, category := range drug.Categories {
			if _, ok := preferredCategories[category]; ok {
				matches = append(matches, entities.DrugMatch{Drug: drug})
				break
			}
		}
	}
	return ExecResult{Matches: matches}, nil
}

// lookupDrug fetches a drug's rows by exact case-insensitive name, and
// on a miss retries once through the fuzzy matcher against the full
// catalog. A fuzzy hit is tagged with match provenance.
func (e *Executor) lookupDrug(ctx context.Context, name string) ([]entities.DrugRecord, *entities.MatchProvenance, error) {
	rows, err := e.store.FetchByNameExact(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) > 0 {
		return rows, nil, nil
	}

	matched, confidence := MatchName(name, e.catalog.GetDrugNames(), DefaultMatchThreshold)
	if matched == "" {
		return nil, nil, nil
	}

	rows, err = e.store.FetchByNameExact(ctx, matched)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows, &entities.MatchProvenance{Confidence: confidence, OriginalQuery: name}, nil
}
