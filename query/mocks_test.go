package query

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/giygas/formulary-api/entities"
	"github.com/giygas/formulary-api/interfaces"
)

// mockCatalog implements interfaces.Catalog over fixed slices.
type mockCatalog struct {
	names      []string
	categories []string
}

func (m *mockCatalog) GetDrugNames() []string { return m.names }

func (m *mockCatalog) GetCategories() []string { return m.categories }

func (m *mockCatalog) GetLastUpdated() time.Time { return time.Time{} }

func (m *mockCatalog) IsUpdating() bool { return false }

func (m *mockCatalog) GetServerStartTime() time.Time { return time.Time{} }

func (m *mockCatalog) BeginUpdate() bool { return true }

func (m *mockCatalog) EndUpdate() {}
func (m *mockCatalog) UpdateData(names, cats []string) {
	m.names = names
	m.categories = cats
}

// mockStore implements interfaces.StorageReader over an in-memory row
// set, with a scripted ApproximateSearch result.
type mockStore struct {
	rows      []entities.DrugRecord
	approx    []interfaces.NameScore
	approxErr error
}

func (m *mockStore) FetchAllDrugNames(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, row := range m.rows {
		if _, dup := seen[row.DrugName]; !dup {
			seen[row.DrugName] = struct{}{}
			names = append(names, row.DrugName)
		}
	}
	return names, nil
}

func (m *mockStore) FetchByNameExact(ctx context.Context, name string) ([]entities.DrugRecord, error) {
	var rows []entities.DrugRecord
	for _, row := range m.rows {
		if strings.EqualFold(row.DrugName, name) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *mockStore) FetchByCategories(ctx context.Context, categories []string) ([]entities.DrugRecord, error) {
	want := make(map[string]struct{})
	for _, c := range categories {
		want[c] = struct{}{}
	}
	var rows []entities.DrugRecord
	for _, row := range m.rows {
		if _, ok := want[row.Category]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *mockStore) FetchByFilters(ctx context.Context, filters entities.FilterSet) ([]entities.DrugRecord, error) {
	var rows []entities.DrugRecord
	for _, row := range m.rows {
		if filters.DrugStatus != "" && row.DrugStatus != filters.DrugStatus {
			continue
		}
		if filters.PAMNDRequired != "" && row.PAMNDRequired != filters.PAMNDRequired {
			continue
		}
		if filters.Category != "" && !strings.Contains(strings.ToLower(row.Category), strings.ToLower(filters.Category)) {
			continue
		}
		if filters.HCPCS != "" && !strings.EqualFold(row.HCPCS, filters.HCPCS) {
			continue
		}
		if filters.Manufacturer != "" {
			if strings.Contains(strings.ToLower(filters.Manufacturer), "generic") {
				if !strings.EqualFold(row.Manufacturer, "generic") {
					continue
				}
			} else if !strings.Contains(strings.ToLower(row.Manufacturer), strings.ToLower(filters.Manufacturer)) {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *mockStore) FetchDistinctCategories(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var categories []string
	for _, row := range m.rows {
		if row.Category == "" {
			continue
		}
		if _, dup := seen[row.Category]; !dup {
			seen[row.Category] = struct{}{}
			categories = append(categories, row.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *mockStore) ApproximateSearch(ctx context.Context, text string, limit int) ([]interfaces.NameScore, error) {
	if m.approxErr != nil {
		return nil, m.approxErr
	}
	if len(m.approx) > limit {
		return m.approx[:limit], nil
	}
	return m.approx, nil
}

// mockIntents implements interfaces.IntentExtractor with a scripted
// response.
type mockIntents struct {
	intent *entities.FallbackIntent
	err    error
	calls  int
}

func (m *mockIntents) ExtractIntent(ctx context.Context, queryText string, drugNames []string, categories []string) (*entities.FallbackIntent, error) {
	m.calls++
	return m.intent, m.err
}
