// Package storage implements the Postgres access layer for the drugs
// table using a pgx connection pool. One row per (drug_name, category)
// pair; drugs outside every category keep a single row with an empty
// category.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/giygas/formulary-api/entities"
	"github.com/giygas/formulary-api/interfaces"
	"github.com/giygas/formulary-api/query"
)

// Compile-time checks
var (
	_ interfaces.StorageReader = (*Store)(nil)
	_ interfaces.StorageWriter = (*Store)(nil)
)

const drugColumns = "drug_name, category, drug_status, hcpcs, manufacturer, pa_mnd_required, notes"

// Store wraps a pgx pool with the drug table reads and writes.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool against databaseURL and verifies it
// with a ping.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies database connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// FetchAllDrugNames returns every distinct stored drug name.
func (s *Store) FetchAllDrugNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT drug_name FROM drugs ORDER BY drug_name")
	if err != nil {
		return nil, fmt.Errorf("fetch drug names: %w", err)
	}
	defer rows.Close()

	return collectStrings(rows)
}

// FetchByNameExact returns every category row for a drug, matched
// case-insensitively on the exact name.
func (s *Store) FetchByNameExact(ctx context.Context, name string) ([]entities.DrugRecord, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+drugColumns+" FROM drugs WHERE LOWER(drug_name) = LOWER($1) ORDER BY category",
		name)
	if err != nil {
		return nil, fmt.Errorf("fetch drug by name: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FetchByCategories returns every row in any of the given categories.
func (s *Store) FetchByCategories(ctx context.Context, categories []string) ([]entities.DrugRecord, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+drugColumns+" FROM drugs WHERE category = ANY($1) ORDER BY drug_name, category",
		categories)
	if err != nil {
		return nil, fmt.Errorf("fetch drugs by categories: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FetchByFilters returns every row matching all set filters.
func (s *Store) FetchByFilters(ctx context.Context, filters entities.FilterSet) ([]entities.DrugRecord, error) {
	sql, args := buildFilterQuery(filters)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch drugs by filters: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FetchDistinctCategories returns the sorted set of known categories.
func (s *Store) FetchDistinctCategories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT DISTINCT category FROM drugs WHERE category <> '' ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	defer rows.Close()

	return collectStrings(rows)
}

// ApproximateSearch finds stored names resembling text without loading
// the full catalog: a case-insensitive substring query narrows the
// candidates and scoring happens client-side, exact matches first,
// then prefix matches, then substring hits weighted by coverage and
// position.
func (s *Store) ApproximateSearch(ctx context.Context, text string, limit int) ([]interfaces.NameScore, error) {
	needle := strings.TrimSpace(text)
	if needle == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		"SELECT DISTINCT drug_name FROM drugs WHERE drug_name ILIKE '%' || $1 || '%'",
		needle)
	if err != nil {
		return nil, fmt.Errorf("approximate search: %w", err)
	}
	defer rows.Close()

	names, err := collectStrings(rows)
	if err != nil {
		return nil, err
	}

	scored := make([]interfaces.NameScore, 0, len(names))
	for _, name := range names {
		if score := scoreApproximate(needle, name); score > 0 {
			scored = append(scored, interfaces.NameScore{Name: name, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// scoreApproximate rates how well a stored name matches the searched
// text on the tiered 0-100 scale: 100 exact, 90 prefix, and a 60-89
// band for substring hits where longer coverage and earlier position
// score higher.
func scoreApproximate(text, name string) int {
	normText := query.NormalizeName(text)
	normName := query.NormalizeName(name)
	if normText == "" || normName == "" {
		return 0
	}

	if normName == normText {
		return 100
	}
	if strings.HasPrefix(normName, normText) {
		return 90
	}

	idx := strings.Index(normName, normText)
	if idx < 0 {
		return 0
	}

	coverage := float64(len(normText)) / float64(len(normName))
	position := 1 - float64(idx)/float64(len(normName))
	return 60 + int(29*coverage*position)
}

// buildFilterQuery translates a FilterSet into SQL. Status and PA/MND
// match exactly, category and manufacturer are case-insensitive
// substring matches, HCPCS is a case-insensitive exact match, and a
// manufacturer mentioning "generic" matches the literal Generic
// manufacturer instead.
func buildFilterQuery(filters entities.FilterSet) (string, []any) {
	var conditions []string
	var args []any

	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.DrugStatus != "" {
		conditions = append(conditions, "drug_status = "+arg(string(filters.DrugStatus)))
	}
	if filters.PAMNDRequired != "" {
		conditions = append(conditions, "pa_mnd_required = "+arg(string(filters.PAMNDRequired)))
	}
	if filters.Category != "" {
		conditions = append(conditions, "LOWER(category) LIKE LOWER("+arg("%"+filters.Category+"%")+")")
	}
	if filters.HCPCS != "" {
		conditions = append(conditions, "LOWER(hcpcs) = LOWER("+arg(filters.HCPCS)+")")
	}
	if filters.Manufacturer != "" {
		if strings.Contains(strings.ToLower(filters.Manufacturer), "generic") {
			conditions = append(conditions, "LOWER(manufacturer) = 'generic'")
		} else {
			conditions = append(conditions, "LOWER(manufacturer) LIKE LOWER("+arg("%"+filters.Manufacturer+"%")+")")
		}
	}

	sql := "SELECT " + drugColumns + " FROM drugs"
	if len(conditions) > 0 {
		sql += " WHERE " + strings.Join(conditions, " AND ")
	}
	sql += " ORDER BY drug_name, category"

	return sql, args
}

func collectRecords(rows pgx.Rows) ([]entities.DrugRecord, error) {
	var records []entities.DrugRecord
	for rows.Next() {
		var r entities.DrugRecord
		if err := rows.Scan(&r.DrugName, &r.Category, &r.DrugStatus, &r.HCPCS, &r.Manufacturer, &r.PAMNDRequired, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan drug row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read drug rows: %w", err)
	}
	return records, nil
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return values, nil
}
