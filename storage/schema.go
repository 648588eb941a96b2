package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/giygas/formulary-api/entities"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS drugs (
	drug_name       TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	drug_status     TEXT NOT NULL,
	hcpcs           TEXT NOT NULL DEFAULT '',
	manufacturer    TEXT NOT NULL DEFAULT '',
	pa_mnd_required TEXT NOT NULL DEFAULT 'unknown',
	notes           TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (drug_name, category)
)`

var createIndexSQL = []string{
	"CREATE INDEX IF NOT EXISTS idx_drugs_name_lower ON drugs (LOWER(drug_name))",
	"CREATE INDEX IF NOT EXISTS idx_drugs_category ON drugs (category)",
	"CREATE INDEX IF NOT EXISTS idx_drugs_status ON drugs (drug_status)",
}

const upsertSQL = `
INSERT INTO drugs (drug_name, category, drug_status, hcpcs, manufacturer, pa_mnd_required, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (drug_name, category) DO UPDATE SET
	drug_status     = EXCLUDED.drug_status,
	hcpcs           = EXCLUDED.hcpcs,
	manufacturer    = EXCLUDED.manufacturer,
	pa_mnd_required = EXCLUDED.pa_mnd_required,
	notes           = EXCLUDED.notes`

// EnsureSchema creates the drugs table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create drugs table: %w", err)
	}
	for _, sql := range createIndexSQL {
		if _, err := s.pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// UpsertRecords writes records in one batch, replacing rows that share
// the same (drug_name, category) key. Returns the number of rows
// written.
func (s *Store) UpsertRecords(ctx context.Context, records []entities.DrugRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(upsertSQL, r.DrugName, r.Category, string(r.DrugStatus), r.HCPCS, r.Manufacturer, string(r.PAMNDRequired), r.Notes)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range records {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("upsert drug row: %w", err)
		}
		written++
	}
	return written, nil
}
