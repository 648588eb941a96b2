package formularyparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/giygas/formulary-api/entities"
	"github.com/giygas/formulary-api/logging"
	"github.com/giygas/formulary-api/query"
)

// Preferred drug list CSV columns, in order.
const (
	colDrugName = iota
	colCategory
	colDrugStatus
	colHCPCS
	colManufacturer
	colNotes

	preferredDrugColumns = 6
)

// LoadPreferredDrugs reads the preferred drug list CSV. The first row
// is a header and is skipped. Rows with missing columns, an empty drug
// name, or an unknown status are counted and dropped.
func LoadPreferredDrugs(path string) ([]entities.DrugRecord, error) {
	csvFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferred drug list: %w", err)
	}
	defer func() {
		if err := csvFile.Close(); err != nil {
			logging.Warn("Failed to close preferred drug list file", "error", err)
		}
	}()

	reader := csv.NewReader(csvFile)
	reader.FieldsPerRecord = -1

	var records []entities.DrugRecord
	lineCount := 0
	skippedMissingColumns := 0
	skippedEmptyName := 0
	skippedBadStatus := 0

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read preferred drug list: %w", err)
		}

		lineCount++
		if lineCount == 1 {
			// Header row
			continue
		}

		if len(fields) < preferredDrugColumns {
			skippedMissingColumns++
			continue
		}

		name := strings.TrimSpace(fields[colDrugName])
		if name == "" {
			skippedEmptyName++
			continue
		}

		status := entities.DrugStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(fields[colDrugStatus])), "-", "_"))
		if !entities.ValidDrugStatus(status) {
			skippedBadStatus++
			continue
		}

		record := entities.DrugRecord{
			DrugName:      name,
			Category:      strings.TrimSpace(fields[colCategory]),
			DrugStatus:    status,
			HCPCS:         strings.TrimSpace(fields[colHCPCS]),
			Manufacturer:  strings.TrimSpace(fields[colManufacturer]),
			PAMNDRequired: entities.PAMNDUnknown,
			Notes:         strings.TrimSpace(fields[colNotes]),
		}

		records = append(records, record)
	}

	if skippedMissingColumns > 0 || skippedEmptyName > 0 || skippedBadStatus > 0 {
		logging.Info("Preferred drug list skip statistics",
			"missing_columns", skippedMissingColumns,
			"empty_names", skippedEmptyName,
			"bad_statuses", skippedBadStatus,
			"total_lines", lineCount,
			"records_parsed", len(records))
	}

	logging.Info("Preferred drug list conversion completed", "records_count", len(records))
	return records, nil
}

// LoadPAMNDList reads the PA/MND requirement list, one drug name per
// line in the first CSV column. The first row is a header.
func LoadPAMNDList(path string) ([]string, error) {
	csvFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PA/MND list: %w", err)
	}
	defer func() {
		if err := csvFile.Close(); err != nil {
			logging.Warn("Failed to close PA/MND list file", "error", err)
		}
	}()

	reader := csv.NewReader(csvFile)
	reader.FieldsPerRecord = -1

	var names []string
	lineCount := 0
	skippedEmptyName := 0

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read PA/MND list: %w", err)
		}

		lineCount++
		if lineCount == 1 {
			// Header row
			continue
		}

		if len(fields) == 0 {
			skippedEmptyName++
			continue
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			skippedEmptyName++
			continue
		}

		names = append(names, name)
	}

	if skippedEmptyName > 0 {
		logging.Info("PA/MND list skip statistics",
			"empty_names", skippedEmptyName,
			"total_lines", lineCount,
			"records_parsed", len(names))
	}

	logging.Info("PA/MND list conversion completed", "records_count", len(names))
	return names, nil
}

// MergeDrugData marks each record's PA/MND requirement by membership in
// the PA/MND list, matched on normalized names. Every record leaves
// with a definite yes or no.
func MergeDrugData(records []entities.DrugRecord, paMNDNames []string) []entities.DrugRecord {
	required := make(map[string]bool, len(paMNDNames))
	for _, name := range paMNDNames {
		required[query.NormalizeName(name)] = true
	}

	merged := make([]entities.DrugRecord, len(records))
	for i, r := range records {
		if required[query.NormalizeName(r.DrugName)] {
			r.PAMNDRequired = entities.PAMNDYes
		} else {
			r.PAMNDRequired = entities.PAMNDNo
		}
		merged[i] = r
	}
	return merged
}
