package query

import (
	"sort"

	"github.com/giygas/formulary-api/entities"
)

// AggregateRows collapses per-category storage rows into logical drugs,
// one per distinct stored drug name. Categories keep their row-encounter
// order with duplicates dropped, and the remaining fields come from the
// first row of each group. Output follows first-occurrence order; pass
// sortByName for filter listings.
func AggregateRows(rows []entities.DrugRecord, sortByName bool) []entities.Drug {
	var drugs []entities.Drug
	var firstStatus []entities.DrugStatus
	index := make(map[string]int)

	for _, row := range rows {
		i, seen := index[row.DrugName]
		if !seen {
			index[row.DrugName] = len(drugs)
			drugs = append(drugs, entities.Drug{
				DrugName:           row.DrugName,
				StatusesByCategory: make(map[string]entities.DrugStatus),
				HCPCS:              row.HCPCS,
				Manufacturer:       row.Manufacturer,
				PAMNDRequired:      row.PAMNDRequired,
				Notes:              row.Notes,
			})
			firstStatus = append(firstStatus, row.DrugStatus)
			i = len(drugs) - 1
		}

		drug := &drugs[i]
		if row.Category != "" {
			if _, dup := drug.StatusesByCategory[row.Category]; !dup {
				drug.Categories = append(drug.Categories, row.Category)
				drug.StatusesByCategory[row.Category] = row.DrugStatus
			}
		}
	}

	for i, drug := range drugs {
		drugs[i].DrugStatus = deriveStatus(drug.StatusesByCategory, firstStatus[i])
	}

	if sortByName {
		sort.Slice(drugs, func(i, j int) bool { return drugs[i].DrugName < drugs[j].DrugName })
	}
	return drugs
}

// deriveStatus computes the overall status of a drug from its
// per-category statuses: preferred anywhere wins, then non-preferred
// anywhere, then the first row's own status, then not_listed.
func deriveStatus(statuses map[string]entities.DrugStatus, first entities.DrugStatus) entities.DrugStatus {
	for _, status := range statuses {
		if status == entities.StatusPreferred {
			return entities.StatusPreferred
		}
	}
	for _, status := range statuses {
		if status == entities.StatusNonPreferred {
			return entities.StatusNonPreferred
		}
	}
	if first != "" {
		return first
	}
	return entities.StatusNotListed
}
