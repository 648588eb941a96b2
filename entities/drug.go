// Package entities defines the data model shared by the formulary API:
// storage rows, aggregated logical drugs, parsed query intents and filters.
package entities

// DrugStatus is the formulary status of a drug within a category.
type DrugStatus string

const (
	StatusPreferred    DrugStatus = "preferred"
	StatusNonPreferred DrugStatus = "non_preferred"
	StatusNotListed    DrugStatus = "not_listed"
)

// ValidDrugStatus reports whether s is one of the known formulary statuses.
func ValidDrugStatus(s DrugStatus) bool {
	switch s {
	case StatusPreferred, StatusNonPreferred, StatusNotListed:
		return true
	}
	return false
}

// PAMND is the combined Prior Authorization / Medical Necessity
// Determination requirement flag.
type PAMND string

const (
	PAMNDYes     PAMND = "yes"
	PAMNDNo      PAMND = "no"
	PAMNDUnknown PAMND = "unknown"
)

// ValidPAMND reports whether p is one of the known PA/MND values.
func ValidPAMND(p PAMND) bool {
	switch p {
	case PAMNDYes, PAMNDNo, PAMNDUnknown:
		return true
	}
	return false
}

// DrugRecord is a single storage row. The store keeps one row per
// (drug_name, category) pair; a drug with no category membership has a
// single row with an empty category.
type DrugRecord struct {
	DrugName      string     `json:"drug_name"`
	Category      string     `json:"category,omitempty"`
	DrugStatus    DrugStatus `json:"drug_status"`
	HCPCS         string     `json:"hcpcs,omitempty"`
	Manufacturer  string     `json:"manufacturer,omitempty"`
	PAMNDRequired PAMND      `json:"pa_mnd_required"`
	Notes         string     `json:"notes,omitempty"`
}

// Drug is the aggregated, category-spanning view of a drug name across
// all of its per-category storage rows. It is built fresh per query by
// the aggregator and never persisted.
type Drug struct {
	DrugName           string                `json:"drug_name"`
	Categories         []string              `json:"categories,omitempty"`
	StatusesByCategory map[string]DrugStatus `json:"statuses_by_category,omitempty"`
	DrugStatus         DrugStatus            `json:"drug_status"`
	HCPCS              string                `json:"hcpcs,omitempty"`
	Manufacturer       string                `json:"manufacturer,omitempty"`
	PAMNDRequired      PAMND                 `json:"pa_mnd_required"`
	Notes              string                `json:"notes,omitempty"`
}

// MatchProvenance records that a drug was found through fuzzy matching
// rather than an exact lookup, for caller transparency.
type MatchProvenance struct {
	Confidence    int    `json:"confidence"`
	OriginalQuery string `json:"original_query"`
}

// DrugMatch wraps an aggregated drug with optional fuzzy-match
// provenance. Provenance is nil for exact lookups.
type DrugMatch struct {
	Drug       Drug             `json:"drug"`
	Provenance *MatchProvenance `json:"match_provenance,omitempty"`
}
