package entities

// QueryType classifies what a natural-language query is asking for.
type QueryType string

const (
	QueryTypeDrugStatus   QueryType = "drug_status"
	QueryTypeAlternatives QueryType = "alternatives"
	QueryTypeListFilter   QueryType = "list_filter"
)

// ValidQueryType reports whether t is one of the three query types.
func ValidQueryType(t QueryType) bool {
	switch t {
	case QueryTypeDrugStatus, QueryTypeAlternatives, QueryTypeListFilter:
		return true
	}
	return false
}

// ParseMethod records which path produced a parsed intent.
type ParseMethod string

const (
	MethodRuleBased   ParseMethod = "rule_based"
	MethodLLMFallback ParseMethod = "llm_fallback"
)

// ExtractionMethod records how a drug name was pulled out of a query.
type ExtractionMethod string

const (
	ExtractEmptyQuery   ExtractionMethod = "empty_query"
	ExtractFromQuery    ExtractionMethod = "extracted_from_query"
	ExtractFullQuery    ExtractionMethod = "full_query_match"
	ExtractNoMatch      ExtractionMethod = "no_match"
	ExtractServerSearch ExtractionMethod = "server_side_search"
)

// FilterSet holds the structured filter criteria extracted from a query.
// Zero values mean "no constraint": an absent filter never matches null,
// it simply does not constrain the result.
type FilterSet struct {
	DrugStatus              DrugStatus `json:"drug_status,omitempty"`
	PAMNDRequired           PAMND      `json:"pa_mnd_required,omitempty"`
	Category                string     `json:"category,omitempty"`
	HCPCS                   string     `json:"hcpcs,omitempty"`
	Manufacturer            string     `json:"manufacturer,omitempty"`
	HasPreferredAlternative bool       `json:"has_preferred_alternative,omitempty"`
}

// IsZero reports whether no filter is set.
func (f FilterSet) IsZero() bool {
	return f == FilterSet{}
}

// Merge returns a copy of f with every filter set in other overwriting
// the corresponding filter in f.
func (f FilterSet) Merge(other FilterSet) FilterSet {
	merged := f
	if other.DrugStatus != "" {
		merged.DrugStatus = other.DrugStatus
	}
	if other.PAMNDRequired != "" {
		merged.PAMNDRequired = other.PAMNDRequired
	}
	if other.Category != "" {
		merged.Category = other.Category
	}
	if other.HCPCS != "" {
		merged.HCPCS = other.HCPCS
	}
	if other.Manufacturer != "" {
		merged.Manufacturer = other.Manufacturer
	}
	if other.HasPreferredAlternative {
		merged.HasPreferredAlternative = true
	}
	return merged
}

// ParsedIntent is the result of query understanding: the query type, the
// resolved drug name when one is structurally required, and the filter
// criteria. Confidence values are 0-100.
type ParsedIntent struct {
	QueryType      QueryType   `json:"query_type"`
	Confidence     int         `json:"confidence"`
	DrugName       string      `json:"drug_name,omitempty"`
	DrugConfidence int         `json:"drug_confidence"`
	Filters        FilterSet   `json:"filters"`
	Method         ParseMethod `json:"method"`
	// Suggestions holds "did you mean" drug names when name resolution
	// landed in the maybe band. They never block the primary answer.
	Suggestions []string `json:"suggestions,omitempty"`
}

// FallbackIntent is the whitelisted result of the external LLM intent
// extraction. A nil FallbackIntent means the fallback was unavailable.
type FallbackIntent struct {
	QueryType  QueryType `json:"query_type"`
	DrugName   string    `json:"drug_name,omitempty"`
	Filters    FilterSet `json:"filters"`
	Confidence int       `json:"confidence"`
}
