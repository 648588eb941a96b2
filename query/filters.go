package query

import (
	"regexp"
	"strings"

	"github.com/giygas/formulary-api/entities"
)

// categoryKeywords maps each known therapeutic category to the query
// vocabulary that implies it. Categories are checked in this order and
// only the first hit is kept.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"oncology", []string{"oncology", "cancer", "chemotherapy", "chemo"}},
	{"immunology", []string{"immunology", "immune", "autoimmune"}},
	{"rheumatology", []string{"rheumatology", "rheumatoid", "arthritis"}},
	{"dermatology", []string{"dermatology", "skin", "dermatological"}},
	{"gastroenterology", []string{"gastroenterology", "gi", "digestive", "crohn", "colitis"}},
	{"neurology", []string{"neurology", "neurological", "nerve"}},
	{"hematology", []string{"hematology", "blood"}},
	{"cardiology", []string{"cardiology", "heart", "cardiac"}},
}

// Status extraction patterns, evaluated as an ordered precedence chain
// so that "non-preferred drugs with preferred alternatives" is not
// misread as a plain preferred filter.
var (
	nonPrefWithPrefPattern = regexp.MustCompile(`\b(non.?preferred|not preferred)\b.*\b(with|that have|having)\b.*\b(preferred)\b`)
	bothOrAllPattern       = regexp.MustCompile(`\b(both|all)\b.*\b(preferred|non.?preferred)`)
	onlyPreferredPattern   = regexp.MustCompile(`\b(only|just|exclusively)\s+(preferred)\b`)
	preferredPattern       = regexp.MustCompile(`\b(preferred)\b`)
	nonPreferredPattern    = regexp.MustCompile(`\b(non.?preferred)\b`)
	notPreferredPattern    = regexp.MustCompile(`\b(non.?preferred|not preferred)\b`)

	// "alternatives to X" uses "preferred" descriptively, not as a
	// filter, unless the query says "preferred alternative" outright.
	alternativesToPattern    = regexp.MustCompile(`\b(alternative|alternatives|instead|other options?|replace|replacement)\b.*\bto\b`)
	preferredAsStatusPattern = regexp.MustCompile(`\b(preferred\s+(alternative|drug|medication|option))`)
	paMNDMentionPattern      = regexp.MustCompile(`\b(pa|prior auth|preauth|pre.?auth|prior authorization|mnd|medical necessity)\b`)
	paMNDRequiredPattern     = regexp.MustCompile(`\b(requires?|requiring|need|needed)\b`)
	paMNDNotRequiredPattern  = regexp.MustCompile(`\b(no pa|without pa|doesn.?t require|no mnd|without mnd)\b`)
)

var keywordPatterns = buildKeywordPatterns()

func buildKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			patterns[keyword] = regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
		}
	}
	return patterns
}

// ExtractFilters pulls structured filter criteria out of a query:
// formulary status, PA/MND requirement, and therapeutic category.
// Absent criteria stay at their zero value, meaning unconstrained.
func ExtractFilters(queryText string) entities.FilterSet {
	lower := strings.ToLower(queryText)
	var filters entities.FilterSet

	switch {
	case nonPrefWithPrefPattern.MatchString(lower):
		filters.DrugStatus = entities.StatusNonPreferred
		filters.HasPreferredAlternative = true
	case bothOrAllPattern.MatchString(lower):
		// Explicitly asking for both statuses: no constraint.
	case onlyPreferredPattern.MatchString(lower) && !nonPreferredPattern.MatchString(lower):
		filters.DrugStatus = entities.StatusPreferred
	case preferredPattern.MatchString(lower) && !nonPreferredPattern.MatchString(lower):
		if !alternativesToPattern.MatchString(lower) || preferredAsStatusPattern.MatchString(lower) {
			filters.DrugStatus = entities.StatusPreferred
		}
	case notPreferredPattern.MatchString(lower):
		filters.DrugStatus = entities.StatusNonPreferred
	}

	if paMNDMentionPattern.MatchString(lower) {
		if paMNDRequiredPattern.MatchString(lower) {
			filters.PAMNDRequired = entities.PAMNDYes
		} else if paMNDNotRequiredPattern.MatchString(lower) {
			filters.PAMNDRequired = entities.PAMNDNo
		}
	}

category:
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if keywordPatterns[keyword].MatchString(lower) {
				filters.Category = entry.category
				break category
			}
		}
	}

	return filters
}

// ValidateFilters drops filter values outside the known vocabularies.
// Category, HCPCS and manufacturer pass through as-is; they are matched
// against storage, not a fixed enum.
func ValidateFilters(filters entities.FilterSet) entities.FilterSet {
	valid := filters
	if !entities.ValidDrugStatus(valid.DrugStatus) {
		valid.DrugStatus = ""
	}
	if !entities.ValidPAMND(valid.PAMNDRequired) {
		valid.PAMNDRequired = ""
	}
	return valid
}
