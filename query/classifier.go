package query

import (
	"regexp"
	"strings"

	"github.com/giygas/formulary-api/entities"
)

// Rule patterns for query-type detection, checked in order. Alternatives
// outrank list queries, which outrank explicit status phrasings; anything
// left over is treated as a low-confidence status question.
var (
	alternativesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(alternative|alternatives|instead|other options?|replace|replacement)\b`),
		regexp.MustCompile(`\b(what else|other .+ like)\b`),
		regexp.MustCompile(`\b(preferred .+ in .+ category)\b`),
	}

	listFilterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(list|show all|give all|display all|filter)\b`),
		regexp.MustCompile(`\b(all .+ drugs?|all .+ medications?)\b`),
		regexp.MustCompile(`\b(what are .+ drugs?)\b`),
		regexp.MustCompile(`\b(non.?preferred .+ (with|that have|having) .+ preferred)\b`),
	}

	drugStatusPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(is .+ preferred)\b`),
		regexp.MustCompile(`\b(is .+ non.?preferred)\b`),
		regexp.MustCompile(`\b(does .+ require)\b`),
		regexp.MustCompile(`\b(pa for|prior auth)`),
		regexp.MustCompile(`\b(mnd for|medical necessity)\b`),
		regexp.MustCompile(`\b(status of)\b`),
		regexp.MustCompile(`\b(what.?s the status)\b`),
	}
)

// Confidence levels assigned by the rule classifier. A pattern hit is a
// strong signal; the catch-all default is deliberately below the
// fallback gate so unrecognized phrasings reach the LLM.
const (
	confidenceAlternatives = 90
	confidenceListFilter   = 85
	confidenceDrugStatus   = 85
	confidenceDefault      = 30
)

// DetectQueryType classifies a query into one of the three query types
// with a rule confidence on a 0-100 scale. Classification is total:
// every input maps to some type, defaulting to a low-confidence
// drug_status question.
func DetectQueryType(queryText string) (entities.QueryType, int) {
	lower := strings.ToLower(queryText)

	for _, pattern := range alternativesPatterns {
		if pattern.MatchString(lower) {
			return entities.QueryTypeAlternatives, confidenceAlternatives
		}
	}

	for _, pattern := range listFilterPatterns {
		if pattern.MatchString(lower) {
			return entities.QueryTypeListFilter, confidenceListFilter
		}
	}

	for _, pattern := range drugStatusPatterns {
		if pattern.MatchString(lower) {
			return entities.QueryTypeDrugStatus, confidenceDrugStatus
		}
	}

	return entities.QueryTypeDrugStatus, confidenceDefault
}
