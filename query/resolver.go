package query

import (
	"context"
	"strings"

	"github.com/giygas/formulary-api/entities"
	"github.com/giygas/formulary-api/interfaces"
	"github.com/giygas/formulary-api/logging"
	"github.com/giygas/formulary-api/metrics"
)

// fallbackConfidence is the confidence assigned to values adopted from
// the external intent extractor.
const fallbackConfidence = 75

// suggestionBandUpper bounds the "maybe" band: a server-side match in
// [DefaultMatchThreshold, suggestionBandUpper) is accepted but also
// surfaces alternatives as suggestions.
const suggestionBandUpper = 90

// approximateSearchLimit caps the server-side candidate list.
const approximateSearchLimit = 5

// queryStopwords are tokens that never form part of a drug name. They
// are stripped before the server-side name search.
var queryStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "of": {},
	"for": {}, "to": {}, "in": {}, "on": {}, "what": {}, "whats": {},
	"what's": {}, "which": {}, "does": {}, "do": {}, "can": {}, "i": {},
	"me": {}, "my": {}, "status": {}, "preferred": {}, "non-preferred": {},
	"nonpreferred": {}, "drug": {}, "drugs": {}, "medication": {},
	"medications": {}, "alternative": {}, "alternatives": {}, "instead": {},
	"other": {}, "options": {}, "option": {}, "replace": {},
	"replacement": {}, "list": {}, "show": {}, "all": {}, "give": {},
	"display": {}, "filter": {}, "require": {}, "requires": {},
	"requiring": {}, "required": {}, "need": {}, "needs": {}, "needed": {},
	"pa": {}, "mnd": {}, "prior": {}, "auth": {}, "authorization": {},
	"preauth": {}, "medical": {}, "necessity": {}, "covered": {},
	"coverage": {}, "category": {}, "with": {}, "that": {}, "have": {},
	"having": {}, "and": {}, "or": {}, "not": {}, "no": {}, "about": {},
	"tell": {}, "there": {}, "any": {}, "like": {}, "else": {},
}

// Resolver orchestrates query understanding: rule-based classification
// and filter extraction, staged drug-name resolution, and the LLM
// fallback gate. It is stateless apart from its injected collaborators
// and safe for concurrent use.
type Resolver struct {
	catalog interfaces.Catalog
	store   interfaces.StorageReader
	intents interfaces.IntentExtractor
}

// NewResolver creates a Resolver. intents may be nil, which disables
// the fallback path entirely.
func NewResolver(catalog interfaces.Catalog, store interfaces.StorageReader, intents interfaces.IntentExtractor) *Resolver {
	return &Resolver{catalog: catalog, store: store, intents: intents}
}

// Parse turns raw query text into a ParsedIntent. Parsing never fails:
// an unintelligible query yields a low-confidence intent with no drug
// name, and fallback outages degrade to the rule-based result.
func (r *Resolver) Parse(ctx context.Context, queryText string) entities.ParsedIntent {
	queryType, confidence := DetectQueryType(queryText)
	filters := ValidateFilters(ExtractFilters(queryText))

	intent := entities.ParsedIntent{
		QueryType:  queryType,
		Confidence: confidence,
		Filters:    filters,
		Method:     entities.MethodRuleBased,
	}

	if queryType == entities.QueryTypeDrugStatus || queryType == entities.QueryTypeAlternatives {
		name, nameConfidence, suggestions := r.ResolveDrugName(ctx, queryText)
		intent.DrugName = name
		intent.DrugConfidence = nameConfidence
		intent.Suggestions = suggestions
	}

	if r.ShouldFallback(intent) {
		r.mergeFallback(ctx, queryText, &intent)
	}

	metrics.QueriesTotal.WithLabelValues(string(intent.QueryType), string(intent.Method)).Inc()
	return intent
}

// ShouldFallback reports whether the rule-based parse is too weak to
// act on: either the classification itself is uncertain, or the query
// structurally needs a drug name that was not confidently resolved.
// Filter listings never need a drug name, so they gate on
// classification confidence alone.
func (r *Resolver) ShouldFallback(intent entities.ParsedIntent) bool {
	if intent.Confidence < DefaultMatchThreshold {
		return true
	}
	if intent.QueryType == entities.QueryTypeDrugStatus || intent.QueryType == entities.QueryTypeAlternatives {
		if intent.DrugName == "" || intent.DrugConfidence < DefaultMatchThreshold {
			return true
		}
	}
	return false
}

// ResolveDrugName resolves the drug name a query refers to, cheapest
// tier first: a stopword-stripped token is searched server-side, and
// only when that is inconclusive is the full catalog fetched for a
// local window scan. A confident server-side hit in the maybe band
// also returns up to three "did you mean" suggestions.
func (r *Resolver) ResolveDrugName(ctx context.Context, queryText string) (string, int, []string) {
	token := probableNameToken(queryText)
	if token != "" {
		matches, err := r.store.ApproximateSearch(ctx, token, approximateSearchLimit)
		if err != nil {
			logging.Warn("Approximate name search failed, using full catalog", "error", err)
		} else if len(matches) > 0 && matches[0].Score >= DefaultMatchThreshold {
			best := matches[0]
			var suggestions []string
			if best.Score < suggestionBandUpper && len(matches) > 1 {
				for _, m := range matches {
					suggestions = append(suggestions, m.Name)
					if len(suggestions) == 3 {
						break
					}
				}
			}
			metrics.NameResolutionTotal.WithLabelValues(string(entities.ExtractServerSearch)).Inc()
			return best.Name, best.Score, suggestions
		}
	}

	name, confidence, method := ExtractDrugName(queryText, r.catalog.GetDrugNames())
	metrics.NameResolutionTotal.WithLabelValues(string(method)).Inc()
	return name, confidence, nil
}

// mergeFallback asks the external intent extractor to re-read the query
// and folds its answer into intent. The fallback corrects the query
// type, supplies a drug name only when the rules found none, and its
// filters win on collision. Any failure leaves the rule-based intent
// untouched.
func (r *Resolver) mergeFallback(ctx context.Context, queryText string, intent *entities.ParsedIntent) {
	if r.intents == nil {
		return
	}

	fallback, err := r.intents.ExtractIntent(ctx, queryText, r.catalog.GetDrugNames(), r.catalog.GetCategories())
	if err != nil {
		metrics.LLMFallbackTotal.WithLabelValues("error").Inc()
		logging.Warn("Intent fallback failed, keeping rule-based parse", "error", err)
		return
	}
	if fallback == nil {
		metrics.LLMFallbackTotal.WithLabelValues("declined").Inc()
		return
	}
	metrics.LLMFallbackTotal.WithLabelValues("success").Inc()

	if entities.ValidQueryType(fallback.QueryType) {
		intent.QueryType = fallback.QueryType
	}
	if intent.DrugName == "" && fallback.DrugName != "" {
		intent.DrugName = fallback.DrugName
		intent.DrugConfidence = fallbackConfidence
	}
	intent.Filters = ValidateFilters(intent.Filters.Merge(fallback.Filters))

	intent.Method = entities.MethodLLMFallback
	if fallback.Confidence > 0 {
		intent.Confidence = fallback.Confidence
	} else {
		intent.Confidence = fallbackConfidence
	}
}

// probableNameToken strips query vocabulary from the text, leaving the
// words most likely to be the drug name itself. Punctuation that glues
// to names in questions ("Keytruda?") is trimmed.
func probableNameToken(queryText string) string {
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(queryText)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if word == "" {
			continue
		}
		if _, stop := queryStopwords[word]; stop {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}
