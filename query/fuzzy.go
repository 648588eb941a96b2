package query

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Matching thresholds used across the resolution tiers.
const (
	// DefaultMatchThreshold is the minimum confidence for a direct
	// drug-name lookup or a fuzzy retry after a storage miss.
	DefaultMatchThreshold = 70

	// extractThreshold is the per-substring threshold used while
	// scanning query words for a drug name.
	extractThreshold = 60

	// fullQueryThreshold is the last-resort threshold when matching
	// the entire query string.
	fullQueryThreshold = 50
)

// MatchName finds the best matching drug name for query among candidates.
// An exact normalized match returns the candidate with confidence 100.
// Otherwise candidates are scored with a token-sort similarity that is
// insensitive to word order, and the best-scoring candidate is returned
// if its score reaches threshold. Equal scores break ties by earliest
// position in candidates. No match yields ("", 0).
func MatchName(queryText string, candidates []string, threshold int) (string, int) {
	if queryText == "" || len(candidates) == 0 {
		return "", 0
	}

	normQuery := NormalizeName(queryText)
	if normQuery == "" {
		return "", 0
	}

	best := ""
	bestScore := 0

	for _, candidate := range candidates {
		normCandidate := NormalizeName(candidate)
		if normCandidate == normQuery {
			return candidate, 100
		}

		if score := tokenSortRatio(normQuery, normCandidate); score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	if bestScore >= threshold {
		return best, bestScore
	}
	return "", 0
}

// tokenSortRatio scores the similarity of two normalized strings on a
// 0-100 scale. Tokens are sorted before comparison so that word
// transpositions ("sodium chloride" vs "chloride sodium") score 100,
// and the Levenshtein distance of the sorted forms handles typos.
func tokenSortRatio(a, b string) int {
	sortedA := sortTokens(a)
	sortedB := sortTokens(b)

	if sortedA == sortedB {
		if sortedA == "" {
			return 0
		}
		return 100
	}
	if sortedA == "" || sortedB == "" {
		return 0
	}

	distance := matchr.Levenshtein(sortedA, sortedB)
	longest := utf8.RuneCountInString(sortedA)
	if l := utf8.RuneCountInString(sortedB); l > longest {
		longest = l
	}

	score := int(math.Round(100 * (1 - float64(distance)/float64(longest))))
	if score < 0 {
		return 0
	}
	return score
}

// sortTokens returns s with its whitespace-delimited tokens sorted.
func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
