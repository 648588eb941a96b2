package query

import (
	"sort"
	"strings"

	"github.com/giygas/formulary-api/interfaces"
)

// minAutocompletePrefix is the shortest prefix worth completing; a
// single letter would match most of the catalog.
const minAutocompletePrefix = 2

// Autocomplete returns up to limit catalog names starting with prefix,
// case-insensitively, in catalog order. Prefixes shorter than two
// characters yield nothing.
func Autocomplete(prefix string, names []string, limit int) []string {
	normPrefix := NormalizeName(prefix)
	if len(normPrefix) < minAutocompletePrefix || limit <= 0 {
		return nil
	}

	var completions []string
	for _, name := range names {
		if strings.HasPrefix(NormalizeName(name), normPrefix) {
			completions = append(completions, name)
			if len(completions) == limit {
				break
			}
		}
	}
	return completions
}

// SuggestCorrections returns up to limit catalog names resembling text,
// best first, for "did you mean" spelling help. Only names scoring at
// least threshold are returned; ties keep catalog order.
func SuggestCorrections(text string, names []string, threshold, limit int) []interfaces.NameScore {
	normText := NormalizeName(text)
	if normText == "" || limit <= 0 {
		return nil
	}

	var scored []interfaces.NameScore
	for _, name := range names {
		normName := NormalizeName(name)
		score := 100
		if normName != normText {
			score = tokenSortRatio(normText, normName)
		}
		if score >= threshold {
			scored = append(scored, interfaces.NameScore{Name: name, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
