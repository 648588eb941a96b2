package query

import (
	"strings"

	"github.com/giygas/formulary-api/entities"
)

// ExtractDrugName scans a natural-language query for the substring most
// likely to be a drug name. Every single word and every consecutive
// two- and three-word span is matched against the candidate names at
// the extraction threshold; the highest-confidence hit wins, ties broken
// by the first substring in window-generation order. If no window
// matches, the whole query is retried once at a lower threshold.
func ExtractDrugName(queryText string, drugNames []string) (string, int, entities.ExtractionMethod) {
	if queryText == "" {
		return "", 0, entities.ExtractEmptyQuery
	}

	words := strings.Fields(queryText)

	var windows []string
	for i := range words {
		windows = append(windows, words[i])
		if i+1 < len(words) {
			windows = append(windows, words[i]+" "+words[i+1])
		}
		if i+2 < len(words) {
			windows = append(windows, words[i]+" "+words[i+1]+" "+words[i+2])
		}
	}

	best := ""
	bestConfidence := 0
	for _, window := range windows {
		if name, confidence := MatchName(window, drugNames, extractThreshold); confidence > bestConfidence {
			best = name
			bestConfidence = confidence
		}
	}

	if best != "" {
		return best, bestConfidence, entities.ExtractFromQuery
	}

	// Last resort: match the entire query string.
	if name, confidence := MatchName(queryText, drugNames, fullQueryThreshold); name != "" {
		return name, confidence, entities.ExtractFullQuery
	}

	return "", 0, entities.ExtractNoMatch
}
