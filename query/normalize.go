// Package query implements the query-understanding pipeline: drug name
// normalization and fuzzy resolution, intent classification, filter
// extraction, orchestration with the LLM fallback gate, result
// aggregation, and query execution against the storage reader.
package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// trademarkReplacer strips trademark, registered and service mark glyphs
// that appear in scraped drug names.
var trademarkReplacer = strings.NewReplacer("™", "", "®", "", "℠", "")

// diacriticFolder decomposes characters and drops combining marks, so
// accented spellings compare equal to their plain-ASCII form.
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName canonicalizes a drug name for comparison: lowercase,
// trademark glyphs removed, diacritics folded, whitespace runs collapsed
// to single spaces. Idempotent; an empty input yields an empty string.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	normalized := strings.ToLower(name)
	normalized = trademarkReplacer.Replace(normalized)

	if folded, _, err := transform.String(diacriticFolder, normalized); err == nil {
		normalized = folded
	}

	return strings.Join(strings.Fields(normalized), " ")
}
