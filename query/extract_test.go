package query

import (
	"testing"

	"github.com/giygas/formulary-api/entities"
)

var extractCatalog = []string{"Keytruda", "Humira", "Remicade", "Sodium Chloride"}

func TestExtractDrugNameEmptyQuery(t *testing.T) {
	name, confidence, method := ExtractDrugName("", extractCatalog)
	if name != "" || confidence != 0 || method != entities.ExtractEmptyQuery {
		t.Errorf("got (%q, %d, %q), want (\"\", 0, empty_query)", name, confidence, method)
	}
}

func TestExtractDrugNameFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"exact name in question", "Is Keytruda preferred?", "Keytruda"},
		{"typo in question", "Ketruda status", "Keytruda"},
		{"two word name", "is sodium chloride covered", "Sodium Chloride"},
		{"name only", "Remicade", "Remicade"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, confidence, method := ExtractDrugName(tt.query, extractCatalog)
			if name != tt.want {
				t.Fatalf("ExtractDrugName(%q) = %q, want %q", tt.query, name, tt.want)
			}
			if confidence < DefaultMatchThreshold {
				t.Errorf("confidence = %d, want >= %d", confidence, DefaultMatchThreshold)
			}
			if method != entities.ExtractFromQuery {
				t.Errorf("method = %q, want %q", method, entities.ExtractFromQuery)
			}
		})
	}
}

func TestExtractDrugNameNoMatch(t *testing.T) {
	name, confidence, method := ExtractDrugName("what is the weather today", extractCatalog)
	if name != "" || confidence != 0 || method != entities.ExtractNoMatch {
		t.Errorf("got (%q, %d, %q), want (\"\", 0, no_match)", name, confidence, method)
	}
}

func TestExtractDrugNameNilCatalog(t *testing.T) {
	name, confidence, method := ExtractDrugName("Is Keytruda preferred?", nil)
	if name != "" || confidence != 0 || method != entities.ExtractNoMatch {
		t.Errorf("got (%q, %d, %q), want (\"\", 0, no_match)", name, confidence, method)
	}
}
