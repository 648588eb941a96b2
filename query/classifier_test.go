package query

import (
	"testing"

	"github.com/giygas/formulary-api/entities"
)

func TestDetectQueryType(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantType       entities.QueryType
		wantConfidence int
	}{
		{"alternatives keyword", "What are alternatives to Remicade?", entities.QueryTypeAlternatives, 90},
		{"instead phrasing", "what can I take instead of Humira", entities.QueryTypeAlternatives, 90},
		{"replacement phrasing", "replacement for Keytruda", entities.QueryTypeAlternatives, 90},
		{"list keyword", "List all preferred oncology drugs", entities.QueryTypeListFilter, 85},
		{"show all phrasing", "show all drugs requiring PA", entities.QueryTypeListFilter, 85},
		{"all drugs phrasing", "all oncology drugs", entities.QueryTypeListFilter, 85},
		{"what are drugs phrasing", "what are the preferred drugs", entities.QueryTypeListFilter, 85},
		{"is preferred", "Is Keytruda preferred?", entities.QueryTypeDrugStatus, 85},
		{"is non-preferred", "is Remicade non-preferred", entities.QueryTypeDrugStatus, 85},
		{"does require", "does Humira require prior auth", entities.QueryTypeDrugStatus, 85},
		{"status of", "status of Keytruda", entities.QueryTypeDrugStatus, 85},
		{"whats the status", "what's the status for Humira", entities.QueryTypeDrugStatus, 85},
		{"medical necessity", "medical necessity for Keytruda", entities.QueryTypeDrugStatus, 85},
		{"bare name defaults", "Keytruda", entities.QueryTypeDrugStatus, 30},
		{"unrelated text defaults", "hello there", entities.QueryTypeDrugStatus, 30},
		{"empty query defaults", "", entities.QueryTypeDrugStatus, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotConfidence := DetectQueryType(tt.query)
			if gotType != tt.wantType || gotConfidence != tt.wantConfidence {
				t.Errorf("DetectQueryType(%q) = (%q, %d), want (%q, %d)",
					tt.query, gotType, gotConfidence, tt.wantType, tt.wantConfidence)
			}
		})
	}
}

// Alternatives patterns are checked before list patterns, so a query
// containing vocabulary from both classifies as alternatives.
func TestDetectQueryTypePrecedence(t *testing.T) {
	gotType, gotConfidence := DetectQueryType("list alternatives to Remicade")
	if gotType != entities.QueryTypeAlternatives || gotConfidence != 90 {
		t.Errorf("got (%q, %d), want (alternatives, 90)", gotType, gotConfidence)
	}
}
