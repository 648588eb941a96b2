package storage

import (
	"strings"
	"testing"

	"github.com/giygas/formulary-api/entities"
)

func TestBuildFilterQueryNoFilters(t *testing.T) {
	sql, args := buildFilterQuery(entities.FilterSet{})

	if strings.Contains(sql, "WHERE") {
		t.Errorf("empty filter set produced a WHERE clause: %s", sql)
	}
	if len(args) != 0 {
		t.Errorf("empty filter set produced args: %v", args)
	}
	if !strings.HasSuffix(sql, "ORDER BY drug_name, category") {
		t.Errorf("missing stable ordering: %s", sql)
	}
}

func TestBuildFilterQueryAllFilters(t *testing.T) {
	sql, args := buildFilterQuery(entities.FilterSet{
		DrugStatus:    entities.StatusPreferred,
		PAMNDRequired: entities.PAMNDYes,
		Category:      "oncology",
		HCPCS:         "J9271",
		Manufacturer:  "Merck",
	})

	for _, clause := range []string{
		"drug_status = $1",
		"pa_mnd_required = $2",
		"LOWER(category) LIKE LOWER($3)",
		"LOWER(hcpcs) = LOWER($4)",
		"LOWER(manufacturer) LIKE LOWER($5)",
	} {
		if !strings.Contains(sql, clause) {
			t.Errorf("missing clause %q in: %s", clause, sql)
		}
	}

	want := []any{"preferred", "yes", "%oncology%", "J9271", "%Merck%"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestBuildFilterQueryGenericManufacturer(t *testing.T) {
	sql, args := buildFilterQuery(entities.FilterSet{Manufacturer: "any Generic brand"})

	if !strings.Contains(sql, "LOWER(manufacturer) = 'generic'") {
		t.Errorf("generic sentinel not applied: %s", sql)
	}
	if len(args) != 0 {
		t.Errorf("generic sentinel should not parameterize: %v", args)
	}
}

func TestScoreApproximate(t *testing.T) {
	tests := []struct {
		name string
		text string
		drug string
		want int
	}{
		{"exact", "keytruda", "Keytruda", 100},
		{"exact with symbols", "keytruda", "Keytruda™", 100},
		{"prefix", "keyt", "Keytruda", 90},
		{"no hit", "humira", "Keytruda", 0},
		{"empty text", "", "Keytruda", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreApproximate(tt.text, tt.drug); got != tt.want {
				t.Errorf("scoreApproximate(%q, %q) = %d, want %d", tt.text, tt.drug, got, tt.want)
			}
		})
	}
}

func TestScoreApproximateSubstringBand(t *testing.T) {
	score := scoreApproximate("truda", "Keytruda")
	if score < 60 || score > 89 {
		t.Errorf("substring score = %d, want within [60, 89]", score)
	}

	// Earlier, longer hits outrank later, shorter ones.
	early := scoreApproximate("eytruda", "Keytruda")
	late := scoreApproximate("uda", "Keytruda")
	if early <= late {
		t.Errorf("coverage/position weighting inverted: early=%d late=%d", early, late)
	}
}
