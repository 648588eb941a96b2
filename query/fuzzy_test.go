package query

import "testing"

func TestMatchNameExact(t *testing.T) {
	candidates := []string{"Keytruda", "Humira"}

	name, confidence := MatchName("Keytruda", candidates, DefaultMatchThreshold)
	if name != "Keytruda" || confidence != 100 {
		t.Errorf("exact match = (%q, %d), want (Keytruda, 100)", name, confidence)
	}

	// Exact match must ignore case, symbols and the threshold.
	name, confidence = MatchName("  KEYTRUDA™ ", candidates, 100)
	if name != "Keytruda" || confidence != 100 {
		t.Errorf("normalized exact match = (%q, %d), want (Keytruda, 100)", name, confidence)
	}
}

func TestMatchNameTypo(t *testing.T) {
	name, confidence := MatchName("Ketruda", []string{"Keytruda", "Humira"}, DefaultMatchThreshold)
	if name != "Keytruda" {
		t.Fatalf("typo match = %q, want Keytruda", name)
	}
	if confidence < DefaultMatchThreshold || confidence >= 100 {
		t.Errorf("typo confidence = %d, want in [%d, 100)", confidence, DefaultMatchThreshold)
	}
}

func TestMatchNameWordOrder(t *testing.T) {
	name, confidence := MatchName("chloride sodium", []string{"Sodium Chloride"}, DefaultMatchThreshold)
	if name != "Sodium Chloride" || confidence != 100 {
		t.Errorf("transposed tokens = (%q, %d), want (Sodium Chloride, 100)", name, confidence)
	}
}

func TestMatchNameBelowThreshold(t *testing.T) {
	name, confidence := MatchName("xyz123", []string{"Keytruda", "Humira"}, DefaultMatchThreshold)
	if name != "" || confidence != 0 {
		t.Errorf("below threshold = (%q, %d), want (\"\", 0)", name, confidence)
	}
}

func TestMatchNameEmptyInputs(t *testing.T) {
	if name, confidence := MatchName("", []string{"Keytruda"}, 0); name != "" || confidence != 0 {
		t.Errorf("empty query = (%q, %d), want (\"\", 0)", name, confidence)
	}
	if name, confidence := MatchName("Keytruda", nil, 0); name != "" || confidence != 0 {
		t.Errorf("empty candidates = (%q, %d), want (\"\", 0)", name, confidence)
	}
}

func TestMatchNameTieBreak(t *testing.T) {
	// Both candidates normalize identically; the first wins.
	name, _ := MatchName("keytruda", []string{"KEYTRUDA", "Keytruda™"}, DefaultMatchThreshold)
	if name != "KEYTRUDA" {
		t.Errorf("tie break = %q, want first candidate KEYTRUDA", name)
	}
}

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "keytruda", "keytruda", 100},
		{"transposed", "sodium chloride", "chloride sodium", 100},
		{"both empty", "", "", 0},
		{"one empty", "keytruda", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenSortRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("tokenSortRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}

	// Single-character edit on an 8-rune name: 100*(1-1/8) rounds to 88.
	if got := tokenSortRatio("ketruda", "keytruda"); got != 88 {
		t.Errorf("tokenSortRatio(ketruda, keytruda) = %d, want 88", got)
	}
}
