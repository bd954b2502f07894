package match

import (
	"reflect"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"suffix and case", "ABC Tech Pvt Ltd", "abc tech"},
		{"already clean", "abc tech", "abc tech"},
		{"punctuation and suffix", "A!B@C   Ltd", "abc"},
		{"private limited suffix", "Acme Ventures Private Limited", "acme ventures"},
		{"bare pvt suffix", "Sunrise Traders Pvt", "sunrise traders"},
		{"punctuated suffix survives strip", "Apex Global Pvt. Ltd.", "apex global pvt ltd"},
		{"no suffix", "Horizon Foods", "horizon foods"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"digits kept", "Area 51 Studios Ltd", "area 51 studios"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeKey(tc.input); got != tc.expected {
				t.Fatalf("NormalizeKey(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeKeyFirstSuffixWins(t *testing.T) {
	// "private limited" appears before "limited" in the suffix list, so the
	// longer form must be stripped whole.
	if got := NormalizeKey("Nova Labs Private Limited"); got != "nova labs" {
		t.Fatalf("expected %q got %q", "nova labs", got)
	}
}

func TestNormalizeName(t *testing.T) {
	profile := NormalizeName("XYZ Technology Pvt Ltd")
	if profile.Original != "XYZ Technology Pvt Ltd" {
		t.Fatalf("original mutated: %q", profile.Original)
	}
	if profile.Key != "xyz technology" {
		t.Fatalf("unexpected key %q", profile.Key)
	}
	if profile.Squashed != "xyztechnology" {
		t.Fatalf("unexpected squashed %q", profile.Squashed)
	}
	if !reflect.DeepEqual(profile.Tokens, []string{"xyz", "technology"}) {
		t.Fatalf("unexpected tokens %v", profile.Tokens)
	}
}

func TestVariations(t *testing.T) {
	multi := NormalizeName("XYZ Technology Pvt Ltd").Variations()
	if !reflect.DeepEqual(multi, []string{"xyz technology", "xyztechnology"}) {
		t.Fatalf("unexpected variations %v", multi)
	}

	single := NormalizeName("Acme Ltd").Variations()
	if !reflect.DeepEqual(single, []string{"acme"}) {
		t.Fatalf("single-token key should collapse, got %v", single)
	}

	if got := NormalizeName("   ").Variations(); len(got) != 0 {
		t.Fatalf("empty key should yield no variations, got %v", got)
	}
}
