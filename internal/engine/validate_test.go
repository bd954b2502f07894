package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newDefaultValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator("")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func TestValidateCompliantName(t *testing.T) {
	result := newDefaultValidator(t).Validate("Xyz Tech Pvt Ltd")
	if !result.IsValid {
		t.Fatalf("expected valid, got errors %v", result.Errors)
	}
	if len(result.Errors) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("expected no findings, got errors %v warnings %v", result.Errors, result.Warnings)
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %d", result.Score)
	}
}

func TestValidateRules(t *testing.T) {
	validator := newDefaultValidator(t)

	testCases := []struct {
		name        string
		input       string
		wantValid   bool
		wantErrs    int
		wantWarns   int
		wantScore   int
		errContains string
	}{
		{
			name:        "too short",
			input:       "XY",
			wantValid:   false,
			wantErrs:    1,
			wantWarns:   1, // missing suffix
			wantScore:   60,
			errContains: "too short",
		},
		{
			name:        "prohibited word",
			input:       "AI Bank Solutions",
			wantValid:   false,
			wantErrs:    1,
			wantWarns:   1,
			wantScore:   60,
			errContains: "'bank'",
		},
		{
			name:        "leading digit",
			input:       "9Lives Media Pvt Ltd",
			wantValid:   false,
			wantErrs:    1,
			wantWarns:   0,
			wantScore:   70,
			errContains: "start with a number",
		},
		{
			name:      "special characters",
			input:     "Tech@Works Pvt Ltd",
			wantValid: true,
			wantErrs:  0,
			wantWarns: 1,
			wantScore: 90,
		},
		{
			name:      "repeated spaces",
			input:     "Alpha  Beta Pvt Ltd",
			wantValid: true,
			wantErrs:  0,
			wantWarns: 1,
			wantScore: 90,
		},
		{
			name:      "surrounding whitespace",
			input:     " Xyz Tech ",
			wantValid: true,
			wantErrs:  0,
			wantWarns: 2, // missing suffix + whitespace
			wantScore: 80,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.Validate(tc.input)
			if result.IsValid != tc.wantValid {
				t.Fatalf("IsValid = %v, want %v (errors %v)", result.IsValid, tc.wantValid, result.Errors)
			}
			if len(result.Errors) != tc.wantErrs {
				t.Fatalf("got %d errors %v, want %d", len(result.Errors), result.Errors, tc.wantErrs)
			}
			if len(result.Warnings) != tc.wantWarns {
				t.Fatalf("got %d warnings %v, want %d", len(result.Warnings), result.Warnings, tc.wantWarns)
			}
			if result.Score != tc.wantScore {
				t.Fatalf("score = %d, want %d", result.Score, tc.wantScore)
			}
			if tc.errContains != "" {
				found := false
				for _, msg := range result.Errors {
					if strings.Contains(strings.ToLower(msg), tc.errContains) {
						found = true
						break
					}
				}
				if !found {
					t.Fatalf("no error containing %q in %v", tc.errContains, result.Errors)
				}
			}
		})
	}
}

func TestValidateLongName(t *testing.T) {
	long := strings.Repeat("Abc ", 40) + "Pvt Ltd" // well past the length cap
	result := newDefaultValidator(t).Validate(long)
	if result.IsValid {
		t.Fatal("expected over-long name to be invalid")
	}
	found := false
	for _, msg := range result.Errors {
		if strings.Contains(msg, "too long") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing length error in %v", result.Errors)
	}
}

func TestValidateScoreFloor(t *testing.T) {
	result := newDefaultValidator(t).Validate("9bank insurance government authority commission")
	if result.IsValid {
		t.Fatal("expected invalid")
	}
	if result.Score != 0 {
		t.Fatalf("score should floor at 0, got %d", result.Score)
	}
}

func TestValidateWhitespaceWarningMessage(t *testing.T) {
	result := newDefaultValidator(t).Validate(" Xyz Tech Pvt Ltd")
	found := false
	for _, msg := range result.Warnings {
		if msg == "Leading or trailing spaces detected" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing whitespace warning in %v", result.Warnings)
	}
}

func TestNewValidatorCustomTerms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.json")
	content := `{"prohibited_words": ["crypto"], "accepted_suffixes": ["llp"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write terms: %v", err)
	}

	validator, err := NewValidator(path)
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	flagged := validator.Validate("Crypto Traders LLP")
	if flagged.IsValid {
		t.Fatal("expected custom prohibited word to flag the name")
	}

	// Default terms must be fully replaced, not merged.
	relaxed := validator.Validate("AI Bank Solutions LLP")
	if !relaxed.IsValid {
		t.Fatalf("default prohibited list should be replaced, got errors %v", relaxed.Errors)
	}
}

func TestNewValidatorBadInput(t *testing.T) {
	if _, err := NewValidator(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing terms file")
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write terms: %v", err)
	}
	if _, err := NewValidator(path); err == nil {
		t.Fatal("expected error for malformed terms file")
	}
}
