package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength = 3
	maxNameLength = 120
)

var (
	disallowedChars = regexp.MustCompile(`[^a-zA-Z0-9\s.\-&()]`)
	leadingDigit    = regexp.MustCompile(`^\d`)
	repeatedSpaces  = regexp.MustCompile(`\s{2,}`)
)

// defaultProhibitedWords lists terms the registrar reserves for regulated or
// government entities. A name containing any of them is rejected outright.
var defaultProhibitedWords = []string{
	"bank", "insurance", "government", "ministry", "national", "central",
	"reserve", "federal", "authority", "commission", "corporation of india",
	"registrar", "co-operative", "municipal", "panchayat",
}

// defaultAcceptedSuffixes lists legal-entity suffixes the registrar accepts,
// including punctuated variants.
var defaultAcceptedSuffixes = []string{
	"pvt ltd", "private limited", "pvt. ltd.", "private limited.",
	"limited", "ltd", "ltd.",
}

// ValidationResult reports convention compliance for a raw candidate name.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Score    int      `json:"score"`
}

// Validator applies registrar naming conventions to raw candidate names. It
// holds only its term lists and is safe for concurrent use.
type Validator struct {
	prohibited []string
	suffixes   []string
}

type termsFile struct {
	ProhibitedWords  []string `json:"prohibited_words"`
	AcceptedSuffixes []string `json:"accepted_suffixes"`
}

// NewValidator builds a validator, loading term overrides from the JSON file
// at path when provided. An empty path keeps the built-in rule set.
func NewValidator(path string) (*Validator, error) {
	validator := &Validator{
		prohibited: defaultProhibitedWords,
		suffixes:   defaultAcceptedSuffixes,
	}
	if strings.TrimSpace(path) == "" {
		return validator, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read naming terms: %w", err)
	}
	var terms termsFile
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("unmarshal naming terms: %w", err)
	}
	if cleaned := cleanTerms(terms.ProhibitedWords); len(cleaned) > 0 {
		validator.prohibited = cleaned
	}
	if cleaned := cleanTerms(terms.AcceptedSuffixes); len(cleaned) > 0 {
		validator.suffixes = cleaned
	}
	return validator, nil
}

// Validate runs every convention rule against the original, un-normalized
// name. Warnings never affect validity; the score drops 30 per error and 10
// per warning, floored at zero.
func (v *Validator) Validate(name string) ValidationResult {
	var errs []string
	var warnings []string

	length := utf8.RuneCountInString(name)
	if length < minNameLength {
		errs = append(errs, fmt.Sprintf("Company name too short (minimum %d characters)", minNameLength))
	} else if length > maxNameLength {
		errs = append(errs, fmt.Sprintf("Company name too long (maximum %d characters)", maxNameLength))
	}

	lower := strings.ToLower(name)
	for _, word := range v.prohibited {
		if strings.Contains(lower, word) {
			errs = append(errs, fmt.Sprintf("Prohibited word '%s' found in name", word))
		}
	}

	hasSuffix := false
	for _, suffix := range v.suffixes {
		if strings.HasSuffix(lower, suffix) {
			hasSuffix = true
			break
		}
	}
	if !hasSuffix {
		warnings = append(warnings, "Consider adding proper suffix (Pvt Ltd or Private Limited)")
	}

	if disallowedChars.MatchString(name) {
		warnings = append(warnings, "Special characters may cause issues during incorporation")
	}

	if leadingDigit.MatchString(name) {
		errs = append(errs, "Company name cannot start with a number")
	}

	if repeatedSpaces.MatchString(name) {
		warnings = append(warnings, "Multiple consecutive spaces found")
	}
	if name != strings.TrimSpace(name) {
		warnings = append(warnings, "Leading or trailing spaces detected")
	}

	score := 100 - 30*len(errs) - 10*len(warnings)
	if score < 0 {
		score = 0
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Score:    score,
	}
}

func cleanTerms(terms []string) []string {
	var out []string
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}
