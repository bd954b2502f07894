package match

import (
	"regexp"
	"strings"
)

var nonNameChars = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// legalSuffixes is checked in declaration order and the first suffix the
// lowered name ends with is removed. "pvt ltd" precedes "ltd" so the longer
// form is stripped whole.
var legalSuffixes = []string{"pvt ltd", "private limited", "ltd", "limited", "pvt", "private"}

// NameProfile captures the normalization output for a candidate company name.
type NameProfile struct {
	Original string
	Key      string
	Squashed string
	Tokens   []string
}

// NormalizeName lowers the raw name, strips one trailing legal-entity suffix
// and every non-alphanumeric character, and derives the search tokens used
// for candidate retrieval.
func NormalizeName(input string) NameProfile {
	key := NormalizeKey(input)
	return NameProfile{
		Original: input,
		Key:      key,
		Squashed: strings.Join(strings.Fields(key), ""),
		Tokens:   strings.Fields(key),
	}
}

// NormalizeKey reduces a raw company name to its comparison key: lower-cased,
// suffix-stripped once, and limited to letters, digits and internal
// whitespace. Empty or whitespace-only input yields an empty key.
func NormalizeKey(input string) string {
	cleaned := strings.ToLower(input)
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(cleaned, suffix) {
			cleaned = strings.TrimSpace(cleaned[:len(cleaned)-len(suffix)])
			break
		}
	}
	cleaned = nonNameChars.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// Variations lists the spacing variants probed during conflict search.
// Single-token keys collapse to one variation.
func (p NameProfile) Variations() []string {
	var out []string
	for _, candidate := range []string{p.Key, p.Squashed} {
		if candidate == "" {
			continue
		}
		duplicate := false
		for _, existing := range out {
			if existing == candidate {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, candidate)
		}
	}
	return out
}
