package similarity

import (
	"math"

	"github.com/agext/levenshtein"
)

// Ratio reports how alike two strings are on a 0-100 scale, where 100 means
// identical and 0 means no overlap. The score is the normalized Levenshtein
// similarity of the two strings rounded to an integer percentage. Callers
// are expected to normalize case before comparing; the function itself is
// case-sensitive.
func Ratio(a, b string) int {
	score := levenshtein.Similarity(a, b, levenshtein.NewParams())
	return int(math.Round(score * 100))
}
