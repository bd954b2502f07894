package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mca-name-check/backend/internal/match"
	"mca-name-check/backend/internal/registry"
	"mca-name-check/backend/internal/similarity"
)

const (
	// exactThreshold and similarThreshold are strict lower bounds: a score
	// above 95 absorbs spacing and punctuation noise into an exact match,
	// while 70-95 flags material overlap without catching unrelated names
	// that merely share a business word.
	exactThreshold   = 95
	similarThreshold = 70
	maxSimilar       = 5

	defaultFetchTimeout = 5 * time.Second
)

// Match is a registry entry annotated with its similarity to the query.
type Match struct {
	CompanyName string `json:"company_name"`
	Identifier  string `json:"identifier"`
	Similarity  int    `json:"similarity"`
}

// AvailabilityResult is the outcome of a conflict search.
type AvailabilityResult struct {
	Available          bool    `json:"available"`
	ExactMatches       []Match `json:"exact_matches"`
	SimilarMatches     []Match `json:"similar_matches"`
	CandidatesExamined int     `json:"total_candidates_examined"`
	Diagnostic         string  `json:"diagnostic,omitempty"`
}

// ConflictSearcher classifies existing registrations against a candidate
// name using an injected data source.
type ConflictSearcher struct {
	source  registry.Source
	timeout time.Duration
}

// NewConflictSearcher builds a searcher over the supplied data source. A
// non-positive timeout falls back to the default fetch bound.
func NewConflictSearcher(source registry.Source, timeout time.Duration) *ConflictSearcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &ConflictSearcher{source: source, timeout: timeout}
}

// FindConflicts fetches registry candidates for the normalized name and
// classifies each as an exact or similar match. Fetch failures never block
// the caller: absence of negative evidence reads as available, with the
// failure kept as a diagnostic on the result.
func (s *ConflictSearcher) FindConflicts(ctx context.Context, profile match.NameProfile) AvailabilityResult {
	result := AvailabilityResult{Available: true}
	if s == nil || s.source == nil || profile.Key == "" {
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.fetchVariations(ctx, profile.Variations())
	if err != nil {
		logrus.WithError(err).WithField("query", profile.Key).Warn("registry lookup degraded; treating missing evidence as available")
		result.Diagnostic = fmt.Sprintf("registry lookup failed: %v", err)
		if entries == nil {
			return result
		}
	}

	result.CandidatesExamined = len(entries)
	for _, entry := range entries {
		key := match.NormalizeKey(entry.CompanyName)
		score := similarity.Ratio(profile.Key, key)
		annotated := Match{
			CompanyName: entry.CompanyName,
			Identifier:  entry.CIN,
			Similarity:  score,
		}
		switch {
		case score > exactThreshold:
			result.ExactMatches = append(result.ExactMatches, annotated)
		case score > similarThreshold:
			result.SimilarMatches = append(result.SimilarMatches, annotated)
		}
	}

	sort.SliceStable(result.SimilarMatches, func(i, j int) bool {
		return result.SimilarMatches[i].Similarity > result.SimilarMatches[j].Similarity
	})
	if len(result.SimilarMatches) > maxSimilar {
		result.SimilarMatches = result.SimilarMatches[:maxSimilar]
	}

	result.Available = len(result.ExactMatches) == 0 && len(result.SimilarMatches) == 0
	return result
}

// fetchVariations runs one sub-search per spacing variant in parallel and
// merges the results, deduplicating by identifier. A partial failure still
// returns the entries that were fetched, alongside the first error.
func (s *ConflictSearcher) fetchVariations(ctx context.Context, variations []string) ([]registry.Entry, error) {
	type outcome struct {
		entries []registry.Entry
		err     error
	}

	outcomes := make([]outcome, len(variations))
	var wg sync.WaitGroup
	for i, query := range variations {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			entries, err := s.source.FetchCandidates(ctx, query)
			outcomes[i] = outcome{entries: entries, err: err}
		}(i, query)
	}
	wg.Wait()

	var merged []registry.Entry
	seen := make(map[string]struct{})
	var firstErr error
	fetched := false
	for _, o := range outcomes {
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		fetched = true
		for _, entry := range o.entries {
			key := entry.CIN
			if key == "" {
				key = strings.ToLower(entry.CompanyName)
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, entry)
		}
	}

	if !fetched {
		return nil, firstErr
	}
	if merged == nil {
		merged = []registry.Entry{}
	}
	return merged, firstErr
}
