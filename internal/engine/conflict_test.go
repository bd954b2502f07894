package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mca-name-check/backend/internal/match"
	"mca-name-check/backend/internal/registry"
)

// poolSource returns a fixed candidate pool for every query, recording the
// queries it receives.
type poolSource struct {
	entries []registry.Entry
	err     error

	mu      sync.Mutex
	queries []string
}

func (s *poolSource) FetchCandidates(_ context.Context, query string) ([]registry.Entry, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func TestFindConflictsExactMatch(t *testing.T) {
	source := &poolSource{entries: []registry.Entry{
		{CompanyName: "Acme Industries Private Limited", CIN: "U11111MH2010PTC000001"},
		{CompanyName: "Zenith Pharma Limited", CIN: "U22222MH2012PTC000002"},
	}}
	searcher := NewConflictSearcher(source, time.Second)

	result := searcher.FindConflicts(context.Background(), match.NormalizeName("Acme Industries Pvt Ltd"))
	if result.Available {
		t.Fatal("expected name to be unavailable")
	}
	if len(result.ExactMatches) != 1 {
		t.Fatalf("expected 1 exact match, got %v", result.ExactMatches)
	}
	exact := result.ExactMatches[0]
	if exact.Identifier != "U11111MH2010PTC000001" {
		t.Fatalf("unexpected identifier %q", exact.Identifier)
	}
	if exact.Similarity != 100 {
		t.Fatalf("expected similarity 100, got %d", exact.Similarity)
	}
	if len(result.SimilarMatches) != 0 {
		t.Fatalf("unexpected similar matches %v", result.SimilarMatches)
	}
}

func TestFindConflictsDeduplicatesVariations(t *testing.T) {
	source := &poolSource{entries: []registry.Entry{
		{CompanyName: "Acme Industries Private Limited", CIN: "U11111MH2010PTC000001"},
		{CompanyName: "Zenith Pharma Limited", CIN: "U22222MH2012PTC000002"},
	}}
	searcher := NewConflictSearcher(source, time.Second)

	result := searcher.FindConflicts(context.Background(), match.NormalizeName("Acme Industries Pvt Ltd"))

	// One sub-search per spacing variant, but entries fetched by both must be
	// counted once.
	if len(source.queries) != 2 {
		t.Fatalf("expected 2 sub-searches, got %v", source.queries)
	}
	if result.CandidatesExamined != 2 {
		t.Fatalf("expected 2 unique candidates, got %d", result.CandidatesExamined)
	}
}

func TestFindConflictsNoConflicts(t *testing.T) {
	source := &poolSource{entries: []registry.Entry{
		{CompanyName: "Zenith Pharma Limited", CIN: "U22222MH2012PTC000002"},
	}}
	searcher := NewConflictSearcher(source, time.Second)

	result := searcher.FindConflicts(context.Background(), match.NormalizeName("Acme Industries Pvt Ltd"))
	if !result.Available {
		t.Fatal("expected name to be available")
	}
	if len(result.ExactMatches) != 0 || len(result.SimilarMatches) != 0 {
		t.Fatalf("expected no matches, got %v / %v", result.ExactMatches, result.SimilarMatches)
	}
	if result.CandidatesExamined != 1 {
		t.Fatalf("expected 1 candidate examined, got %d", result.CandidatesExamined)
	}
}

func TestFindConflictsSimilarSortedAndCapped(t *testing.T) {
	// Every candidate normalizes to a 15-character key at a fixed edit
	// distance from "acme industries": distance 1 scores 93, distance 2
	// scores 87, distance 3 scores 80.
	source := &poolSource{entries: []registry.Entry{
		{CompanyName: "Ecmo Industried Pvt Ltd", CIN: "C80A"}, // 80
		{CompanyName: "Acme Industried Pvt Ltd", CIN: "C93A"}, // 93
		{CompanyName: "Acma Industried Pvt Ltd", CIN: "C87A"}, // 87
		{CompanyName: "Zenith Pharma Limited", CIN: "C-LOW"},  // below threshold
		{CompanyName: "Acme Industrees Pvt Ltd", CIN: "C93B"}, // 93
		{CompanyName: "Acmo Industrees Pvt Ltd", CIN: "C87B"}, // 87
		{CompanyName: "Ecmo Industrees Pvt Ltd", CIN: "C80B"}, // 80
	}}
	searcher := NewConflictSearcher(source, time.Second)

	result := searcher.FindConflicts(context.Background(), match.NormalizeName("Acme Industries Pvt Ltd"))
	if result.Available {
		t.Fatal("expected name to be unavailable")
	}
	if len(result.ExactMatches) != 0 {
		t.Fatalf("unexpected exact matches %v", result.ExactMatches)
	}
	if len(result.SimilarMatches) != maxSimilar {
		t.Fatalf("expected %d similar matches, got %d", maxSimilar, len(result.SimilarMatches))
	}

	wantScores := []int{93, 93, 87, 87, 80}
	for i, m := range result.SimilarMatches {
		if m.Similarity != wantScores[i] {
			t.Fatalf("position %d: similarity %d, want %d (%v)", i, m.Similarity, wantScores[i], result.SimilarMatches)
		}
	}

	// Stable ordering: ties keep pool order, and the surviving 80 is the one
	// fetched first.
	wantIDs := []string{"C93A", "C93B", "C87A", "C87B", "C80A"}
	for i, m := range result.SimilarMatches {
		if m.Identifier != wantIDs[i] {
			t.Fatalf("position %d: identifier %q, want %q", i, m.Identifier, wantIDs[i])
		}
	}
}

func TestFindConflictsFailOpen(t *testing.T) {
	source := &poolSource{err: errors.New("registry unreachable")}
	searcher := NewConflictSearcher(source, time.Second)

	result := searcher.FindConflicts(context.Background(), match.NormalizeName("Acme Industries Pvt Ltd"))
	if !result.Available {
		t.Fatal("fetch failure must not block the name")
	}
	if result.Diagnostic == "" {
		t.Fatal("expected diagnostic on degraded lookup")
	}
	if !strings.Contains(result.Diagnostic, "registry unreachable") {
		t.Fatalf("diagnostic should carry the cause, got %q", result.Diagnostic)
	}
	if result.CandidatesExamined != 0 {
		t.Fatalf("expected 0 candidates examined, got %d", result.CandidatesExamined)
	}
}

func TestFindConflictsDegenerateInputs(t *testing.T) {
	var nilSearcher *ConflictSearcher
	if result := nilSearcher.FindConflicts(context.Background(), match.NormalizeName("Acme")); !result.Available {
		t.Fatal("nil searcher should report available")
	}

	searcher := NewConflictSearcher(&poolSource{}, time.Second)
	if result := searcher.FindConflicts(context.Background(), match.NormalizeName("   ")); !result.Available {
		t.Fatal("empty key should report available")
	}
}
