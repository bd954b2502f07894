package registry

import (
	"context"
	"testing"
)

func TestStaticSourceFetchCandidates(t *testing.T) {
	source := &StaticSource{Entries: []Entry{
		{CompanyName: "Xyz Technology Private Limited", CIN: "U1"},
		{CompanyName: "Technology Ventures Ltd", CIN: "U2"},
		{CompanyName: "Zenith Pharma Limited", CIN: "U3"},
	}}

	testCases := []struct {
		name  string
		query string
		want  int
	}{
		{"full phrase", "xyz technology", 2}, // token "technology" also hits U2
		{"single token", "zenith", 1},
		{"no match", "sunrise foods", 0},
		{"empty query", "   ", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := source.FetchCandidates(context.Background(), tc.query)
			if err != nil {
				t.Fatalf("FetchCandidates: %v", err)
			}
			if len(entries) != tc.want {
				t.Fatalf("got %d entries %v, want %d", len(entries), entries, tc.want)
			}
		})
	}
}

func TestStaticSourceNil(t *testing.T) {
	var source *StaticSource
	entries, err := source.FetchCandidates(context.Background(), "acme")
	if err != nil || entries != nil {
		t.Fatalf("nil source should be inert, got %v / %v", entries, err)
	}
}
