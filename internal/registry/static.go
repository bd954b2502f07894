package registry

import (
	"context"
	"strings"
)

// StaticSource serves candidates from an in-memory company list. It stands
// in for the live registrar API in tests and offline deployments.
type StaticSource struct {
	Entries []Entry
}

// FetchCandidates returns every entry whose name contains the query or one
// of its tokens. Matching is deliberately loose: the conflict search scores
// and filters the pool afterwards.
func (s *StaticSource) FetchCandidates(_ context.Context, query string) ([]Entry, error) {
	if s == nil {
		return nil, nil
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	tokens := strings.Fields(query)

	var out []Entry
	for _, entry := range s.Entries {
		name := strings.ToLower(entry.CompanyName)
		if strings.Contains(name, query) {
			out = append(out, entry)
			continue
		}
		for _, token := range tokens {
			if strings.Contains(name, token) {
				out = append(out, entry)
				break
			}
		}
	}
	return out, nil
}
