package registry

import (
	"context"
	"strings"

	"mca-name-check/backend/internal/store"
)

// DatabaseSource retrieves candidates from the locally ingested company
// master instead of the live registrar API.
type DatabaseSource struct {
	db    *store.Database
	limit int
}

// NewDatabaseSource wraps the store as a conflict-search data source.
func NewDatabaseSource(db *store.Database, limit int) *DatabaseSource {
	if limit <= 0 {
		limit = 50
	}
	return &DatabaseSource{db: db, limit: limit}
}

// FetchCandidates performs a token search over the stored company names.
func (s *DatabaseSource) FetchCandidates(ctx context.Context, query string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(tokens) == 0 {
		return nil, nil
	}

	companies, err := s.db.SearchCompanies(tokens, s.limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(companies))
	for _, company := range companies {
		entries = append(entries, Entry{
			CompanyName: company.Name,
			CIN:         company.CIN,
		})
	}
	return entries, nil
}
