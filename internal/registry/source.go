package registry

import "context"

// Entry is a single existing company record returned by a data source.
type Entry struct {
	CompanyName string `json:"company_name"`
	CIN         string `json:"cin"`
}

// Source supplies candidate companies for a conflict search query. The query
// is a normalized name; implementations may interpret it loosely (substring,
// token or full-text match) and return an empty slice when nothing is close.
// This is the single seam where the live MCA API, the local company master
// or a test fixture can be substituted without touching the engine.
type Source interface {
	FetchCandidates(ctx context.Context, query string) ([]Entry, error)
}
