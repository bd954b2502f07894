package api

import (
	"time"

	"mca-name-check/backend/internal/engine"
	"mca-name-check/backend/internal/store"
)

// CheckRequest is the body of a single-name availability check.
type CheckRequest struct {
	Name string `json:"name"`
}

// RunBatchRequest controls how a batch check run starts.
type RunBatchRequest struct {
	Resume bool `json:"resume"`
	Force  bool `json:"force"`
}

// RunBatchResponse acknowledges a started batch job.
type RunBatchResponse struct {
	JobID   string `json:"job_id"`
	BatchID uint   `json:"batch_id"`
	Total   int    `json:"total"`
}

// UploadResponse reports batch statistics after processing a CSV upload.
type UploadResponse struct {
	BatchID       uint   `json:"batch_id"`
	BatchName     string `json:"batch_name"`
	Owner         string `json:"owner"`
	RowCount      int    `json:"row_count"`
	UniqueNames   int    `json:"unique_names"`
	DuplicateRows int    `json:"duplicate_rows"`
}

// StatusResponse describes the active or last-known batch job state.
type StatusResponse struct {
	Running   bool   `json:"running"`
	JobID     string `json:"job_id,omitempty"`
	BatchID   uint   `json:"batch_id,omitempty"`
	State     string `json:"state,omitempty"`
	Message   string `json:"message,omitempty"`
	Total     int    `json:"total,omitempty"`
	Processed int    `json:"processed,omitempty"`
}

// ResultsResponse wraps a page of persisted check results.
type ResultsResponse struct {
	Items []CheckResultDTO `json:"items"`
	Total int              `json:"total"`
}

// BatchDTO is the wire form of a candidate-name batch.
type BatchDTO struct {
	ID             uint       `json:"id"`
	Name           string     `json:"name"`
	Owner          string     `json:"owner"`
	Filename       string     `json:"filename"`
	RowCount       int        `json:"row_count"`
	UniqueNames    int        `json:"unique_names"`
	DuplicateRows  int        `json:"duplicate_rows"`
	ProcessedNames int        `json:"processed_names"`
	LastCheckedAt  *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ValidationDTO mirrors the engine's validation output on the wire.
type ValidationDTO struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Score    int      `json:"score"`
}

// CheckResultDTO is the wire form of a persisted check result.
type CheckResultDTO struct {
	ID                 uint                `json:"id"`
	BatchID            uint                `json:"batch_id"`
	Name               string              `json:"name"`
	CleanedName        string              `json:"cleaned_name"`
	IsAvailable        bool                `json:"is_available"`
	ExactMatches       []store.MatchRecord `json:"exact_matches"`
	SimilarMatches     []store.MatchRecord `json:"similar_matches"`
	ExistingCompanies  []store.MatchRecord `json:"existing_companies"`
	CandidatesExamined int                 `json:"total_candidates_examined"`
	Validation         ValidationDTO       `json:"validation"`
	Recommendation     string              `json:"recommendation"`
	Diagnostic         string              `json:"diagnostic,omitempty"`
	ProcessingTimeMs   int64               `json:"processing_time_ms"`
	CreatedAt          time.Time           `json:"created_at"`
}

// FromModel converts a stored check result into its wire form.
func FromModel(r store.CheckResult) CheckResultDTO {
	exact := r.ExactMatches()
	if exact == nil {
		exact = []store.MatchRecord{}
	}
	similar := r.SimilarMatches()
	if similar == nil {
		similar = []store.MatchRecord{}
	}
	errs := r.Errors()
	if errs == nil {
		errs = []string{}
	}
	warnings := r.Warnings()
	if warnings == nil {
		warnings = []string{}
	}

	existing := make([]store.MatchRecord, 0, len(exact)+len(similar))
	existing = append(existing, exact...)
	existing = append(existing, similar...)

	return CheckResultDTO{
		ID:                 r.ID,
		BatchID:            r.BatchID,
		Name:               r.Name,
		CleanedName:        r.NameNormalized,
		IsAvailable:        r.Available,
		ExactMatches:       exact,
		SimilarMatches:     similar,
		ExistingCompanies:  existing,
		CandidatesExamined: r.CandidatesExamined,
		Validation: ValidationDTO{
			IsValid:  r.Valid,
			Errors:   errs,
			Warnings: warnings,
			Score:    r.Score,
		},
		Recommendation:   r.Recommendation,
		Diagnostic:       r.Diagnostic,
		ProcessingTimeMs: r.ProcessingTimeMs,
		CreatedAt:        r.CreatedAt,
	}
}

// matchRecords maps engine matches to their persisted form.
func matchRecords(matches []engine.Match) []store.MatchRecord {
	records := make([]store.MatchRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, store.MatchRecord{
			CompanyName: m.CompanyName,
			Identifier:  m.Identifier,
			Similarity:  m.Similarity,
		})
	}
	return records
}

// BatchFromModel converts a stored batch into its wire form.
func BatchFromModel(b store.CheckBatch) BatchDTO {
	return BatchDTO{
		ID:             b.ID,
		Name:           b.Name,
		Owner:          b.Owner,
		Filename:       b.OriginalFilename,
		RowCount:       b.RowCount,
		UniqueNames:    b.UniqueNames,
		DuplicateRows:  b.DuplicateRows,
		ProcessedNames: b.ProcessedNames,
		LastCheckedAt:  b.LastCheckedAt,
		CreatedAt:      b.CreatedAt,
	}
}
