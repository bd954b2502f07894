package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Company is one row of the registrar company master loaded from bulk CSV
// exports.
type Company struct {
	CIN            string `gorm:"primaryKey;size:32"`
	Name           string `gorm:"size:256;index"`
	NameNormalized string `gorm:"size:256;index"`
	NameSquashed   string `gorm:"size:256;index"`
	State          string `gorm:"size:64"`
	Status         string `gorm:"size:32"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CheckBatch represents an uploaded CSV of candidate names.
type CheckBatch struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:128;index"`
	Owner            string `gorm:"size:128;index"`
	OriginalFilename string `gorm:"size:256"`
	RowCount         int
	UniqueNames      int
	DuplicateRows    int
	ProcessedNames   int
	LastCheckedAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BatchName links candidate names to batches (one row per CSV occurrence).
type BatchName struct {
	ID             uint   `gorm:"primaryKey"`
	BatchID        uint   `gorm:"index"`
	Name           string `gorm:"size:255;index"`
	NameNormalized string `gorm:"size:255;index"`
	RowIndex       int
	CreatedAt      time.Time
}

// MatchRecord is the serialized form of a registry match on a check result.
type MatchRecord struct {
	CompanyName string `json:"company_name"`
	Identifier  string `json:"identifier"`
	Similarity  int    `json:"similarity"`
}

// CheckResult is the persisted outcome of one availability check within a
// batch run.
type CheckResult struct {
	ID                 uint   `gorm:"primaryKey"`
	BatchID            uint   `gorm:"index:idx_check_results_batch_name"`
	Name               string `gorm:"size:255;index"`
	NameNormalized     string `gorm:"size:255;index:idx_check_results_batch_name"`
	Available          bool
	ExactMatchesJSON   string `gorm:"type:text"`
	SimilarMatchesJSON string `gorm:"type:text"`
	CandidatesExamined int
	Valid              bool
	ErrorsJSON         string `gorm:"type:text"`
	WarningsJSON       string `gorm:"type:text"`
	Score              int
	Recommendation     string `gorm:"size:255"`
	Diagnostic         string `gorm:"size:255"`
	ProcessingTimeMs   int64
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

// SetExactMatches persists the exact-match list as JSON.
func (r *CheckResult) SetExactMatches(matches []MatchRecord) {
	r.ExactMatchesJSON = marshalMatches(matches)
}

// ExactMatches returns the decoded exact-match list.
func (r *CheckResult) ExactMatches() []MatchRecord {
	return unmarshalMatches(r.ExactMatchesJSON)
}

// SetSimilarMatches persists the similar-match list as JSON.
func (r *CheckResult) SetSimilarMatches(matches []MatchRecord) {
	r.SimilarMatchesJSON = marshalMatches(matches)
}

// SimilarMatches returns the decoded similar-match list.
func (r *CheckResult) SimilarMatches() []MatchRecord {
	return unmarshalMatches(r.SimilarMatchesJSON)
}

// SetErrors persists the validation errors as JSON.
func (r *CheckResult) SetErrors(errs []string) {
	r.ErrorsJSON = marshalStrings(errs)
}

// Errors returns the decoded validation errors.
func (r *CheckResult) Errors() []string {
	return unmarshalStrings(r.ErrorsJSON)
}

// SetWarnings persists the validation warnings as JSON.
func (r *CheckResult) SetWarnings(warnings []string) {
	r.WarningsJSON = marshalStrings(warnings)
}

// Warnings returns the decoded validation warnings.
func (r *CheckResult) Warnings() []string {
	return unmarshalStrings(r.WarningsJSON)
}

func marshalMatches(matches []MatchRecord) string {
	if matches == nil {
		return "[]"
	}
	payload, _ := json.Marshal(matches)
	return string(payload)
}

func unmarshalMatches(raw string) []MatchRecord {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []MatchRecord
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func marshalStrings(values []string) string {
	if values == nil {
		return "[]"
	}
	payload, _ := json.Marshal(values)
	return string(payload)
}

func unmarshalStrings(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
