package engine

import (
	"context"
	"errors"

	"mca-name-check/backend/internal/match"
)

// ErrNoValidator signals an engine constructed without its validator. The
// convention rules are fully local, so a missing validator is a defect
// rather than an environmental condition and is never absorbed.
var ErrNoValidator = errors.New("engine: validator not configured")

// Result is the full engine response for one candidate name. It is
// assembled once per call and never mutated afterwards.
type Result struct {
	Name              string             `json:"name"`
	CleanedName       string             `json:"cleaned_name"`
	IsAvailable       bool               `json:"is_available"`
	ExistingCompanies []Match            `json:"existing_companies"`
	Availability      AvailabilityResult `json:"availability"`
	Validation        ValidationResult   `json:"validation"`
	Recommendation    string             `json:"recommendation"`
}

// Engine orchestrates conflict search and convention validation for a
// candidate name. It carries no mutable state beyond its injected
// dependencies and is safe to share across goroutines.
type Engine struct {
	searcher  *ConflictSearcher
	validator *Validator
}

// New wires the engine facade. The searcher may be nil, in which case every
// name reads as available; the validator is mandatory.
func New(searcher *ConflictSearcher, validator *Validator) (*Engine, error) {
	if validator == nil {
		return nil, ErrNoValidator
	}
	return &Engine{searcher: searcher, validator: validator}, nil
}

// Check runs the full availability and compliance pipeline for rawName.
// Registry failures degrade to an available verdict with a diagnostic
// attached; a missing validator surfaces as a hard error.
func (e *Engine) Check(ctx context.Context, rawName string) (Result, error) {
	if e == nil || e.validator == nil {
		return Result{}, ErrNoValidator
	}

	profile := match.NormalizeName(rawName)
	availability := e.searcher.FindConflicts(ctx, profile)
	validation := e.validator.Validate(rawName)

	existing := make([]Match, 0, len(availability.ExactMatches)+len(availability.SimilarMatches))
	existing = append(existing, availability.ExactMatches...)
	existing = append(existing, availability.SimilarMatches...)

	return Result{
		Name:              rawName,
		CleanedName:       profile.Key,
		IsAvailable:       availability.Available,
		ExistingCompanies: existing,
		Availability:      availability,
		Validation:        validation,
		Recommendation:    Recommend(availability, validation),
	}, nil
}
