package engine

import "fmt"

// Recommend folds the conflict search and validation outcomes into a single
// verdict string. Registry conflicts outrank convention errors, which
// outrank warnings; the first matching branch wins.
func Recommend(availability AvailabilityResult, validation ValidationResult) string {
	if !availability.Available {
		if len(availability.ExactMatches) > 0 {
			return "Name not available - exact match found in MCA database"
		}
		return fmt.Sprintf("Name may be rejected - %d similar companies found", len(availability.SimilarMatches))
	}

	if !validation.IsValid {
		return fmt.Sprintf("Name validation failed - %d naming convention errors", len(validation.Errors))
	}

	if len(validation.Warnings) > 0 {
		return fmt.Sprintf("Name available with minor issues - %d warnings to consider", len(validation.Warnings))
	}

	return "Name appears available and compliant with MCA guidelines"
}
