// Package reflection applies user reflections to an existing plan:
// recency weighting plus a cheap, LLM-free re-ranking pass.
package reflection

import "time"

// Recency bands. Lower bound of each band is inclusive: a reflection
// exactly 7 days old still carries full weight, exactly 14 days half.
const (
	fullWeightAge = 7 * 24 * time.Hour
	halfWeightAge = 14 * 24 * time.Hour
)

// Weight converts a reflection's age into its step-function weight:
// 1.0 up to 7 days, 0.5 up to 14 days, 0.25 beyond. Pure function of
// the two timestamps.
func Weight(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	switch {
	case age <= fullWeightAge:
		return 1.0
	case age <= halfWeightAge:
		return 0.5
	default:
		return 0.25
	}
}
