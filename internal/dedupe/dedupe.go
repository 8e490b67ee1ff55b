// Package dedupe suppresses near-duplicate draft tasks by embedding
// cosine similarity.
package dedupe

import (
	"fmt"
	"math"

	"focal/internal/model"
)

// DefaultThreshold is the similarity above which a secondary draft is
// considered a duplicate of a primary one.
const DefaultThreshold float32 = 0.85

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical. Mismatched
// or empty vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Dedupe keeps every primary draft and drops each secondary draft whose
// similarity to any primary is strictly greater than threshold; a draft
// exactly at the threshold survives. Output is primaries first, then
// surviving secondaries, relative order preserved within each group.
// Inputs are not mutated.
func Dedupe(primary, secondary []model.DraftTask, threshold float32) []model.DraftTask {
	out := make([]model.DraftTask, 0, len(primary)+len(secondary))
	out = append(out, primary...)

	for _, cand := range secondary {
		duplicate := false
		for _, p := range primary {
			if CosineSimilarity(cand.Embedding, p.Embedding) > threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, cand)
		}
	}
	return out
}

// DuplicateError reports a draft that collides with an existing task.
type DuplicateError struct {
	DraftID    string
	ExistingID string
	Similarity float32
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("draft %s duplicates existing task %s (similarity %.2f)", e.DraftID, e.ExistingID, e.Similarity)
}

// CheckAgainstExisting rejects a draft whose embedding is too close to
// any existing task. The caller may edit the draft and retry.
func CheckAgainstExisting(draft model.DraftTask, existing []model.Task, threshold float32) error {
	for _, t := range existing {
		if sim := CosineSimilarity(draft.Embedding, t.Embedding); sim > threshold {
			return &DuplicateError{DraftID: draft.ID, ExistingID: t.ID, Similarity: sim}
		}
	}
	return nil
}
