// Package embedding wraps vector embedding providers and the batch
// queue that feeds them without tripping provider rate limits.
package embedding

import (
	"context"
	"errors"
)

// Provider generates vector embeddings for text.
type Provider interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embeddings for multiple texts, one vector
	// per input in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the dimensionality of produced embeddings.
	Dimensions() int
}

// Provider failure categories. The queue uses these to decide between
// pending (retryable later) and failed (needs operator action).
var (
	ErrMissingCredentials = errors.New("embedding: missing credentials")
	ErrRateLimited        = errors.New("embedding: rate limited")
	ErrTimeout            = errors.New("embedding: request timed out")
	ErrInvalidInput       = errors.New("embedding: invalid input")
)

// Category classifies a provider failure.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryMissingCredentials
	CategoryRateLimit
	CategoryTimeout
	CategoryInvalidInput
)

// Classify maps a provider error onto its failure category.
func Classify(err error) Category {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return CategoryMissingCredentials
	case errors.Is(err, ErrRateLimited):
		return CategoryRateLimit
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.Is(err, ErrInvalidInput):
		return CategoryInvalidInput
	default:
		return CategoryUnknown
	}
}

// Retryable reports whether a category should leave tasks pending for a
// later re-trigger. Unknown failures are treated as transient.
func Retryable(c Category) bool {
	switch c {
	case CategoryMissingCredentials, CategoryInvalidInput:
		return false
	default:
		return true
	}
}
