// Package llm provides the pluggable model-call boundary: a one-method
// Agent interface, provider implementations, and strict schema
// validation of the raw responses.
package llm

import (
	"context"
	"fmt"
)

// Providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Request is one model invocation: system-level instructions plus the
// serialized input payload.
type Request struct {
	Instructions string
	Input        string
}

// Agent executes a single model call and returns the raw response
// text. Implementations must never panic on malformed model output;
// parsing and validation happen in the caller.
type Agent interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config describes how to reach a model.
type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Timeout   int // seconds
}

// NewAgent constructs an agent for the configured provider.
func NewAgent(cfg Config) (Agent, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAIAgent(cfg)
	case ProviderGemini:
		return newGeminiAgent(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
