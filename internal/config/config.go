// Package config provides configuration loading and management for focal.
package config

// Config is the root configuration.
type Config struct {
	LLM        LLMConfig        `json:"llm"        mapstructure:"llm"`
	Embedding  EmbeddingConfig  `json:"embedding"  mapstructure:"embedding"`
	Prioritize PrioritizeConfig `json:"prioritize" mapstructure:"prioritize"`
}

// LLMConfig describes the generator and evaluator models.
type LLMConfig struct {
	Provider       string `json:"provider"                  mapstructure:"provider"`
	Model          string `json:"model"                     mapstructure:"model"`
	EvaluatorModel string `json:"evaluator_model,omitempty" mapstructure:"evaluator_model"`
	BaseURL        string `json:"base_url,omitempty"        mapstructure:"base_url"`
	APIKeyEnv      string `json:"api_key_env,omitempty"     mapstructure:"api_key_env"`
	Timeout        int    `json:"timeout,omitempty"         mapstructure:"timeout"`
}

// EmbeddingConfig describes the embedding provider and queue shape.
type EmbeddingConfig struct {
	Provider    string `json:"provider"              mapstructure:"provider"`
	Model       string `json:"model,omitempty"       mapstructure:"model"`
	APIKeyEnv   string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	BatchSize   int    `json:"batch_size,omitempty"  mapstructure:"batch_size"`
	Concurrency int    `json:"concurrency,omitempty" mapstructure:"concurrency"`
}

// PrioritizeConfig tunes the prioritization loop and its helpers.
type PrioritizeConfig struct {
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty" mapstructure:"confidence_threshold"`
	MaxIterations       int     `json:"max_iterations,omitempty"       mapstructure:"max_iterations"`
	DedupeThreshold     float64 `json:"dedupe_threshold,omitempty"     mapstructure:"dedupe_threshold"`
	NudgeGain           float64 `json:"nudge_gain,omitempty"           mapstructure:"nudge_gain"`
}

// Default returns the configuration installed by `focal init`.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
			Timeout:  120,
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			Model:       "text-embedding-3-small",
			BatchSize:   50,
			Concurrency: 3,
		},
		Prioritize: PrioritizeConfig{
			ConfidenceThreshold: 0.8,
			MaxIterations:       3,
			DedupeThreshold:     0.85,
			NudgeGain:           2.0,
		},
	}
}

// EvaluatorModelName returns the evaluator model, falling back to the
// generator model when none is configured.
func (c LLMConfig) EvaluatorModelName() string {
	if c.EvaluatorModel != "" {
		return c.EvaluatorModel
	}
	return c.Model
}
