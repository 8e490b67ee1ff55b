package config

import "testing"

func validSettings() map[string]any {
	return map[string]any{
		"llm": map[string]any{
			"provider": "openai",
			"model":    "gpt-4o",
		},
		"embedding": map[string]any{
			"provider":    "openai",
			"batch_size":  50,
			"concurrency": 3,
		},
		"prioritize": map[string]any{
			"confidence_threshold": 0.8,
			"max_iterations":       3,
		},
	}
}

func TestValidateSettings_Valid(t *testing.T) {
	t.Parallel()

	if err := ValidateSettings(validSettings()); err != nil {
		t.Fatalf("ValidateSettings returned error: %v", err)
	}
}

func TestValidateSettings_MissingLLM(t *testing.T) {
	t.Parallel()

	settings := validSettings()
	delete(settings, "llm")
	if err := ValidateSettings(settings); err == nil {
		t.Fatal("expected error for missing llm section")
	}
}

func TestValidateSettings_UnknownProvider(t *testing.T) {
	t.Parallel()

	settings := validSettings()
	settings["llm"].(map[string]any)["provider"] = "carrier-pigeon"
	if err := ValidateSettings(settings); err == nil {
		t.Fatal("expected error for unknown llm provider")
	}
}

func TestValidateSettings_ThresholdOutOfRange(t *testing.T) {
	t.Parallel()

	settings := validSettings()
	settings["prioritize"].(map[string]any)["confidence_threshold"] = 1.5
	if err := ValidateSettings(settings); err == nil {
		t.Fatal("expected error for confidence_threshold > 1")
	}
}

func TestDefault_PassesSchema(t *testing.T) {
	t.Parallel()

	cfg := Default()
	settings := map[string]any{
		"llm": map[string]any{
			"provider": cfg.LLM.Provider,
			"model":    cfg.LLM.Model,
			"timeout":  cfg.LLM.Timeout,
		},
		"embedding": map[string]any{
			"provider":    cfg.Embedding.Provider,
			"model":       cfg.Embedding.Model,
			"batch_size":  cfg.Embedding.BatchSize,
			"concurrency": cfg.Embedding.Concurrency,
		},
		"prioritize": map[string]any{
			"confidence_threshold": cfg.Prioritize.ConfidenceThreshold,
			"max_iterations":       cfg.Prioritize.MaxIterations,
			"dedupe_threshold":     cfg.Prioritize.DedupeThreshold,
			"nudge_gain":           cfg.Prioritize.NudgeGain,
		},
	}
	if err := ValidateSettings(settings); err != nil {
		t.Fatalf("default config failed schema validation: %v", err)
	}
}

func TestEvaluatorModelName(t *testing.T) {
	t.Parallel()

	cfg := LLMConfig{Model: "gpt-4o"}
	if got := cfg.EvaluatorModelName(); got != "gpt-4o" {
		t.Fatalf("EvaluatorModelName = %q, want fallback to model", got)
	}
	cfg.EvaluatorModel = "gpt-4o-mini"
	if got := cfg.EvaluatorModelName(); got != "gpt-4o-mini" {
		t.Fatalf("EvaluatorModelName = %q, want %q", got, "gpt-4o-mini")
	}
}
