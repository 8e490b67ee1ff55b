package main

import (
	"os"
	"path/filepath"
	"time"

	"focal/internal/config"
	"focal/internal/db"
	"focal/internal/embedding"
	"focal/internal/llm"
	"focal/internal/store"
)

func openStore() (*store.Store, string, func(), error) {
	repoRoot, err := os.Getwd()
	if err != nil {
		return nil, "", func() {}, err
	}
	focalDir := filepath.Join(repoRoot, ".focal")
	if err := os.MkdirAll(focalDir, 0o755); err != nil {
		return nil, "", func() {}, err
	}
	dbPath := filepath.Join(focalDir, "focal.db")
	handle, err := db.Open(dbPath)
	if err != nil {
		return nil, "", func() {}, err
	}
	return store.New(handle), repoRoot, func() { _ = handle.Close() }, nil
}

func newGenerator(cfg config.Config) (llm.Agent, error) {
	return llm.NewAgent(llm.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Timeout:   cfg.LLM.Timeout,
	})
}

func newEvaluator(cfg config.Config) (llm.Agent, error) {
	return llm.NewAgent(llm.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.EvaluatorModelName(),
		BaseURL:   cfg.LLM.BaseURL,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Timeout:   cfg.LLM.Timeout,
	})
}

func newEmbeddingProvider(cfg config.Config) (embedding.Provider, error) {
	return embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		Model:     cfg.Embedding.Model,
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		Timeout:   30 * time.Second,
	})
}
