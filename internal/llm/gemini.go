package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiKeyEnv = "GEMINI_API_KEY"

// geminiAgent wraps the Gemini API for oneshot calls.
type geminiAgent struct {
	cfg   Config
	model string
}

func newGeminiAgent(cfg Config) (*geminiAgent, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	if resolveGeminiKey(cfg) == "" {
		return nil, fmt.Errorf("gemini api key is required (set api_key or api_key_env)")
	}
	return &geminiAgent{cfg: cfg, model: model}, nil
}

func resolveGeminiKey(cfg Config) string {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key
	}
	envKey := strings.TrimSpace(cfg.APIKeyEnv)
	if envKey == "" {
		envKey = defaultGeminiKeyEnv
	}
	return strings.TrimSpace(os.Getenv(envKey))
}

// Generate executes a single GenerateContent request.
func (a *geminiAgent) Generate(ctx context.Context, req Request) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  resolveGeminiKey(a.cfg),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, a.model,
		genai.Text(req.Input),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.Instructions, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	output := strings.TrimSpace(resp.Text())
	if output == "" {
		return "", fmt.Errorf("gemini response did not contain output text")
	}
	return output, nil
}
