package reflection

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"focal/internal/dedupe"
	"focal/internal/embedding"
)

// Scorer computes how relevant a task is to a reflection. Higher
// textual/semantic overlap means a stronger nudge; the exact algorithm
// is pluggable.
type Scorer interface {
	Relevance(ctx context.Context, taskText, reflectionText string) (float64, error)
}

// Excluder is an optional capability: a reflection may fully suppress
// tasks on a topic ("ignore documentation tasks"). Implementations
// return the matched topic for the diff reason.
type Excluder interface {
	Excludes(taskText, reflectionText string) (bool, string)
}

// EmbeddingScorer scores relevance as cosine similarity of embeddings.
type EmbeddingScorer struct {
	provider embedding.Provider

	// per-call cache; reflections repeat across tasks
	cache map[string][]float32
}

// NewEmbeddingScorer creates a scorer backed by an embedding provider.
func NewEmbeddingScorer(provider embedding.Provider) *EmbeddingScorer {
	return &EmbeddingScorer{provider: provider, cache: make(map[string][]float32)}
}

// Relevance embeds both texts and returns their cosine similarity.
func (s *EmbeddingScorer) Relevance(ctx context.Context, taskText, reflectionText string) (float64, error) {
	taskVec, err := s.embed(ctx, taskText)
	if err != nil {
		return 0, fmt.Errorf("embed task text: %w", err)
	}
	refVec, err := s.embed(ctx, reflectionText)
	if err != nil {
		return 0, fmt.Errorf("embed reflection text: %w", err)
	}
	return float64(dedupe.CosineSimilarity(taskVec, refVec)), nil
}

func (s *EmbeddingScorer) embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.cache[text]; ok {
		return vec, nil
	}
	vec, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache[text] = vec
	return vec, nil
}

// LexicalScorer scores relevance as token overlap. Deterministic and
// offline; also the default Excluder via ignore/skip/exclude phrases.
type LexicalScorer struct{}

// Relevance returns |tokens(task) ∩ tokens(reflection)| / |tokens(reflection)|.
func (LexicalScorer) Relevance(_ context.Context, taskText, reflectionText string) (float64, error) {
	refTokens := tokenize(reflectionText)
	if len(refTokens) == 0 {
		return 0, nil
	}
	taskTokens := make(map[string]bool)
	for _, tok := range tokenize(taskText) {
		taskTokens[tok] = true
	}
	matched := 0
	for _, tok := range refTokens {
		if taskTokens[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(refTokens)), nil
}

var exclusionVerbs = []string{"ignore", "skip", "exclude", "drop"}

// Excludes reports whether the reflection starts with an exclusion verb
// ("ignore documentation tasks") and the task mentions the named topic.
func (LexicalScorer) Excludes(taskText, reflectionText string) (bool, string) {
	tokens := tokenize(reflectionText)
	if len(tokens) < 2 {
		return false, ""
	}
	verb := tokens[0]
	matchedVerb := false
	for _, v := range exclusionVerbs {
		if verb == v {
			matchedVerb = true
			break
		}
	}
	if !matchedVerb {
		return false, ""
	}

	taskTokens := make(map[string]bool)
	for _, tok := range tokenize(taskText) {
		taskTokens[tok] = true
	}
	for _, topic := range tokens[1:] {
		if topic == "tasks" || topic == "task" {
			continue
		}
		if taskTokens[topic] {
			return true, topic
		}
	}
	return false, ""
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 { // drop stopword-sized tokens
			out = append(out, f)
		}
	}
	return out
}
