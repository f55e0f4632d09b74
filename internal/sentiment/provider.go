// Package sentiment labels text spans as positive, negative or neutral.
package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/brandpulse/internal/model"
)

var (
	// ErrUnavailable means the provider could not be reached or is not configured
	ErrUnavailable = errors.New("sentiment provider unavailable")
	// ErrBatchMismatch means a provider returned a different number of labels than inputs
	ErrBatchMismatch = errors.New("sentiment result count mismatch")
)

// Provider classifies a batch of texts. Results are returned in input order.
type Provider interface {
	Name() string
	Classify(ctx context.Context, texts []string) ([]model.Sentiment, error)
	IsAvailable(ctx context.Context) bool
}

// Config holds provider configuration
type Config struct {
	Provider string // huggingface, openai, anthropic, ollama, lexicon
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns the offline lexicon configuration
func DefaultConfig() Config {
	return Config{
		Provider: "lexicon",
		Timeout:  60 * time.Second,
	}
}

// ConfigFromModel maps the application config onto a provider config.
// Proxy settings are shared with ingestion.
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.Sentiment.Provider,
		Model:      cfg.Sentiment.Model,
		APIKey:     cfg.Sentiment.APIKey,
		BaseURL:    cfg.Sentiment.BaseURL,
		Timeout:    cfg.Sentiment.Timeout,
		HTTPProxy:  cfg.Ingest.HTTPProxy,
		HTTPSProxy: cfg.Ingest.HTTPSProxy,
		NoProxy:    cfg.Ingest.NoProxy,
	}
}

const systemPrompt = "You are a sentiment classifier for bicycle forum comments. " +
	"You answer with JSON only."

// BuildPrompt asks a chat model to label every text. The expected answer is
// {"results":[{"label":"positive|negative|neutral","score":0.0-1.0}, ...]}
// with exactly one entry per text, in order.
func BuildPrompt(texts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Classify the sentiment of each of the %d numbered texts below towards the brand it mentions.

Rules:
1. Answer with a JSON object {"results": [...]} and nothing else.
2. "results" must contain exactly %d objects, one per text, in the same order.
3. Each object is {"label": "positive" | "negative" | "neutral", "score": <confidence between 0 and 1>}.

Texts:
`, len(texts), len(texts))

	for i, t := range texts {
		line, _ := json.Marshal(t)
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	return b.String()
}

type labelled struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ParseResults decodes a chat model answer produced for BuildPrompt.
// Code fences and text around the JSON are tolerated; a bare array is accepted too.
func ParseResults(content string, want int) ([]model.Sentiment, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON in response: %q", truncate(content, 120))
	}

	var items []labelled
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
	} else {
		var wrapped struct {
			Results []labelled `json:"results"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		items = wrapped.Results
	}

	if len(items) != want {
		return nil, fmt.Errorf("%w: got %d results for %d texts", ErrBatchMismatch, len(items), want)
	}

	out := make([]model.Sentiment, len(items))
	for i, it := range items {
		out[i] = Normalize(it.Label, it.Score)
	}
	return out, nil
}

// Normalize lower-cases the label, maps model-specific aliases onto
// positive/negative/neutral and clamps the score to [0,1]
func Normalize(label string, score float64) model.Sentiment {
	l := strings.ToLower(strings.TrimSpace(label))
	switch l {
	case "pos", "label_2", "5 stars", "4 stars":
		l = model.LabelPositive
	case "neg", "label_0", "1 star", "2 stars":
		l = model.LabelNegative
	case "neu", "label_1", "3 stars":
		l = model.LabelNeutral
	}

	switch {
	case math.IsNaN(score):
		score = 0
	case score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	return model.Sentiment{Label: l, Score: score}
}

func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
