package sentiment

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/brandpulse/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt([]string{"I love my Trek.", `Giant "Defy" is meh`})

	if !strings.Contains(prompt, "exactly 2 objects") {
		t.Error("expected prompt to state the result count")
	}
	if !strings.Contains(prompt, `1. "I love my Trek."`) {
		t.Error("expected first text to be numbered and quoted")
	}
	if !strings.Contains(prompt, `2. "Giant \"Defy\" is meh"`) {
		t.Error("expected quotes inside texts to be escaped")
	}
}

func TestParseResults(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"object", `{"results":[{"label":"Positive","score":0.9},{"label":"negative","score":0.7}]}`},
		{"array", `[{"label":"positive","score":0.9},{"label":"NEGATIVE","score":0.7}]`},
		{"fenced", "```json\n{\"results\":[{\"label\":\"positive\",\"score\":0.9},{\"label\":\"negative\",\"score\":0.7}]}\n```"},
		{"prose", `Sure! {"results":[{"label":"positive","score":0.9},{"label":"negative","score":0.7}]} Hope this helps.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResults(tt.content, 2)
			if err != nil {
				t.Fatalf("ParseResults failed: %v", err)
			}
			if got[0] != (model.Sentiment{Label: "positive", Score: 0.9}) {
				t.Errorf("unexpected first result %+v", got[0])
			}
			if got[1] != (model.Sentiment{Label: "negative", Score: 0.7}) {
				t.Errorf("unexpected second result %+v", got[1])
			}
		})
	}
}

func TestParseResults_Mismatch(t *testing.T) {
	_, err := ParseResults(`{"results":[{"label":"positive","score":0.9}]}`, 2)
	if !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("expected ErrBatchMismatch, got %v", err)
	}
}

func TestParseResults_NoJSON(t *testing.T) {
	if _, err := ParseResults("I cannot do that", 1); err == nil {
		t.Error("expected error for answer without JSON")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		label string
		score float64
		want  model.Sentiment
	}{
		{"Positive", 0.8, model.Sentiment{Label: "positive", Score: 0.8}},
		{" NEUTRAL ", 0.6, model.Sentiment{Label: "neutral", Score: 0.6}},
		{"LABEL_0", 0.9, model.Sentiment{Label: "negative", Score: 0.9}},
		{"LABEL_2", 1.7, model.Sentiment{Label: "positive", Score: 1}},
		{"negative", -0.2, model.Sentiment{Label: "negative", Score: 0}},
	}
	for _, tt := range tests {
		if got := Normalize(tt.label, tt.score); got != tt.want {
			t.Errorf("Normalize(%q, %v): expected %+v, got %+v", tt.label, tt.score, tt.want, got)
		}
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Sentiment.Provider = "openai"
	cfg.Sentiment.APIKey = "k"
	cfg.Ingest.HTTPSProxy = "http://proxy:3128"

	c := ConfigFromModel(cfg)
	if c.Provider != "openai" || c.APIKey != "k" || c.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("unexpected config %+v", c)
	}
	if c.Timeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %v", c.Timeout)
	}
}

func TestNewHTTPClient_Timeout(t *testing.T) {
	if c := newHTTPClient(Config{Timeout: 45 * time.Second}, time.Minute); c.Timeout != 45*time.Second {
		t.Errorf("expected 45s, got %v", c.Timeout)
	}
	if c := newHTTPClient(Config{}, time.Minute); c.Timeout != time.Minute {
		t.Errorf("expected fallback 1m, got %v", c.Timeout)
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		config  Config
		name    string
		wantErr bool
	}{
		{Config{}, "lexicon", false},
		{Config{Provider: "huggingface"}, "huggingface", false},
		{Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{Config{Provider: "claude", APIKey: "k"}, "anthropic", false},
		{Config{Provider: "ollama", Model: "llama3.1"}, "ollama", false},
		{Config{Provider: "openai"}, "", true},
		{Config{Provider: "ollama"}, "", true},
		{Config{Provider: "bert"}, "", true},
	}

	for _, tt := range tests {
		p, err := NewProvider(tt.config)
		if tt.wantErr {
			if err == nil {
				t.Errorf("expected error for %+v", tt.config)
			}
			continue
		}
		if err != nil {
			t.Errorf("unexpected error for %+v: %v", tt.config, err)
			continue
		}
		if p.Name() != tt.name {
			t.Errorf("expected provider %s, got %s", tt.name, p.Name())
		}
	}
}

func TestNewProvider_MissingKeyIsUnavailable(t *testing.T) {
	_, err := NewProvider(Config{Provider: "anthropic"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
