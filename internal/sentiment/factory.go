package sentiment

import (
	"fmt"
	"strings"
)

// NewProvider creates the provider named by config.Provider. An empty name selects the lexicon.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "", "lexicon", "vader":
		return NewLexiconProvider(), nil

	case "huggingface", "hf":
		return NewHuggingFaceProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown sentiment provider: %s (supported: lexicon, huggingface, openai, anthropic, ollama)", config.Provider)
	}
}
