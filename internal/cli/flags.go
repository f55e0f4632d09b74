package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// bindFlags binds the named flags of cmd to config keys. It runs from
// PreRunE so that commands sharing a key do not overwrite each other's binding.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %s: %w", flag, err)
		}
	}
	return nil
}

func bindPreRun(keys map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, keys)
	}
}

var matchingFlags = map[string]string{
	"threshold":       "matching.threshold",
	"min-occurrences": "matching.min_occurrences",
}

var sentimentFlags = map[string]string{
	"provider":       "sentiment.provider",
	"model":          "sentiment.model",
	"batch-size":     "sentiment.batch_size",
	"min-confidence": "sentiment.min_confidence",
}

func addMatchingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", 85, "fuzzy match score a word must exceed")
	cmd.Flags().Int("min-occurrences", 100, "drop brands with fewer records")
}

func addSentimentFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "lexicon", "sentiment provider (lexicon, huggingface, openai, anthropic, ollama)")
	cmd.Flags().String("model", "", "provider model name (provider default when empty)")
	cmd.Flags().Int("batch-size", 256, "texts per provider request")
	cmd.Flags().Float64("min-confidence", 0.5, "drop labels below this confidence")
}

func merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
