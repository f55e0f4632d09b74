package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/brandpulse/internal/logger"
	"github.com/ppiankov/brandpulse/internal/model"
)

// Version is overridden at build time with -ldflags
var Version = "v0.1.0"

const envPrefix = "BRANDPULSE"

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "brandpulse",
	Short: "brandpulse - brand sentiment from forum comments",
	Long: `brandpulse measures how forum users feel about brands.

It fetches comments from public forum listings, attributes them to brands
with typo-tolerant matching, splits comments that name several brands into
brand-specific segments, labels each segment's sentiment and aggregates the
results per brand and per forum.

Every stage reads and writes newline-delimited JSON, so stages can be rerun
independently.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("brandpulse %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.brandpulse/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := registerDefaults(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// BRANDPULSE_SENTIMENT_PROVIDER overrides sentiment.provider
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindOptionalEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults seeds v with every key of the default config so that
// environment variables can override keys absent from the config file
func registerDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return err
	}
	var defaults map[string]any
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return nil
}

// optionalKeys are omitted from the marshalled defaults when empty
var optionalKeys = []string{
	"sentiment.api_key", "sentiment.base_url",
	"ingest.http_proxy", "ingest.https_proxy", "ingest.no_proxy",
}

// bindOptionalEnv makes optional keys visible to Unmarshal when they are only
// set in the environment. Call after SetEnvPrefix.
func bindOptionalEnv(v *viper.Viper) {
	for _, key := range optionalKeys {
		_ = v.BindEnv(key)
	}
}

// loadConfig decodes the effective configuration from v on top of the
// defaults and fills API keys from the conventional provider variables
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Sentiment.APIKey == "" {
		cfg.Sentiment.APIKey = providerAPIKey(cfg.Sentiment.Provider)
	}
	if cfg.Sentiment.BaseURL == "" && strings.EqualFold(cfg.Sentiment.Provider, "ollama") {
		cfg.Sentiment.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func providerAPIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "huggingface", "hf":
		if key := os.Getenv("HF_TOKEN"); key != "" {
			return key
		}
		return os.Getenv("HUGGINGFACE_API_KEY")
	}
	return ""
}

// setup loads the configuration and builds the logger for a command
func setup() (*model.Config, logger.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".brandpulse"), nil
}
