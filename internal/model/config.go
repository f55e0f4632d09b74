package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete brandpulse configuration
type Config struct {
	Brands    BrandsConfig    `yaml:"brands" mapstructure:"brands"`
	Matching  MatchingConfig  `yaml:"matching" mapstructure:"matching"`
	Sentiment SentimentConfig `yaml:"sentiment" mapstructure:"sentiment"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// BrandsConfig lists the keywords searched for in comments
type BrandsConfig struct {
	Keywords    []string `yaml:"keywords" mapstructure:"keywords"`         // Canonical brand names, iteration order is significant
	NoLowercase []string `yaml:"no_lowercase" mapstructure:"no_lowercase"` // Brands that double as common lowercase words
}

// MatchingConfig controls fuzzy matching and frequency filtering
type MatchingConfig struct {
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"`             // Score must be strictly greater
	MinOccurrences int     `yaml:"min_occurrences" mapstructure:"min_occurrences"` // Brands below this count are dropped
}

// SentimentConfig configures the sentiment collaborator
type SentimentConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"` // huggingface, openai, anthropic, ollama, lexicon
	Model          string        `yaml:"model" mapstructure:"model"`
	APIKey         string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	BatchSize      int           `yaml:"batch_size" mapstructure:"batch_size"`
	Workers        int           `yaml:"workers" mapstructure:"workers"`
	MinConfidence  float64       `yaml:"min_confidence" mapstructure:"min_confidence"`
	ExcludedLabels []string      `yaml:"excluded_labels" mapstructure:"excluded_labels"`
}

// IngestConfig configures the forum API client
type IngestConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Forums            []string      `yaml:"forums" mapstructure:"forums"`
	Listings          []string      `yaml:"listings" mapstructure:"listings"`
	Pages             int           `yaml:"pages" mapstructure:"pages"`
	PageSize          int           `yaml:"page_size" mapstructure:"page_size"`
	Since             string        `yaml:"since" mapstructure:"since"` // YYYY-MM-DD, posts created before are ignored
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	Workers           int           `yaml:"workers" mapstructure:"workers"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the HTTP response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ReportConfig configures aggregation and rendering
type ReportConfig struct {
	MinForumTotal int  `yaml:"min_forum_total" mapstructure:"min_forum_total"`
	TopN          int  `yaml:"top_n" mapstructure:"top_n"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// DefaultConfig returns the configuration used for the cycling forums
func DefaultConfig() *Config {
	return &Config{
		Brands: BrandsConfig{
			Keywords: []string{
				"Argon 18", "Bianchi", "BMC", "Cannondale", "Canyon", "Cervelo",
				"Cinelli", "Colnago", "Cube", "Giant", "Merida", "Orbea",
				"Pinarello", "Ridley", "Rose", "Scott", "Specialized", "Trek",
				"Ventum", "Wilier",
			},
			NoLowercase: []string{"Cube", "Giant", "Rose"},
		},
		Matching: MatchingConfig{
			Threshold:      85,
			MinOccurrences: 100,
		},
		Sentiment: SentimentConfig{
			Provider:       "lexicon",
			Timeout:        60 * time.Second,
			BatchSize:      256,
			Workers:        2,
			MinConfidence:  0.5,
			ExcludedLabels: []string{LabelNeutral},
		},
		Ingest: IngestConfig{
			BaseURL:           "https://www.reddit.com",
			Forums:            []string{"bicycling", "cycling", "RoadBikes"},
			Listings:          []string{"hot", "new", "top"},
			Pages:             10,
			PageSize:          100,
			Since:             "2024-01-01",
			UserAgent:         "brandpulse/0.1 (+https://github.com/ppiankov/brandpulse)",
			Timeout:           30 * time.Second,
			MaxBodyBytes:      8_000_000,
			RequestsPerSecond: 0.5,
			Burst:             1,
			Workers:           2,
			RespectRobots:     true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".brandpulse-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Report: ReportConfig{
			MinForumTotal: 100,
			TopN:          3,
			IncludeFooter: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot work with
func (c *Config) Validate() error {
	if len(c.Brands.Keywords) == 0 {
		return fmt.Errorf("%w: brands.keywords is empty", ErrInvalidConfig)
	}
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 100 {
		return fmt.Errorf("%w: matching.threshold %.1f outside [0,100]", ErrInvalidConfig, c.Matching.Threshold)
	}
	if c.Matching.MinOccurrences < 0 {
		return fmt.Errorf("%w: matching.min_occurrences must not be negative", ErrInvalidConfig)
	}
	if c.Sentiment.BatchSize <= 0 {
		return fmt.Errorf("%w: sentiment.batch_size must be positive", ErrInvalidConfig)
	}
	if c.Sentiment.MinConfidence < 0 || c.Sentiment.MinConfidence > 1 {
		return fmt.Errorf("%w: sentiment.min_confidence %.2f outside [0,1]", ErrInvalidConfig, c.Sentiment.MinConfidence)
	}
	if _, err := c.Ingest.SinceTime(); err != nil {
		return fmt.Errorf("%w: ingest.since: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SinceTime parses Ingest.Since; an empty value disables the cutoff
func (c IngestConfig) SinceTime() (time.Time, error) {
	if c.Since == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", c.Since)
}
