package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	AI       AIConfig       `toml:"ai"`
	Sources  SourcesConfig  `toml:"sources"`
	Enrich   EnrichConfig   `toml:"enrich"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Digest   DigestConfig   `toml:"digest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// AIConfig holds the text-generation service settings used by the
// structured classifier.
type AIConfig struct {
	APIKey        string `toml:"api_key"`
	Model         string `toml:"model"`
	MaxConcurrent int    `toml:"max_concurrent"`
	MaxTokens     int    `toml:"max_tokens"`
}

// SourcesConfig holds per-source settings for the fetch stage.
type SourcesConfig struct {
	NewsAPIKey   string   `toml:"news_api_key"`
	Keywords     []string `toml:"keywords"`
	MediumFeeds  []string `toml:"medium_feeds"`
	MaxPerSource int      `toml:"max_per_source"`
}

// EnrichConfig holds settings for the best-effort content enrichment stage.
type EnrichConfig struct {
	MaxConcurrent  int `toml:"max_concurrent"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// PipelineConfig holds scheduling settings for the refresh pipeline.
type PipelineConfig struct {
	RefreshIntervalMinutes int `toml:"refresh_interval_minutes"`
}

// DigestConfig holds settings for the daily email digest.
type DigestConfig struct {
	ResendAPIKey string `toml:"resend_api_key"`
	FromEmail    string `toml:"from_email"`
	AppURL       string `toml:"app_url"`
	SendTimeUTC  string `toml:"send_time_utc"`
	MaxArticles  int    `toml:"max_articles"`
	MinRelevance int    `toml:"min_relevance"`
}

// defaultKeywords is the relevance vocabulary applied when the config file
// does not override sources.keywords. It is product tuning, not contract:
// adapters treat it as opaque configuration.
var defaultKeywords = []string{
	"artificial intelligence", "machine learning", "LLM", "large language model",
	"GPT", "Claude", "Gemini", "Llama", "transformer", "neural network",
	"generative AI", "foundation model", "RAG", "vector database",
	"MLOps", "LLMOps", "AI platform", "AI infrastructure", "model deployment",
	"inference", "fine-tuning", "embeddings", "AI agent", "agentic",
	"kubernetes AI", "cloud AI", "AI observability", "AI gateway",
	"openai", "anthropic", "mistral", "cohere", "hugging face",
	"langchain", "llamaindex", "dspy", "crewai", "autogen",
	"platform engineering", "developer platform", "AI tooling", "AI SDK",
}

// defaultMediumFeeds lists the Medium tag feeds pulled through the
// rss2json proxy when the config file does not override sources.medium_feeds.
var defaultMediumFeeds = []string{
	"https://medium.com/feed/tag/artificial-intelligence",
	"https://medium.com/feed/tag/machine-learning",
	"https://medium.com/feed/tag/platform-engineering",
	"https://medium.com/feed/tag/mlops",
}

const defaultConfigContent = `[server]
port = 8080

[ai]
api_key = ""                      # Anthropic API key (or set ANTHROPIC_API_KEY)
model = "claude-haiku-4-5"
max_concurrent = 5
max_tokens = 600

[sources]
news_api_key = ""                 # NewsAPI key (or set NEWS_API_KEY); empty skips the source
max_per_source = 30
# keywords = [...]                # relevance vocabulary; defaults cover AI/platform engineering
# medium_feeds = [...]            # Medium tag feeds fetched via the rss2json proxy

[enrich]
max_concurrent = 10
timeout_seconds = 8

[pipeline]
refresh_interval_minutes = 60

[digest]
resend_api_key = ""               # Resend API key (or set RESEND_API_KEY)
from_email = "AI News Tracker <digest@yourdomain.com>"
app_url = "http://localhost:3000"
send_time_utc = "08:00"
max_articles = 10
min_relevance = 5
`

// Load reads and parses the TOML config from the given path. If the file
// does not exist, a default config file is created at that path.
// Environment variables override credential values from the file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("ai", "max_concurrent") {
		if cfg.AI.MaxConcurrent < 1 {
			return fmt.Errorf("invalid ai.max_concurrent %d: must be >= 1", cfg.AI.MaxConcurrent)
		}
	}
	if md.IsDefined("enrich", "max_concurrent") {
		if cfg.Enrich.MaxConcurrent < 1 {
			return fmt.Errorf("invalid enrich.max_concurrent %d: must be >= 1", cfg.Enrich.MaxConcurrent)
		}
	}
	if md.IsDefined("pipeline", "refresh_interval_minutes") {
		if cfg.Pipeline.RefreshIntervalMinutes < 1 {
			return fmt.Errorf("invalid pipeline.refresh_interval_minutes %d: must be >= 1", cfg.Pipeline.RefreshIntervalMinutes)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "claude-haiku-4-5"
	}
	if cfg.AI.MaxConcurrent == 0 {
		cfg.AI.MaxConcurrent = 5
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 600
	}
	if len(cfg.Sources.Keywords) == 0 {
		cfg.Sources.Keywords = defaultKeywords
	}
	if len(cfg.Sources.MediumFeeds) == 0 {
		cfg.Sources.MediumFeeds = defaultMediumFeeds
	}
	if cfg.Sources.MaxPerSource == 0 {
		cfg.Sources.MaxPerSource = 30
	}
	if cfg.Enrich.MaxConcurrent == 0 {
		cfg.Enrich.MaxConcurrent = 10
	}
	if cfg.Enrich.TimeoutSeconds == 0 {
		cfg.Enrich.TimeoutSeconds = 8
	}
	if cfg.Pipeline.RefreshIntervalMinutes == 0 {
		cfg.Pipeline.RefreshIntervalMinutes = 60
	}
	if cfg.Digest.FromEmail == "" {
		cfg.Digest.FromEmail = "AI News Tracker <digest@yourdomain.com>"
	}
	if cfg.Digest.AppURL == "" {
		cfg.Digest.AppURL = "http://localhost:3000"
	}
	if cfg.Digest.SendTimeUTC == "" {
		cfg.Digest.SendTimeUTC = "08:00"
	}
	if cfg.Digest.MaxArticles == 0 {
		cfg.Digest.MaxArticles = 10
	}
	if cfg.Digest.MinRelevance == 0 {
		cfg.Digest.MinRelevance = 5
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take priority over config file values for credentials.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.Sources.NewsAPIKey = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Digest.ResendAPIKey = v
	}
	if v := os.Getenv("FROM_EMAIL"); v != "" {
		cfg.Digest.FromEmail = v
	}
	if v := os.Getenv("APP_URL"); v != "" {
		cfg.Digest.AppURL = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if _, err := time.Parse("15:04", cfg.Digest.SendTimeUTC); err != nil {
		return fmt.Errorf("invalid digest.send_time_utc %q: must be HH:MM", cfg.Digest.SendTimeUTC)
	}

	if cfg.Digest.MinRelevance < 0 || cfg.Digest.MinRelevance > 10 {
		return fmt.Errorf("invalid digest.min_relevance %d: must be between 0 and 10", cfg.Digest.MinRelevance)
	}

	if cfg.AI.APIKey == "" {
		slog.Warn("ai.api_key is empty: classification will fall back to default records")
	}

	return nil
}

// SendTime returns the digest send time as hour and minute in UTC.
// Config validation guarantees the stored value parses.
func (c *Config) SendTime() (hour, minute int) {
	t, err := time.Parse("15:04", c.Digest.SendTimeUTC)
	if err != nil {
		return 8, 0
	}
	return t.Hour(), t.Minute()
}
