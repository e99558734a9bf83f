// Package config loads engine configuration from a YAML file with
// one-to-one environment variable overrides (uppercased, underscored:
// llm.api_key -> LLM_API_KEY).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full engine configuration, consumed once at
// orchestrator construction.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Debate   DebateConfig   `mapstructure:"debate"`
	Data     DataConfig     `mapstructure:"data"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	API      APIConfig      `mapstructure:"api"`
	Logs     LogsConfig     `mapstructure:"logs"`
}

// LLMConfig selects the chat-completion backend and its call parameters.
type LLMConfig struct {
	Provider         string  `mapstructure:"provider"`
	APIKey           string  `mapstructure:"api_key"`
	BaseURL          string  `mapstructure:"base_url"`
	Model            string  `mapstructure:"model"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	Temperature      float64 `mapstructure:"temperature"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	RetryMaxAttempts int     `mapstructure:"retry_max_attempts"`
	RetryBaseSeconds int     `mapstructure:"retry_base_seconds"`
	RetryCapSeconds  int     `mapstructure:"retry_cap_seconds"`
	MaxIterations    int     `mapstructure:"max_iterations"`
}

// DebateConfig controls the research and risk debate rounds.
type DebateConfig struct {
	ResearchTeamMaxRounds int      `mapstructure:"research_team_max_rounds"`
	RiskTeamMaxRounds     int      `mapstructure:"risk_team_max_rounds"`
	MinConsensusThreshold float64  `mapstructure:"min_consensus_threshold"`
	Models                []string `mapstructure:"models"`
	RandomizeModels       bool     `mapstructure:"randomize_models"`
}

// DataConfig selects the market data source and cache behavior.
type DataConfig struct {
	MarketDataProvider string `mapstructure:"market_data_provider"` // "online" or "cached"
	CacheEnabled       bool   `mapstructure:"cache_enabled"`
	CacheTTL           int    `mapstructure:"cache_ttl"` // seconds
	RedisAddr          string `mapstructure:"redis_addr"`
	QuoteBaseURL       string `mapstructure:"quote_base_url"`
}

// BatchConfig bounds portfolio fan-out.
type BatchConfig struct {
	MaxWorkers int `mapstructure:"max_workers"`
}

// WorkflowConfig carries the default pipeline mode.
type WorkflowConfig struct {
	Mode string `mapstructure:"mode"` // "quick" or "full"
}

// LoggingConfig holds structured-logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SentryConfig enables optional crash reporting.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// APIConfig holds the HTTP server settings.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogsConfig sets the root for markdown/llm artifact trees.
type LogsConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration from the default search path
// (./config.yaml, ./config/config.yaml) plus environment overrides.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from an explicit path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys without a meaningful default still need to be registered so
	// AutomaticEnv can resolve them when they only arrive via environment.
	v.SetDefault("llm.api_key", "")
	v.SetDefault("data.quote_base_url", "")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout_seconds", 120)
	v.SetDefault("llm.retry_max_attempts", 5)
	v.SetDefault("llm.retry_base_seconds", 4)
	v.SetDefault("llm.retry_cap_seconds", 60)
	v.SetDefault("llm.max_iterations", 10)

	v.SetDefault("debate.research_team_max_rounds", 2)
	v.SetDefault("debate.risk_team_max_rounds", 2)
	v.SetDefault("debate.min_consensus_threshold", 0.6)
	v.SetDefault("debate.randomize_models", false)

	v.SetDefault("data.market_data_provider", "online")
	v.SetDefault("data.cache_enabled", false)
	v.SetDefault("data.cache_ttl", 300)
	v.SetDefault("data.redis_addr", "localhost:6379")

	v.SetDefault("batch.max_workers", 3)
	v.SetDefault("workflow.mode", "quick")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)

	v.SetDefault("logs.dir", "logs")
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Workflow.Mode != "quick" && c.Workflow.Mode != "full" {
		return fmt.Errorf("invalid workflow.mode %q: must be quick or full", c.Workflow.Mode)
	}
	if c.Data.MarketDataProvider != "online" && c.Data.MarketDataProvider != "cached" {
		return fmt.Errorf("invalid data.market_data_provider %q: must be online or cached", c.Data.MarketDataProvider)
	}
	if c.Batch.MaxWorkers < 1 {
		return fmt.Errorf("invalid batch.max_workers %d: must be >= 1", c.Batch.MaxWorkers)
	}
	if c.Debate.MinConsensusThreshold < 0 || c.Debate.MinConsensusThreshold > 1 {
		return fmt.Errorf("invalid debate.min_consensus_threshold %v: must be in [0,1]", c.Debate.MinConsensusThreshold)
	}
	if c.LLM.RetryMaxAttempts < 1 {
		return fmt.Errorf("invalid llm.retry_max_attempts %d: must be >= 1", c.LLM.RetryMaxAttempts)
	}
	return nil
}
