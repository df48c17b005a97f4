// Package config loads application configuration from an optional yaml
// file plus VENDOR_-prefixed environment variables, and owns global
// logger initialization.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/procurelabs/vendor-research-cli/internal/cost"
	"github.com/procurelabs/vendor-research-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Pricing   cost.Rates      `yaml:"pricing" mapstructure:"pricing"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects and configures the versioned store backend.
type StoreConfig struct {
	// Driver is one of "file", "sqlite", "postgres".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the data file for the file and sqlite drivers.
	Path string `yaml:"path" mapstructure:"path"`
	// DatabaseURL is the postgres connection string.
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds text-generation service settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
	// EnrichModel rewrites raw queries into procurement-grade ones.
	EnrichModel string `yaml:"enrich_model" mapstructure:"enrich_model"`
	// ResearchModel runs web-search-backed vendor discovery.
	ResearchModel string `yaml:"research_model" mapstructure:"research_model"`
	// ExtractModel answers attribute questions against fetched pages.
	ExtractModel   string `yaml:"extract_model" mapstructure:"extract_model"`
	MaxWebSearches int64  `yaml:"max_web_searches" mapstructure:"max_web_searches"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RateRPS float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// FirecrawlConfig holds Firecrawl API settings (fallback only).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NotionConfig holds Notion API credentials.
type NotionConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
}

// RegistryConfig selects the optional extra comparison-attribute sources.
type RegistryConfig struct {
	File     string `yaml:"file" mapstructure:"file"`
	NotionDB string `yaml:"notion_db" mapstructure:"notion_db"`
}

// PipelineConfig tunes the research pipeline.
type PipelineConfig struct {
	// MaxWorkers bounds the extraction fan-out.
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers"`

	EnrichMaxTokens   int64 `yaml:"enrich_max_tokens" mapstructure:"enrich_max_tokens"`
	ResearchMaxTokens int64 `yaml:"research_max_tokens" mapstructure:"research_max_tokens"`
	ExtractMaxTokens  int64 `yaml:"extract_max_tokens" mapstructure:"extract_max_tokens"`

	// PageCharLimit truncates fetched markdown before it enters an
	// extraction prompt.
	PageCharLimit int `yaml:"page_char_limit" mapstructure:"page_char_limit"`

	Retry RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig tunes the shared retry executor.
type RetryConfig struct {
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialDelaySecs float64 `yaml:"initial_delay_secs" mapstructure:"initial_delay_secs"`
	MaxDelaySecs     float64 `yaml:"max_delay_secs" mapstructure:"max_delay_secs"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// Executor converts the declarative retry settings into an executor
// configuration for the named service and operation.
func (r RetryConfig) Executor(service, operation string) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxRetries:     r.MaxRetries,
		InitialDelay:   time.Duration(r.InitialDelaySecs * float64(time.Second)),
		MaxDelay:       time.Duration(r.MaxDelaySecs * float64(time.Second)),
		JitterFraction: r.JitterFraction,
		OnRetry:        resilience.RetryLogger(service, operation),
	}
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VENDOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data/vendors.json")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.enrich_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.research_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.extract_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_web_searches", 8)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.rate_rps", 2)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("pipeline.max_workers", 4)
	v.SetDefault("pipeline.enrich_max_tokens", 2048)
	v.SetDefault("pipeline.research_max_tokens", 8192)
	v.SetDefault("pipeline.extract_max_tokens", 1024)
	v.SetDefault("pipeline.page_char_limit", 15000)
	v.SetDefault("pipeline.retry.max_retries", 3)
	v.SetDefault("pipeline.retry.initial_delay_secs", 5)
	v.SetDefault("pipeline.retry.max_delay_secs", 120)
	v.SetDefault("pipeline.retry.jitter_fraction", 0.2)
	v.SetDefault("pricing.reader.per_mtok", 0.02)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Per-model rates nest too deeply for SetDefault; fill them in when
	// the file doesn't override pricing.
	if len(cfg.Pricing.Text) == 0 {
		cfg.Pricing.Text = cost.DefaultRates().Text
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
