package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GoogleConfig holds Custom Search API credentials.
type GoogleConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	SearchEngineID string `yaml:"search_engine_id" mapstructure:"search_engine_id"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for website classification.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// DiscoveryConfig configures website candidate search.
type DiscoveryConfig struct {
	MaxQueries      int      `yaml:"max_queries" mapstructure:"max_queries"`
	MaxCandidates   int      `yaml:"max_candidates" mapstructure:"max_candidates"`
	QueryDelayMS    int      `yaml:"query_delay_ms" mapstructure:"query_delay_ms"`
	ExcludedDomains []string `yaml:"excluded_domains" mapstructure:"excluded_domains"`
}

// FetchConfig configures website text retrieval.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  int    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxBodyKB   int    `yaml:"max_body_kb" mapstructure:"max_body_kb"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ScoringConfig configures the confidence scoring engine.
type ScoringConfig struct {
	Policy     string `yaml:"policy" mapstructure:"policy"`
	PolicyFile string `yaml:"policy_file" mapstructure:"policy_file"`
	// AreaCodes and Places override the geographic evidence reference sets.
	// Empty means the Washington defaults.
	AreaCodes []string `yaml:"area_codes" mapstructure:"area_codes"`
	Places    []string `yaml:"places" mapstructure:"places"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	Size          int `yaml:"size" mapstructure:"size"`
}

// ServerConfig configures the review/webhook server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ExportConfig configures approved-record export.
type ExportConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that required settings for a run mode are present. Modes:
// "enrich" (discovery + classification), "serve" (review server), "export",
// "import".
func (c *Config) Validate(mode string) error {
	var missing []string

	checkDB := func() {
		// SQLite falls back to a local file when no URL is set.
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	}
	checkBatch := func() {
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 50 {
			missing = append(missing, "batch.max_concurrent must be between 1 and 50")
		}
	}

	switch mode {
	case "enrich":
		checkDB()
		checkBatch()
		if c.Google.Key == "" {
			missing = append(missing, "google.key is required")
		}
		if c.Google.SearchEngineID == "" {
			missing = append(missing, "google.search_engine_id is required")
		}
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
	case "serve":
		checkDB()
		checkBatch()
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	case "export", "import":
		checkDB()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONTRACTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("discovery.max_queries", 4)
	v.SetDefault("discovery.max_candidates", 10)
	v.SetDefault("discovery.query_delay_ms", 1000)
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 2)
	v.SetDefault("fetch.max_body_kb", 512)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; contractor-cli/1.0)")
	v.SetDefault("scoring.policy", "canonical")
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("batch.size", 50)
	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.format", "csv")

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
