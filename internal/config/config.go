package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fast      FastConfig      `yaml:"fast" mapstructure:"fast"`
	Deep      DeepConfig      `yaml:"deep" mapstructure:"deep"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Langcode  LangcodeConfig  `yaml:"langcode" mapstructure:"langcode"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the audit record database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// FastConfig selects the statistical detector.
type FastConfig struct {
	Backend   string   `yaml:"backend" mapstructure:"backend"`
	Languages []string `yaml:"languages" mapstructure:"languages"`
}

// DeepConfig configures the LLM-backed detector.
type DeepConfig struct {
	Provider                string  `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs             float64 `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxTokens               int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RatePerSec              float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst               int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	BreakerFailureThreshold int     `yaml:"breaker_failure_threshold" mapstructure:"breaker_failure_threshold"`
	BreakerResetSecs        int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the deep phase bound.
func (d DeepConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSecs * float64(time.Second))
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for an OpenAI-compatible chat API.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LangcodeConfig points at an optional alias overrides file.
type LangcodeConfig struct {
	AliasesFile string `yaml:"aliases_file" mapstructure:"aliases_file"`
}

// AuditConfig bounds audit record writes.
type AuditConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-record write bound.
func (a AuditConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// BatchConfig configures batch detection.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("LANGID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so AutomaticEnv can see it on Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "langid.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("fast.backend", "lingua")
	v.SetDefault("fast.languages", []string{})
	v.SetDefault("deep.provider", "anthropic")
	v.SetDefault("deep.timeout_secs", 5)
	v.SetDefault("deep.max_tokens", 16)
	v.SetDefault("deep.rate_per_sec", 5)
	v.SetDefault("deep.rate_burst", 5)
	v.SetDefault("deep.breaker_failure_threshold", 5)
	v.SetDefault("deep.breaker_reset_secs", 30)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("langcode.aliases_file", "")
	v.SetDefault("audit.timeout_secs", 5)
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command needs. mode is the command name:
// serve, detect, batch or migrate.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "migrate":
		errs = c.validateStore(errs)
	case "detect", "batch", "serve":
		errs = c.validateStore(errs)
		errs = c.validateDetectors(errs)
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if mode == "batch" && (c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64) {
			errs = append(errs, "batch.concurrency must be between 1 and 64")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore(errs []string) []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateDetectors(errs []string) []string {
	switch c.Fast.Backend {
	case "lingua":
		if len(c.Fast.Languages) == 1 {
			errs = append(errs, "fast.languages needs at least two entries when set")
		}
	case "whatlang":
	default:
		errs = append(errs, "fast.backend must be lingua or whatlang")
	}

	switch c.Deep.Provider {
	case "anthropic":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case "openai":
		if c.OpenAI.Key == "" && c.OpenAI.BaseURL == "" {
			errs = append(errs, "openai.key is required")
		}
	default:
		errs = append(errs, "deep.provider must be anthropic or openai")
	}

	if c.Deep.TimeoutSecs <= 0 {
		errs = append(errs, "deep.timeout_secs must be > 0")
	}
	if c.Deep.MaxTokens <= 0 {
		errs = append(errs, "deep.max_tokens must be > 0")
	}
	if c.Deep.RatePerSec < 0 {
		errs = append(errs, "deep.rate_per_sec must be >= 0")
	}
	return errs
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
