// Package config loads pump selector settings from config.yaml, .env, and
// PUMPSEL_* environment variables.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Mirror    MirrorConfig    `yaml:"mirror" mapstructure:"mirror"`
	Selection SelectionConfig `yaml:"selection" mapstructure:"selection"`
	Spares    SparesConfig    `yaml:"spares" mapstructure:"spares"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Path        string     `yaml:"path" mapstructure:"path"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig sizes the Postgres connection pool.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MirrorConfig configures the optional cloud mirror.
type MirrorConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Token       string        `yaml:"token" mapstructure:"token"`
	RatePerSec  float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig configures retries of mirror calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the mirror circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// SelectionConfig tunes fuzzy ranking.
type SelectionConfig struct {
	MaxResults       int `yaml:"max_results" mapstructure:"max_results"`
	PerfectThreshold int `yaml:"perfect_threshold" mapstructure:"perfect_threshold"`
	MinCompatibility int `yaml:"min_compatibility" mapstructure:"min_compatibility"`
}

// SparesConfig configures spares ordering.
type SparesConfig struct {
	Currency string `yaml:"currency" mapstructure:"currency"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PUMPSEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.path", "pump-selector.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.base_url", "")
	v.SetDefault("mirror.token", "")
	v.SetDefault("mirror.rate_per_sec", 5.0)
	v.SetDefault("mirror.timeout_secs", 15)
	v.SetDefault("mirror.concurrency", 4)
	v.SetDefault("mirror.retry.max_attempts", 3)
	v.SetDefault("mirror.retry.initial_backoff_ms", 500)
	v.SetDefault("mirror.retry.max_backoff_ms", 10000)
	v.SetDefault("mirror.circuit.failure_threshold", 5)
	v.SetDefault("mirror.circuit.reset_timeout_secs", 30)
	v.SetDefault("selection.max_results", 8)
	v.SetDefault("selection.perfect_threshold", 95)
	v.SetDefault("selection.min_compatibility", 20)
	v.SetDefault("spares.currency", "INR")

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

// Validate checks the settings a command mode depends on. Modes are
// "serve", "cli", and "sync".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for sqlite")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for postgres")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	s := c.Selection
	if s.MaxResults < 1 || s.MaxResults > 50 {
		problems = append(problems, "selection.max_results must be between 1 and 50")
	}
	if s.PerfectThreshold < 1 || s.PerfectThreshold > 100 {
		problems = append(problems, "selection.perfect_threshold must be between 1 and 100")
	}
	if s.MinCompatibility < 0 || s.MinCompatibility > s.PerfectThreshold {
		problems = append(problems, "selection.min_compatibility must be between 0 and perfect_threshold")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	case "sync":
		if c.Mirror.BaseURL == "" {
			problems = append(problems, "mirror.base_url is required")
		}
	case "cli":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Mirror.Enabled && c.Mirror.RatePerSec <= 0 {
		problems = append(problems, "mirror.rate_per_sec must be > 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
