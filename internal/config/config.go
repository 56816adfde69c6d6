// Package config defines all configuration structures for annolens.
// No I/O or parsing logic lives here; only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

// RedisConfig holds Redis connection parameters for the annotation store.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// AnalysisConfig holds parameters for the remote analysis endpoint and the
// source adapters built on it.
type AnalysisConfig struct {
	// ProxyURL is the opaque analysis endpoint receiving
	// {prompt, structured} envelopes.
	ProxyURL string        `mapstructure:"proxy_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// UserAgent identifies this service to the proxy.
	UserAgent string `mapstructure:"user_agent"`
}

// PipelineConfig holds gating and capping parameters for annotation
// generation.
type PipelineConfig struct {
	// Policy names the gating policy: "smart" (default) or "permissive".
	Policy string `mapstructure:"policy"`
	// DebounceWindow is the quiet period after the last edit before a
	// generation pass is triggered (watch mode and server-side debounce).
	DebounceWindow time.Duration `mapstructure:"debounce_window"`

	MaxComplexWords  int `mapstructure:"max_complex_words"`
	MaxLongSentences int `mapstructure:"max_long_sentences"`
	MaxFactualClaims int `mapstructure:"max_factual_claims"`
	MaxAIPatterns    int `mapstructure:"max_ai_patterns"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MetricsConfig holds metrics exposure parameters.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// StoreConfig selects the annotation store backend.
type StoreConfig struct {
	// Backend is "redis" or "memory".
	Backend string `mapstructure:"backend"`
}

// Config is the root configuration for annolens.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// Validate checks cross-field consistency.  It assumes ApplyDefaults has
// already run, so zero values indicate deliberate misconfiguration rather
// than omission.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	switch c.Store.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("store.backend must be \"redis\" or \"memory\", got %q", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when store.backend is \"redis\"")
	}
	switch c.Pipeline.Policy {
	case "smart", "permissive":
	default:
		return fmt.Errorf("pipeline.policy must be \"smart\" or \"permissive\", got %q", c.Pipeline.Policy)
	}
	if c.Pipeline.DebounceWindow < 0 {
		return fmt.Errorf("pipeline.debounce_window must not be negative")
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis.timeout must be positive")
	}
	return nil
}
