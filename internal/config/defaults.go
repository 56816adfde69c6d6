package config

import "time"

// Default value constants.
const (
	DefaultServerPort     = 8080
	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20

	DefaultStoreBackend = "redis"
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisPrefix  = "annolens:"

	DefaultAnalysisTimeout = 30 * time.Second
	DefaultUserAgent       = "annolens/1.0"

	DefaultPolicy         = "smart"
	DefaultDebounceWindow = 800 * time.Millisecond

	DefaultMaxComplexWords  = 3
	DefaultMaxLongSentences = 2
	DefaultMaxFactualClaims = 3
	DefaultMaxAIPatterns    = 2

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.RateLimitRPS == 0 {
		cfg.Server.RateLimitRPS = DefaultRateLimitRPS
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisPrefix
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}

	if cfg.Analysis.Timeout == 0 {
		cfg.Analysis.Timeout = DefaultAnalysisTimeout
	}
	if cfg.Analysis.UserAgent == "" {
		cfg.Analysis.UserAgent = DefaultUserAgent
	}

	if cfg.Pipeline.Policy == "" {
		cfg.Pipeline.Policy = DefaultPolicy
	}
	if cfg.Pipeline.DebounceWindow == 0 {
		cfg.Pipeline.DebounceWindow = DefaultDebounceWindow
	}
	if cfg.Pipeline.MaxComplexWords == 0 {
		cfg.Pipeline.MaxComplexWords = DefaultMaxComplexWords
	}
	if cfg.Pipeline.MaxLongSentences == 0 {
		cfg.Pipeline.MaxLongSentences = DefaultMaxLongSentences
	}
	if cfg.Pipeline.MaxFactualClaims == 0 {
		cfg.Pipeline.MaxFactualClaims = DefaultMaxFactualClaims
	}
	if cfg.Pipeline.MaxAIPatterns == 0 {
		cfg.Pipeline.MaxAIPatterns = DefaultMaxAIPatterns
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.
// Used by entrypoints when no config file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Metrics.Enabled = true
	return cfg
}
