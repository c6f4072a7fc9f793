package conduit

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the client settings that can come from the environment. With
// prefix "CONDUIT" the timeout is read from CONDUIT_TIMEOUT, and so on.
type Config struct {
	Timeout           time.Duration `envconfig:"TIMEOUT" default:"5s"`
	RateLimit         int           `envconfig:"RATE_LIMIT" default:"100"`
	RateLimitInterval time.Duration `envconfig:"RATE_LIMIT_INTERVAL" default:"1m"`
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" default:"1h"`
	CacheCheckPeriod  time.Duration `envconfig:"CACHE_CHECK_PERIOD" default:"10m"`
	MaxSockets        int           `envconfig:"MAX_SOCKETS" default:"100"`
	RetryCount        int           `envconfig:"RETRY_COUNT" default:"3"`
	RetryDelay        time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	RetryMultiplier   float64       `envconfig:"RETRY_MULTIPLIER" default:"2"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment    bool          `envconfig:"LOG_DEV" default:"false"`
}

// LoadConfig loads configuration from environment variables under prefix.
func LoadConfig(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadConfigOrDefault loads configuration from the environment or returns the default.
func LoadConfigOrDefault(prefix string) *Config {
	cfg, err := LoadConfig(prefix)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           defaultTimeout,
		RateLimit:         defaultRateLimit,
		RateLimitInterval: defaultRateLimitInterval,
		CacheTTL:          defaultCacheTTL,
		CacheCheckPeriod:  defaultCacheCheckPeriod,
		MaxSockets:        defaultMaxSockets,
		RetryCount:        defaultRetries,
		RetryDelay:        defaultRetryDelay,
		RetryMultiplier:   defaultRetryMultiplier,
		LogLevel:          "info",
		LogDevelopment:    false,
	}
}
