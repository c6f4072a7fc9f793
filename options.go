package conduit

import (
	"fmt"
	"time"

	"github.com/ambiyansyah-risyal/conduit/internal/singleflight"
)

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit sets the per-host budget of limit requests per interval.
func WithRateLimit(limit int, interval time.Duration) Option {
	return func(c *Client) {
		c.rateLimit = limit
		c.rateInterval = interval
	}
}

// WithRateLimiter shares an existing limiter, for example between clients
// that talk to the same hosts.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = rl
	}
}

// WithCacheTTL sets the default lifetime of CacheRequest entries.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithCacheCheckPeriod sets how often expired entries are swept. Zero disables
// the sweep; expired entries are then only dropped when read.
func WithCacheCheckPeriod(d time.Duration) Option {
	return func(c *Client) {
		c.cacheCheckPeriod = d
	}
}

// WithCache uses an existing cache instead of creating one.
func WithCache(cache *Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithCacheCoalescing makes concurrent CacheRequest misses on the same key
// share a single producer call.
func WithCacheCoalescing() Option {
	return func(c *Client) {
		c.coalesce = singleflight.New()
	}
}

// WithMaxSockets caps concurrent connections per host.
func WithMaxSockets(n int) Option {
	return func(c *Client) {
		c.maxSockets = n
	}
}

// WithTransport uses an existing transport.
func WithTransport(t *Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithRetryDefaults sets the configuration used by Client.Retry.
func WithRetryDefaults(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger == nil {
			logger = NopLogger()
		}
		c.logger = logger
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithRequestIDGenerator overrides the request id source used in logs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.requestIDGen = gen
	}
}

// WithInterceptors registers interceptors in order.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) {
		for _, fn := range interceptors {
			c.interceptors.Add(fn)
		}
	}
}

// WithConfig applies a loaded Config. A log level that zap does not know is
// reported by ValidateConfiguration.
func WithConfig(cfg *Config) Option {
	return func(c *Client) {
		if cfg == nil {
			return
		}
		c.timeout = cfg.Timeout
		c.rateLimit = cfg.RateLimit
		c.rateInterval = cfg.RateLimitInterval
		c.cacheTTL = cfg.CacheTTL
		c.cacheCheckPeriod = cfg.CacheCheckPeriod
		c.maxSockets = cfg.MaxSockets
		c.retry.Retries = cfg.RetryCount
		c.retry.Delay = cfg.RetryDelay
		c.retry.Multiplier = cfg.RetryMultiplier

		if cfg.LogLevel != "" {
			logger, err := NewLogger(cfg.LogLevel, cfg.LogDevelopment)
			if err != nil {
				c.optionErrors = append(c.optionErrors, fmt.Sprintf("invalid log level %q", cfg.LogLevel))
				return
			}
			c.logger = logger
		}
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.optionErrors...)
	errors = append(errors, c.validateTimeoutConfig()...)
	errors = append(errors, c.validateRateLimiterConfig()...)
	errors = append(errors, c.validateCacheConfig()...)
	errors = append(errors, c.validateRetryConfig()...)
	errors = append(errors, c.validateTransportConfig()...)
	errors = append(errors, c.validateLoggingConfig()...)
	errors = append(errors, c.validateExtremeValues()...)

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeConfig,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

func (c *Client) validateTimeoutConfig() []string {
	var errors []string

	if c.timeout <= 0 {
		errors = append(errors, "timeout must be positive")
	}

	return errors
}

// validateRateLimiterConfig checks the configured budget, not the fallback a
// limiter substitutes for non-positive values.
func (c *Client) validateRateLimiterConfig() []string {
	var errors []string

	if c.rateLimit <= 0 {
		errors = append(errors, "rateLimit must be positive")
	}
	if c.rateInterval <= 0 {
		errors = append(errors, "rateLimitInterval must be positive")
	}

	return errors
}

func (c *Client) validateCacheConfig() []string {
	var errors []string

	if c.cacheTTL <= 0 {
		errors = append(errors, "cacheTTL must be positive")
	}
	if c.cacheCheckPeriod < 0 {
		errors = append(errors, "cacheCheckPeriod must be non-negative")
	}

	return errors
}

func (c *Client) validateRetryConfig() []string {
	var errors []string

	if c.retry.Retries < 0 {
		errors = append(errors, "retries must be non-negative")
	}
	if c.retry.Delay < 0 {
		errors = append(errors, "retry delay must be non-negative")
	}
	if c.retry.Multiplier <= 0 {
		errors = append(errors, "retry multiplier must be positive")
	}

	return errors
}

func (c *Client) validateTransportConfig() []string {
	var errors []string

	if c.maxSockets <= 0 {
		errors = append(errors, "maxSockets must be positive")
	}
	if c.transport == nil {
		errors = append(errors, "transport cannot be nil")
	}

	return errors
}

func (c *Client) validateLoggingConfig() []string {
	var errors []string

	if c.requestIDGen == nil {
		errors = append(errors, "request id generator cannot be nil")
	}

	return errors
}

// validateExtremeValues flags values that are legal but almost certainly a
// unit mistake.
func (c *Client) validateExtremeValues() []string {
	var errors []string

	if c.retry.Retries > 100 {
		errors = append(errors, "retries > 100 may cause excessive resource usage")
	}
	if c.retry.Delay > 10*time.Minute {
		errors = append(errors, "retry delay > 10m may cause very long delays")
	} else if c.retry.Retries <= 100 && c.retry.MaxWait() > time.Hour {
		errors = append(errors, "total retry wait > 1h may cause very long delays")
	}
	if c.timeout > 10*time.Minute {
		errors = append(errors, "timeout > 10m may cause requests to hang for too long")
	}
	if c.rateInterval > 0 && c.rateInterval < time.Millisecond {
		errors = append(errors, "rateLimitInterval < 1ms makes every window trivially short")
	}
	if c.cacheTTL > 24*time.Hour {
		errors = append(errors, "cacheTTL > 24h may cause stale data issues")
	}

	return errors
}
