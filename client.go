package conduit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ambiyansyah-risyal/conduit/internal/singleflight"
)

const defaultTimeout = 5000 * time.Millisecond

// Client runs requests through the pipeline: interceptors, schema
// validation, per-host rate limiting and the pooled transport. It owns every
// piece of pipeline state and is safe for concurrent use.
type Client struct {
	transport    *Transport
	interceptors *InterceptorRegistry
	rateLimiter  *RateLimiter
	cache        *Cache
	coalesce     *singleflight.Group

	timeout          time.Duration
	rateLimit        int
	rateInterval     time.Duration
	cacheTTL         time.Duration
	cacheCheckPeriod time.Duration
	maxSockets       int
	retry            RetryConfig

	logger       Logger
	metrics      *MetricsCollector
	requestIDGen func() string

	ownsCache     bool
	ownsTransport bool

	optionErrors    []string
	validationError error
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		interceptors:     NewInterceptorRegistry(),
		timeout:          defaultTimeout,
		rateLimit:        defaultRateLimit,
		rateInterval:     defaultRateLimitInterval,
		cacheTTL:         defaultCacheTTL,
		cacheCheckPeriod: defaultCacheCheckPeriod,
		maxSockets:       defaultMaxSockets,
		retry:            DefaultRetryConfig(),
		logger:           NopLogger(),
		metrics:          nil,
		requestIDGen:     uuid.NewString,
	}

	for _, option := range options {
		option(client)
	}

	if client.rateLimiter == nil {
		client.rateLimiter = NewRateLimiter(client.rateLimit, client.rateInterval)
	}
	if client.cache == nil {
		client.cache = NewCache(client.cacheTTL, client.cacheCheckPeriod)
		client.ownsCache = true
	}
	if client.transport == nil {
		client.transport = NewTransport(client.maxSockets)
		client.ownsTransport = true
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Close stops the cache sweep and releases idle connections. A cache or
// transport passed in with WithCache or WithTransport is left running; its
// owner closes it.
func (c *Client) Close() {
	if c.ownsCache {
		c.cache.Close()
	}
	if c.ownsTransport {
		c.transport.CloseIdleConnections()
	}
}

// AddInterceptor appends fn to the client's interceptor chain.
func (c *Client) AddInterceptor(fn Interceptor) {
	c.interceptors.Add(fn)
}

// Interceptors exposes the client's registry.
func (c *Client) Interceptors() *InterceptorRegistry { return c.interceptors }

// RateLimiter exposes the client's per-host limiter.
func (c *Client) RateLimiter() *RateLimiter { return c.rateLimiter }

// Cache exposes the client's cache.
func (c *Client) Cache() *Cache { return c.cache }

// Request builds a config from the arguments and runs it through the
// pipeline. The caller's headers and params are copied, never mutated. A nil
// opts uses client defaults.
func (c *Client) Request(ctx context.Context, method, endpoint string, headers map[string]string, params Params, body any, opts *RequestOptions) (*Response, error) {
	cfg := &RequestConfig{
		Method:   strings.ToUpper(method),
		Endpoint: endpoint,
		Headers:  headers,
		Params:   params,
		Body:     body,
	}
	if opts != nil {
		cfg.Options = *opts
	}
	return c.Do(ctx, cfg)
}

// Do runs an already built config through the pipeline. cfg is copied first;
// the caller's struct, headers and params are never modified. The schema in
// cfg.Options applies even if an interceptor replaces the options.
func (c *Client) Do(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	start := time.Now()
	requestID := c.newRequestID()

	cfg = cloneConfig(cfg)
	schema := cfg.Options.Schema

	c.metrics.RecordRequestStart(cfg.Method)
	defer c.metrics.RecordRequestEnd(cfg.Method)

	final, err := c.interceptors.Apply(ctx, cfg)
	if err != nil {
		c.logger.Warn("Interceptor failed", "requestID", requestID, "error", err.Error())
		return nil, err
	}

	if err := schema.Validate(final); err != nil {
		c.metrics.RecordError(ErrorTypeValidation, final.Method, hostOf(final.Endpoint))
		c.logger.Warn("Request validation failed", "requestID", requestID, "error", err.Error())
		return nil, err
	}

	u, err := buildURL(final.Endpoint, final.Params)
	if err != nil {
		c.metrics.RecordError(ErrorTypeInvalidURL, final.Method, "unknown")
		return nil, err
	}
	host := u.Hostname()

	if final.Headers == nil {
		final.Headers = make(map[string]string)
	}

	var payload []byte
	if final.Body != nil {
		payload, err = encodeBody(final.Body)
		if err != nil {
			return nil, &ClientError{
				Type:    ErrorTypeSerialization,
				Message: "request body is not JSON serializable",
				Cause:   err,
				Method:  final.Method,
				URL:     u.String(),
				Host:    host,
			}
		}
		final.Headers["Content-Type"] = "application/json"
		final.Headers["Content-Length"] = strconv.Itoa(len(payload))
	}

	logRequest(c.logger, requestID, final.Method, u.String(), final.Headers)

	if !c.rateLimiter.Allow(host) {
		c.metrics.RecordError(ErrorTypeRateLimit, final.Method, host)
		c.logger.Warn("Rate limit exceeded", "requestID", requestID, "host", host)
		return nil, &ClientError{
			Type:    ErrorTypeRateLimit,
			Message: "Rate limit exceeded",
			Method:  final.Method,
			URL:     u.String(),
			Host:    host,
		}
	}
	if state, ok := c.rateLimiter.State(host); ok {
		c.metrics.RecordRateLimitWindow(host, state.Count)
	}

	timeout := final.Options.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, final.Method, u.String(), bodyReader)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeInvalidURL,
			Message: "invalid request",
			Cause:   err,
			Method:  final.Method,
			URL:     u.String(),
			Host:    host,
		}
	}
	for k, v := range final.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent())
	}
	if payload != nil {
		req.ContentLength = int64(len(payload))
	}

	resp, err := c.transport.Send(req)
	if err != nil {
		clientErr := &ClientError{
			Type:    ErrorTypeNetwork,
			Message: "network request failed",
			Cause:   err,
			Method:  final.Method,
			URL:     u.String(),
			Host:    host,
		}
		if isTimeout(reqCtx, ctx) {
			clientErr.Type = ErrorTypeTimeout
			clientErr.Message = "Request timeout"
			clientErr.Cause = nil
		}
		c.metrics.RecordError(clientErr.Type, final.Method, host)
		c.logger.Warn("Request failed", "requestID", requestID, "host", host, "error", clientErr.Error())
		return nil, clientErr
	}

	logResponse(c.logger, requestID, resp.Status, resp.Headers)
	c.metrics.RecordRequest(final.Method, host, resp.Status, time.Since(start))

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string, params Params, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodGet, endpoint, headers, params, nil, opts)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, headers map[string]string, params Params, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodPost, endpoint, headers, params, body, opts)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, headers map[string]string, params Params, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodPut, endpoint, headers, params, body, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, headers map[string]string, params Params, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodDelete, endpoint, headers, params, nil, opts)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, headers map[string]string, params Params, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodPatch, endpoint, headers, params, body, opts)
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, endpoint string, headers map[string]string, params Params, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodHead, endpoint, headers, params, nil, opts)
}

// Options performs an OPTIONS request.
func (c *Client) Options(ctx context.Context, endpoint string, headers map[string]string, params Params, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodOptions, endpoint, headers, params, nil, opts)
}

// CacheRequest returns the cached value for key, or calls producer and caches
// its successful result for ttl (the client default when ttl <= 0). Without
// WithCacheCoalescing, concurrent misses on one key each call producer and
// the last write wins.
func (c *Client) CacheRequest(ctx context.Context, key string, producer Producer, ttl time.Duration) (any, error) {
	if v, ok := c.cache.Get(key); ok {
		c.metrics.RecordCacheHit()
		c.logger.Debug("Cache hit", "cacheKey", key)
		return v, nil
	}
	c.metrics.RecordCacheMiss()
	c.logger.Debug("Cache miss", "cacheKey", key)

	fill := func() (any, error) {
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, v, ttl)
		c.metrics.RecordCacheSize(c.cache.Len())
		return v, nil
	}

	if c.coalesce != nil {
		v, err, _ := c.coalesce.Do(key, fill)
		return v, err
	}
	return fill()
}

// ClearCache removes the given keys, or every entry when none are given.
// With coalescing on, a producer still running for a cleared key is no longer
// joined: the next CacheRequest for it starts fresh.
func (c *Client) ClearCache(keys ...string) {
	if len(keys) == 0 {
		c.cache.Clear()
	} else {
		for _, k := range keys {
			c.cache.Delete(k)
			if c.coalesce != nil {
				c.coalesce.Forget(k)
			}
		}
	}
	c.metrics.RecordCacheSize(c.cache.Len())
}

// Retry runs op with the client's retry defaults, overridden by opts, logging
// and counting every retry.
func (c *Client) Retry(ctx context.Context, op func(context.Context) error, opts ...RetryOption) error {
	cfg := c.retry
	for _, opt := range opts {
		opt(&cfg)
	}

	hook := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.metrics.RecordRetry(attempt + 1)
		c.logger.Info("Scheduling retry", "attempt", attempt+1, "maxRetries", cfg.Retries, "backoff", delay, "error", err.Error())
		if hook != nil {
			hook(attempt, err, delay)
		}
	}

	_, err := retryWith(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func (c *Client) newRequestID() string {
	if c.requestIDGen == nil {
		return uuid.NewString()
	}
	return c.requestIDGen()
}

func buildURL(endpoint string, params Params) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeInvalidURL, Message: "Invalid URL", Cause: err, URL: endpoint}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &ClientError{Type: ErrorTypeInvalidURL, Message: fmt.Sprintf("Invalid URL: %q", endpoint), URL: endpoint}
	}

	if len(params) > 0 {
		var b strings.Builder
		b.WriteString(u.RawQuery)
		for _, p := range params {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.Key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.Value))
		}
		u.RawQuery = b.String()
	}
	return u, nil
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

func cloneConfig(cfg *RequestConfig) *RequestConfig {
	if cfg == nil {
		return &RequestConfig{Headers: map[string]string{}}
	}
	out := *cfg
	out.Headers = copyHeaders(cfg.Headers)
	out.Params = cfg.Params.Clone()
	return &out
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
