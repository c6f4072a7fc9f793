// Package conduit is an HTTP client that runs every call through a fixed
// pipeline:
//
//   - Interceptors rewrite the request configuration in registration order
//   - An optional Schema validates headers, query params and JSON body
//   - A per-host fixed-window rate limiter rejects calls over budget
//   - Pooled keep-alive transports send the request and buffer the reply,
//     inflating gzip bodies and parsing JSON when possible
//
// Caching (CacheRequest, Cached) and retrying (Retry, RetryValue) are
// decorators wrapped around a call by the caller; the pipeline never caches
// or retries on its own.
//
// Typical usage:
//
//	client := conduit.New(
//	    conduit.WithTimeout(3*time.Second),
//	    conduit.WithRateLimit(50, time.Minute),
//	    conduit.WithInterceptors(conduit.BearerAuth(token)),
//	)
//	defer client.Close()
//
//	resp, err := client.Get(ctx, "https://api.example.com/users", nil, conduit.P("page", "2"), nil)
//
// Failures raised by the pipeline itself (validation, rate limiting, URL and
// body problems, timeouts and network errors) are *ClientError values; use
// errors.Is with ErrValidation, ErrRateLimited, ErrTimeout, ErrNetwork or
// ErrInvalidURL to classify them. Errors returned by interceptors and
// producers pass through unchanged, Retry may return ctx.Err(), and the batch
// helpers reject unknown methods with a plain error. Non-2xx statuses are not
// errors.
package conduit
