package conduit

import (
	"context"
	"net/http"
	"time"
)

// HTTP methods accepted by Request.
const (
	MethodGet     = http.MethodGet
	MethodPost    = http.MethodPost
	MethodPut     = http.MethodPut
	MethodDelete  = http.MethodDelete
	MethodPatch   = http.MethodPatch
	MethodHead    = http.MethodHead
	MethodOptions = http.MethodOptions
)

// RequestConfig describes one outbound call as it travels through the
// pipeline. Interceptors may mutate it in place or return a replacement.
type RequestConfig struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	Params   Params
	Body     any
	Options  RequestOptions
}

// RequestOptions carries per-request knobs. A zero Timeout falls back to the
// client default (5s unless configured otherwise).
type RequestOptions struct {
	Timeout    time.Duration
	Schema     *Schema
	Extensions map[string]any
}

// Response is a fully buffered reply. Data holds the decoded JSON document
// when the body parses as JSON and the body text otherwise.
type Response struct {
	Status  int
	Headers http.Header
	Data    any
	Raw     []byte
}

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of query parameters; the order is preserved when
// they are appended to the endpoint's query string.
type Params []Param

// P builds Params from alternating key/value strings. A trailing key without
// a value is dropped.
func P(kv ...string) Params {
	out := make(Params, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Param{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

// Get returns the first value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Add appends key=value and returns the extended list.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Interceptor transforms a request configuration before validation. Returning
// a nil config keeps the one that was passed in.
type Interceptor func(ctx context.Context, cfg *RequestConfig) (*RequestConfig, error)

// Producer computes a value for CacheRequest on a miss.
type Producer func(ctx context.Context) (any, error)

// BatchRequest is one item handed to All or Series.
type BatchRequest struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	Params   Params
	Body     any
	Options  *RequestOptions
}

// Option configures a Client.
type Option func(*Client)

// Logger is the structured logging surface used by the client. Arguments
// after msg are alternating keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
