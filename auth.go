package conduit

import (
	"context"
	"encoding/base64"
)

// BasicAuth returns an interceptor that sets an HTTP Basic Authorization
// header.
func BasicAuth(username, password string) Interceptor {
	value := "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
	return setHeader("Authorization", value)
}

// BearerAuth returns an interceptor that sets a Bearer Authorization header.
func BearerAuth(token string) Interceptor {
	return setHeader("Authorization", "Bearer "+token)
}

// CustomAuth adapts fn to an interceptor. It exists so that hand-written
// credential logic registers the same way as the built-in schemes.
func CustomAuth(fn func(ctx context.Context, cfg *RequestConfig) (*RequestConfig, error)) Interceptor {
	return func(ctx context.Context, cfg *RequestConfig) (*RequestConfig, error) {
		return fn(ctx, cfg)
	}
}

func setHeader(name, value string) Interceptor {
	return func(_ context.Context, cfg *RequestConfig) (*RequestConfig, error) {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[name] = value
		return cfg, nil
	}
}
