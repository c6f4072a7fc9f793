package conduit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicAuth(t *testing.T) {
	cfg, err := BasicAuth("user", "pass")(context.Background(), &RequestConfig{})
	require.NoError(t, err)
	assert.Equal(t, "Basic dXNlcjpwYXNz", cfg.Headers["Authorization"])
}

func TestBearerAuthOverwrites(t *testing.T) {
	cfg := &RequestConfig{Headers: map[string]string{"Authorization": "old", "X-Keep": "1"}}

	out, err := BearerAuth("abc")(context.Background(), cfg)
	require.NoError(t, err)
	assert.Same(t, cfg, out)
	assert.Equal(t, "Bearer abc", out.Headers["Authorization"])
	assert.Equal(t, "1", out.Headers["X-Keep"])
}

func TestCustomAuth(t *testing.T) {
	signed := CustomAuth(func(_ context.Context, cfg *RequestConfig) (*RequestConfig, error) {
		cfg.Headers["X-Signature"] = CalculateMD5([]byte(cfg.Method + cfg.Endpoint))
		return cfg, nil
	})

	cfg, err := signed(context.Background(), &RequestConfig{Method: "GET", Endpoint: "/x", Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Len(t, cfg.Headers["X-Signature"], 32)

	boom := errors.New("vault sealed")
	failing := CustomAuth(func(context.Context, *RequestConfig) (*RequestConfig, error) { return nil, boom })
	_, err = failing(context.Background(), &RequestConfig{})
	assert.ErrorIs(t, err, boom)
}
