package conduit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientErrorMessage(t *testing.T) {
	err := &ClientError{Type: ErrorTypeRateLimit, Message: "Rate limit exceeded"}
	assert.Equal(t, "Rate limit exceeded", err.Error())

	cause := errors.New("dial tcp: connection refused")
	withCause := &ClientError{Type: ErrorTypeNetwork, Message: "network request failed", Cause: cause}
	assert.Equal(t, "network request failed: dial tcp: connection refused", withCause.Error())

	var nilErr *ClientError
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
	assert.False(t, nilErr.Is(ErrNetwork))
}

func TestClientErrorIs(t *testing.T) {
	err := &ClientError{Type: ErrorTypeTimeout, Message: "Request timeout"}

	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrNetwork)

	wrapped := fmt.Errorf("fetch users: %w", err)
	assert.ErrorIs(t, wrapped, ErrTimeout)
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &ClientError{Type: ErrorTypeNetwork, Message: "network request failed", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestNewValidationError(t *testing.T) {
	err := newValidationError([]string{"headers.Authorization is required", "params.page must be of type number"})

	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "Validation failed: headers.Authorization is required; params.page must be of type number", err.Error())
	assert.Len(t, err.Violations, 2)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"network", &ClientError{Type: ErrorTypeNetwork}, true},
		{"timeout", &ClientError{Type: ErrorTypeTimeout}, true},
		{"rate limit", &ClientError{Type: ErrorTypeRateLimit}, true},
		{"validation", &ClientError{Type: ErrorTypeValidation}, false},
		{"invalid url", &ClientError{Type: ErrorTypeInvalidURL}, false},
		{"wrapped network", fmt.Errorf("op: %w", &ClientError{Type: ErrorTypeNetwork}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestNonPipelineErrorsPassThrough(t *testing.T) {
	client := newTestClient(t)
	boom := errors.New("token expired")
	client.AddInterceptor(func(context.Context, *RequestConfig) (*RequestConfig, error) {
		return nil, boom
	})

	var clientErr *ClientError

	_, err := client.Get(context.Background(), "http://example.com", nil, nil, nil)
	assert.Same(t, boom, err)
	assert.False(t, errors.As(err, &clientErr))

	_, err = client.Series(context.Background(), []BatchRequest{{Method: "TRACE", Endpoint: "http://example.com"}})
	assert.Error(t, err)
	assert.False(t, errors.As(err, &clientErr))
}
