package conduit

import (
	"errors"
	"fmt"
	"strings"
)

// Error types reported in ClientError.Type.
const (
	ErrorTypeValidation    = "Validation"
	ErrorTypeRateLimit     = "RateLimit"
	ErrorTypeTimeout       = "Timeout"
	ErrorTypeNetwork       = "Network"
	ErrorTypeInvalidURL    = "InvalidURL"
	ErrorTypeSerialization = "Serialization"
	ErrorTypeConfig        = "Config"
)

// Sentinel errors for errors.Is. They match any ClientError of the same Type.
var (
	ErrValidation  = &ClientError{Type: ErrorTypeValidation}
	ErrRateLimited = &ClientError{Type: ErrorTypeRateLimit}
	ErrTimeout     = &ClientError{Type: ErrorTypeTimeout}
	ErrNetwork     = &ClientError{Type: ErrorTypeNetwork}
	ErrInvalidURL  = &ClientError{Type: ErrorTypeInvalidURL}
)

// ClientError is the error returned by every pipeline stage.
type ClientError struct {
	Type    string
	Message string
	Cause   error

	Method string
	URL    string
	Host   string

	// Violations lists each failed rule for validation errors.
	Violations []string
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

func newValidationError(violations []string) *ClientError {
	return &ClientError{
		Type:       ErrorTypeValidation,
		Message:    "Validation failed: " + strings.Join(violations, "; "),
		Violations: violations,
	}
}

// IsTransient reports whether err looks like a failure that may succeed when
// repeated: network errors, timeouts and rate limiting. Retry does not consult
// it; callers that want classification wrap their operation themselves.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit:
			return true
		default:
			return false
		}
	}

	return false
}
