package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when the gateway key id or secret is missing.
	ErrNotConfigured = errors.New("billing: gateway credentials not configured")

	// ErrInvalidSignature is returned when a payment signature does not match.
	ErrInvalidSignature = errors.New("billing: invalid payment signature")

	// ErrGatewayUnavailable marks transient gateway failures (network errors,
	// 5xx and 429 responses).
	ErrGatewayUnavailable = errors.New("billing: gateway unavailable")

	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("billing: amount must be positive")
)

// GatewayError wraps a failed gateway API call.
type GatewayError struct {
	StatusCode  int    // HTTP status, 0 for transport failures
	Code        string // gateway error code (e.g. "BAD_REQUEST_ERROR")
	Description string
	Temporary   bool
	Err         error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("razorpay: %s (code: %s, status: %d)", e.Description, e.Code, e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("razorpay: %s (status: %d)", e.Description, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("razorpay: %s: %v", e.Description, e.Err)
	}
	return "razorpay: " + e.Description
}

func (e *GatewayError) Unwrap() error {
	if e.Temporary {
		return errors.Join(ErrGatewayUnavailable, e.Err)
	}
	return e.Err
}

// IsTemporary returns true if the call may succeed when retried.
func (e *GatewayError) IsTemporary() bool {
	return e.Temporary
}
