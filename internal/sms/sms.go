// Package sms delivers text messages through third-party gateways.
package sms

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned by a sender that lacks credentials.
	ErrNotConfigured = errors.New("sms: provider not configured")

	// ErrInvalidNumber is returned for numbers that are not 10 digits.
	ErrInvalidNumber = errors.New("sms: invalid mobile number")

	// ErrNotDelivered is returned when no provider accepted the message.
	ErrNotDelivered = errors.New("sms: message not delivered")
)

// Sender sends a text message to a national 10-digit mobile number.
type Sender interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Configured reports whether the provider has credentials.
	Configured() bool

	// Send delivers body to the number and returns the provider message id.
	Send(ctx context.Context, to, body string) (string, error)
}

// ProviderError is a rejection reported by a gateway.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func validNumber(to string) bool {
	if len(to) != 10 {
		return false
	}
	for _, r := range to {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
