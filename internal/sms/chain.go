package sms

import (
	"context"
	"errors"
	"log/slog"
)

// Delivery records which provider accepted a message.
type Delivery struct {
	Provider  string
	MessageID string
}

// Chain tries each configured sender in order until one accepts the message.
type Chain struct {
	senders []Sender
	logger  *slog.Logger

	// LogUndelivered writes undelivered message bodies to the log at debug
	// level. Only enable outside production.
	LogUndelivered bool
}

// NewChain creates a fallback chain.
func NewChain(logger *slog.Logger, senders ...Sender) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{senders: senders, logger: logger}
}

// Configured reports whether any sender has credentials.
func (c *Chain) Configured() bool {
	for _, s := range c.senders {
		if s.Configured() {
			return true
		}
	}
	return false
}

// Send delivers body through the first sender that succeeds. When every
// sender fails or none is configured it returns ErrNotDelivered joined with
// the individual failures.
func (c *Chain) Send(ctx context.Context, to, body string) (Delivery, error) {
	var errs []error
	for _, s := range c.senders {
		if !s.Configured() {
			continue
		}
		id, err := s.Send(ctx, to, body)
		if err == nil {
			c.logger.Info("sms sent", "provider", s.Name(), "message_id", id)
			return Delivery{Provider: s.Name(), MessageID: id}, nil
		}
		c.logger.Warn("sms provider failed", "provider", s.Name(), "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		errs = append(errs, ErrNotConfigured)
	}
	if c.LogUndelivered {
		c.logger.Debug("sms undelivered", "to", to, "body", body)
	}
	return Delivery{}, errors.Join(append([]error{ErrNotDelivered}, errs...)...)
}
