package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/telemetry"
)

// DefaultOTPTTL is how long an issued code stays valid.
const DefaultOTPTTL = 10 * time.Minute

// OTPService issues and verifies one-time codes
type OTPService interface {
	// Issue generates a code for an email address or 10-digit mobile
	// number, stores it (replacing any earlier code) and delivers it.
	// Delivery failure does not invalidate the code.
	Issue(ctx context.Context, identifier string) (*OTPIssue, error)

	// Verify consumes a matching, unexpired code.
	Verify(ctx context.Context, identifier, code string) error
}

// OTPIssue describes an issued code. The code itself is never returned.
type OTPIssue struct {
	Channel   domain.OTPChannel `json:"channel"`
	ExpiresAt time.Time         `json:"expires"`
	Sent      bool              `json:"sent"`
	Note      string            `json:"note"`
}

// OTPOption configures an OTP service.
type OTPOption func(*otpService)

// WithOTPClock overrides the time source.
func WithOTPClock(now func() time.Time) OTPOption {
	return func(s *otpService) { s.now = now }
}

// WithOTPTTL overrides the validity window.
func WithOTPTTL(ttl time.Duration) OTPOption {
	return func(s *otpService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithOTPMetrics(m *telemetry.BusinessMetrics) OTPOption {
	return func(s *otpService) { s.metrics = m }
}

func WithOTPLogger(logger *slog.Logger) OTPOption {
	return func(s *otpService) { s.logger = logger }
}

type otpService struct {
	store    domain.OTPStore
	notifier *Notifier
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewOTPService creates a new OTPService instance
func NewOTPService(store domain.OTPStore, notifier *Notifier, opts ...OTPOption) OTPService {
	s := &otpService{
		store:    store,
		notifier: notifier,
		logger:   slog.Default(),
		ttl:      DefaultOTPTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NewNotifier(nil, nil, nil, s.metrics, s.logger)
	}
	return s
}

func (s *otpService) Issue(ctx context.Context, identifier string) (*OTPIssue, error) {
	const op = "otp.issue"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.NewValidationError(op, "identifier", "required")
	}
	channel, ok := domain.ClassifyIdentifier(identifier)
	if !ok {
		return nil, domain.NewValidationError(op, "identifier", "must be an email address or 10-digit mobile number")
	}

	code, err := generateCode()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate otp")
	}

	now := s.now().UTC()
	entry := domain.OTPEntry{
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.store.Put(ctx, entry); err != nil {
		return nil, err
	}

	res := s.notifier.OTP(ctx, channel, identifier, code, s.ttl)
	s.metrics.RecordOTPIssued(string(channel))

	return &OTPIssue{
		Channel:   channel,
		ExpiresAt: entry.ExpiresAt,
		Sent:      res.Sent,
		Note:      deliveryNote(channel, res),
	}, nil
}

func (s *otpService) Verify(ctx context.Context, identifier, code string) error {
	const op = "otp.verify"

	identifier = strings.TrimSpace(identifier)
	code = strings.TrimSpace(code)

	var verr error
	if identifier == "" {
		verr = domain.AddFieldError(verr, "identifier", "required")
	}
	if code == "" {
		verr = domain.AddFieldError(verr, "otp", "required")
	}
	if verr != nil {
		return verr
	}

	entry, err := s.store.Get(ctx, identifier)
	if errors.Is(err, domain.ErrOTPNotFound) {
		s.metrics.RecordOTPVerification("expired")
		return domain.WithOp(ErrOTPNotFoundOrExpired, op)
	}
	if err != nil {
		return err
	}

	if entry.Expired(s.now()) {
		if err := s.store.Delete(ctx, identifier); err != nil {
			s.logger.Warn("failed to delete expired otp", "error", err)
		}
		s.metrics.RecordOTPVerification("expired")
		return domain.WithOp(ErrOTPNotFoundOrExpired, op)
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		s.metrics.RecordOTPVerification("mismatch")
		return domain.WithOp(ErrOTPMismatch, op)
	}

	consumed, err := s.store.Consume(ctx, identifier, code)
	if err != nil {
		return err
	}
	if !consumed {
		s.metrics.RecordOTPVerification("expired")
		return domain.WithOp(ErrOTPNotFoundOrExpired, op)
	}

	s.metrics.RecordOTPVerification("verified")
	return nil
}

var codeRange = big.NewInt(900000)

// generateCode returns a uniformly random code in 100000-999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func deliveryNote(channel domain.OTPChannel, res NotifyResult) string {
	name := "Email"
	if channel == domain.OTPChannelSMS {
		name = "SMS"
	}
	switch {
	case res.Sent && res.Provider != "":
		return fmt.Sprintf("%s sent (%s)", name, res.Provider)
	case res.Sent:
		return name + " sent"
	case res.Err != nil:
		return name + " failed"
	}
	return name + " not configured"
}
