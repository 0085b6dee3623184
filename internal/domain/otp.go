package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// OTPEntry is an outstanding one-time code for an identifier.
type OTPEntry struct {
	Identifier string
	Code       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the entry is no longer valid at now.
func (e OTPEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// OTPChannel is the delivery channel chosen for an identifier.
type OTPChannel string

const (
	OTPChannelEmail OTPChannel = "email"
	OTPChannelSMS   OTPChannel = "sms"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^\d{10}$`)
)

// ClassifyIdentifier decides whether identifier is an email address or a
// 10-digit mobile number. ok is false when it is neither.
func ClassifyIdentifier(identifier string) (channel OTPChannel, ok bool) {
	id := strings.TrimSpace(identifier)
	switch {
	case strings.Contains(id, "@"):
		return OTPChannelEmail, emailPattern.MatchString(id)
	case mobilePattern.MatchString(id):
		return OTPChannelSMS, true
	}
	return "", false
}

var ErrOTPNotFound = &Error{Code: ENOTFOUND, Message: "OTP not found or expired"}

// OTPStore keeps at most one outstanding code per identifier.
type OTPStore interface {
	// Put stores e, replacing any previous code for the identifier.
	Put(ctx context.Context, e OTPEntry) error

	// Get returns the stored entry or ErrOTPNotFound. Expiry is the caller's
	// concern.
	Get(ctx context.Context, identifier string) (*OTPEntry, error)

	// Delete removes the entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, identifier string) error

	// Consume deletes the entry only if it still holds code, and reports
	// whether it did. Two concurrent verifications of one code cannot both
	// succeed.
	Consume(ctx context.Context, identifier, code string) (bool, error)

	// DeleteExpired removes every entry that expired at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
