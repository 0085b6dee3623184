package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/worker"
)

// Job names for cleanup jobs
const (
	JobTypeCleanupExpiredOTPs = "cleanup:expired_otps"
)

// DefaultCleanupInterval is how often expired codes are swept.
const DefaultCleanupInterval = 15 * time.Minute

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	OTPsDeleted int64 `json:"otps_deleted"`
}

// CleanupExpiredOTPs deletes codes that expired at or before now. Verification
// already rejects expired codes; this only keeps the table small.
func CleanupExpiredOTPs(ctx context.Context, store domain.OTPStore, now time.Time) (*CleanupResult, error) {
	n, err := store.DeleteExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	return &CleanupResult{OTPsDeleted: n}, nil
}

// NewOTPCleanupJob wraps CleanupExpiredOTPs as a periodic worker job.
func NewOTPCleanupJob(store domain.OTPStore, interval time.Duration, logger *slog.Logger) worker.Job {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return worker.Job{
		Name:     JobTypeCleanupExpiredOTPs,
		Interval: interval,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			res, err := CleanupExpiredOTPs(ctx, store, time.Now())
			if err != nil {
				return err
			}
			if res.OTPsDeleted > 0 {
				logger.Info("deleted expired otps", "count", res.OTPsDeleted)
			}
			return nil
		},
	}
}
