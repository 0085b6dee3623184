package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/memory"
)

type failingOTPStore struct {
	*memory.OTPStore
}

func (failingOTPStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestCleanupExpiredOTPs(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := memory.NewOTPStore()
	require.NoError(t, store.Put(ctx, domain.OTPEntry{Identifier: "a@b.co", Code: "111111", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, store.Put(ctx, domain.OTPEntry{Identifier: "9876543210", Code: "222222", ExpiresAt: now.Add(time.Hour)}))

	res, err := CleanupExpiredOTPs(ctx, store, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.OTPsDeleted)
	assert.Equal(t, 1, store.Len())

	_, err = CleanupExpiredOTPs(ctx, failingOTPStore{memory.NewOTPStore()}, now)
	assert.ErrorContains(t, err, "connection reset")
}

func TestNewOTPCleanupJob(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOTPStore()
	require.NoError(t, store.Put(ctx, domain.OTPEntry{Identifier: "a@b.co", Code: "111111", ExpiresAt: time.Now().Add(-time.Minute)}))

	job := NewOTPCleanupJob(store, 0, nil)
	assert.Equal(t, JobTypeCleanupExpiredOTPs, job.Name)
	assert.Equal(t, DefaultCleanupInterval, job.Interval)

	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 0, store.Len())

	failing := NewOTPCleanupJob(failingOTPStore{memory.NewOTPStore()}, time.Minute, nil)
	assert.Error(t, failing.Run(ctx))
}
