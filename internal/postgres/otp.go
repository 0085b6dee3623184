package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/jackc/pgx/v5"
)

// OTPStore implements domain.OTPStore using PostgreSQL.
type OTPStore struct {
	db DBTX
}

var _ domain.OTPStore = (*OTPStore)(nil)

func NewOTPStore(db DBTX) *OTPStore {
	return &OTPStore{db: db}
}

// Put upserts the code so a reissue replaces the previous one.
func (s *OTPStore) Put(ctx context.Context, e domain.OTPEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO otps (identifier, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identifier) DO UPDATE
		SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`,
		e.Identifier, e.Code, e.ExpiresAt, e.CreatedAt,
	)
	if err != nil {
		return domain.Internal(err, "otp.put", "failed to store otp")
	}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, identifier string) (*domain.OTPEntry, error) {
	var e domain.OTPEntry
	err := s.db.QueryRow(ctx,
		`SELECT identifier, code, expires_at, created_at FROM otps WHERE identifier = $1`,
		identifier,
	).Scan(&e.Identifier, &e.Code, &e.ExpiresAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, domain.Internal(err, "otp.get", "failed to load otp")
	}
	return &e, nil
}

func (s *OTPStore) Delete(ctx context.Context, identifier string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM otps WHERE identifier = $1`, identifier); err != nil {
		return domain.Internal(err, "otp.delete", "failed to delete otp")
	}
	return nil
}

func (s *OTPStore) Consume(ctx context.Context, identifier, code string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM otps WHERE identifier = $1 AND code = $2`, identifier, code)
	if err != nil {
		return false, domain.Internal(err, "otp.consume", "failed to consume otp")
	}
	return tag.RowsAffected() == 1, nil
}

func (s *OTPStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM otps WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, domain.Internal(err, "otp.delete_expired", "failed to delete expired otps")
	}
	return tag.RowsAffected(), nil
}
