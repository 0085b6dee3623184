package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
)

type OTPStore struct {
	mu      sync.Mutex
	entries map[string]domain.OTPEntry
}

var _ domain.OTPStore = (*OTPStore)(nil)

func NewOTPStore() *OTPStore {
	return &OTPStore{
		entries: make(map[string]domain.OTPEntry),
	}
}

func (s *OTPStore) Put(ctx context.Context, e domain.OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.Identifier] = e
	return nil
}

func (s *OTPStore) Get(ctx context.Context, identifier string) (*domain.OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identifier]
	if !ok {
		return nil, domain.ErrOTPNotFound
	}
	return &e, nil
}

func (s *OTPStore) Delete(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, identifier)
	return nil
}

func (s *OTPStore) Consume(ctx context.Context, identifier, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identifier]
	if !ok || e.Code != code {
		return false, nil
	}
	delete(s.entries, identifier)
	return true, nil
}

func (s *OTPStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many codes are outstanding.
func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
