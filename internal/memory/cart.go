package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
)

type CartStore struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

var _ domain.CartStore = (*CartStore)(nil)

func NewCartStore() *CartStore {
	return &CartStore{
		carts: make(map[string]domain.Cart),
	}
}

func (s *CartStore) Get(ctx context.Context, owner string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[owner]
	if !ok {
		return domain.Cart{}, nil
	}
	return c.Clone(), nil
}

func (s *CartStore) AddItem(ctx context.Context, owner, productID string, qty int64, at time.Time) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[owner]
	if !ok {
		c = domain.Cart{}
		s.carts[owner] = c
	}
	c[productID] = min(max(0, c[productID])+qty, domain.MaxQuantity)
	return c.Clone(), nil
}

func (s *CartStore) Put(ctx context.Context, owner string, c domain.Cart, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c == nil {
		c = domain.Cart{}
	}
	s.carts[owner] = c.Clone()
	return nil
}

func (s *CartStore) Delete(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, owner)
	return nil
}
