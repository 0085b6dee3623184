// Package memory provides in-process implementations of the domain stores.
// They back tests and single-process demo runs (STORE=memory).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

var _ domain.OrderStore = (*OrderStore)(nil)

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*domain.Order),
	}
}

func (s *OrderStore) Create(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return domain.ErrOrderExists
	}

	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *OrderStore) List(ctx context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *OrderStore) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Order
	for _, o := range s.orders {
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, location *string, at time.Time) (*domain.Order, error) {
	return s.update(id, func(o *domain.Order) {
		o.Status = status
		o.Location = cloneString(location)
		o.UpdatedAt = at
	})
}

func (s *OrderStore) MergePayment(ctx context.Context, id string, p domain.Payment, at time.Time) (*domain.Order, error) {
	return s.update(id, func(o *domain.Order) {
		o.Payment = o.Payment.Merge(p)
		o.UpdatedAt = at
	})
}

func (s *OrderStore) MarkPaid(ctx context.Context, id string, p domain.Payment, at time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusPendingPayment {
		return nil, domain.ErrOrderNotPending
	}

	o.Status = domain.OrderStatusPaid
	o.Payment = o.Payment.Merge(p)
	o.UpdatedAt = at
	return cloneOrder(o), nil
}

// update applies fn to the stored order under the write lock.
func (s *OrderStore) update(id string, fn func(*domain.Order)) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}

	fn(o)
	return cloneOrder(o), nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.UserID = cloneString(o.UserID)
	c.Location = cloneString(o.Location)
	if o.Totals.Items != nil {
		c.Totals.Items = append([]domain.TotalsLine(nil), o.Totals.Items...)
	}
	c.Payment = domain.Payment{}.Merge(o.Payment)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
