// Package events publishes order lifecycle events to a message broker.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
)

// Subjects events are published on.
const (
	SubjectOrderPlaced        = "orders.placed"
	SubjectOrderPaid          = "orders.paid"
	SubjectOrderStatusUpdated = "orders.status_updated"
)

// OrderEvent is the payload published for every order transition.
type OrderEvent struct {
	Subject       string               `json:"-"`
	OrderID       string               `json:"order_id"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Payable       int64                `json:"payable"`
	Location      *string              `json:"location,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// NewOrderEvent builds an event for order on subject.
func NewOrderEvent(subject string, order *domain.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Subject:       subject,
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Payable:       order.Totals.Payable,
		Location:      order.Location,
		OccurredAt:    at.UTC(),
	}
}

// Publisher publishes order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close()                                    {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (r *Recorder) Publish(_ context.Context, event OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() {}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OrderEvent(nil), r.events...)
}
