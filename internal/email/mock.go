package email

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockSender records sent mail instead of delivering it.
type MockSender struct {
	mu   sync.Mutex
	sent []Email

	// Err, when set, is returned from every Send.
	Err error

	// Delay simulates a slow SMTP relay.
	Delay time.Duration
}

var _ Sender = (*MockSender)(nil)

func (m *MockSender) Send(ctx context.Context, email *Email) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, *email)
	return fmt.Sprintf("mock-%d", len(m.sent)), nil
}

// Sent returns a copy of the delivered messages.
func (m *MockSender) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}
