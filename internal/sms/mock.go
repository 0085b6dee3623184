package sms

import (
	"context"
	"fmt"
	"sync"
)

// Message is a text captured by MockSender.
type Message struct {
	To   string
	Body string
}

// MockSender records messages instead of sending them.
type MockSender struct {
	ProviderName string
	Unconfigured bool
	Err          error

	mu       sync.Mutex
	messages []Message
}

var _ Sender = (*MockSender)(nil)

func (m *MockSender) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockSender) Configured() bool {
	return !m.Unconfigured
}

func (m *MockSender) Send(ctx context.Context, to, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{To: to, Body: body})
	if m.Err != nil {
		return "", m.Err
	}
	return fmt.Sprintf("%s-%d", m.Name(), len(m.messages)), nil
}

// Messages returns every attempted message.
func (m *MockSender) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}
