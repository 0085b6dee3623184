package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MockProvider is a gateway for tests. It signs and verifies with Secret like
// the real gateway, and creates remote orders in memory.
type MockProvider struct {
	Key    string
	Secret string

	// CreateOrderFunc overrides remote order creation.
	CreateOrderFunc func(ctx context.Context, params CreateOrderParams) (*RemoteOrder, error)

	// VerifyPaymentSignatureFunc overrides signature verification.
	VerifyPaymentSignatureFunc func(remoteOrderID, paymentID, signature string) error

	mu sync.Mutex

	// Orders stores created remote orders by id.
	Orders map[string]*RemoteOrder

	// CallLog tracks method calls for test assertions.
	CallLog []string
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a configured mock gateway.
func NewMockProvider(key, secret string) *MockProvider {
	return &MockProvider{
		Key:     key,
		Secret:  secret,
		Orders:  make(map[string]*RemoteOrder),
		CallLog: []string{},
	}
}

func (m *MockProvider) KeyID() string {
	return m.Key
}

func (m *MockProvider) Configured() bool {
	return m.Key != "" && m.Secret != ""
}

func (m *MockProvider) CreateOrder(ctx context.Context, params CreateOrderParams) (*RemoteOrder, error) {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateOrder(%d, %s, %s)", params.AmountMinor, params.Currency, params.Receipt))
	m.mu.Unlock()

	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, params)
	}
	if !m.Configured() {
		return nil, ErrNotConfigured
	}

	ro := &RemoteOrder{
		ID:          "order_" + ulid.Make().String(),
		AmountMinor: params.AmountMinor,
		Currency:    params.Currency,
		Receipt:     params.Receipt,
		Status:      "created",
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	m.Orders[ro.ID] = ro
	m.mu.Unlock()
	return ro, nil
}

func (m *MockProvider) VerifyPaymentSignature(remoteOrderID, paymentID, signature string) error {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("VerifyPaymentSignature(%s, %s)", remoteOrderID, paymentID))
	m.mu.Unlock()

	if m.VerifyPaymentSignatureFunc != nil {
		return m.VerifyPaymentSignatureFunc(remoteOrderID, paymentID, signature)
	}
	return VerifyPaymentSignature(m.Secret, remoteOrderID, paymentID, signature)
}

func (m *MockProvider) ExpectedSignature(remoteOrderID, paymentID string) (string, error) {
	if m.Secret == "" {
		return "", ErrNotConfigured
	}
	return PaymentSignature(m.Secret, remoteOrderID, paymentID), nil
}

// Sign returns the signature the gateway would issue for a payment.
func (m *MockProvider) Sign(remoteOrderID, paymentID string) string {
	return PaymentSignature(m.Secret, remoteOrderID, paymentID)
}

// Calls returns a copy of the call log.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CallLog...)
}
