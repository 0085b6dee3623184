package service

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/bharosa/internal/billing"
	"github.com/dukerupert/bharosa/internal/catalog"
	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/email"
	"github.com/dukerupert/bharosa/internal/events"
	"github.com/dukerupert/bharosa/internal/memory"
	"github.com/dukerupert/bharosa/internal/sms"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	orders   *memory.OrderStore
	otps     *memory.OTPStore
	gateway  *billing.MockProvider
	mail     *email.MockSender
	text     *sms.MockSender
	events   *events.Recorder
	clock    *fakeClock
	notifier *Notifier
	svc      OrderService
	otp      OTPService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:  memory.NewOrderStore(),
		otps:    memory.NewOTPStore(),
		gateway: billing.NewMockProvider("rzp_test_key", "sekrit"),
		mail:    &email.MockSender{},
		text:    &sms.MockSender{ProviderName: "twilio"},
		events:  &events.Recorder{},
		clock:   newFakeClock(),
	}

	mailer, err := email.NewService(f.mail, email.Config{FromAddress: "shop@example.com", AdminEmail: "admin@example.com"})
	require.NoError(t, err)

	logger := discardLogger()
	f.notifier = NewNotifier(mailer, sms.NewChain(logger, f.text), f.events, nil, logger)
	f.notifier.now = f.clock.Now

	f.svc = NewOrderService(f.orders, catalog.Default(), f.gateway, f.notifier,
		WithOrderClock(f.clock.Now),
		WithOrderLogger(logger),
	)
	f.otp = NewOTPService(f.otps, f.notifier,
		WithOTPClock(f.clock.Now),
		WithOTPLogger(logger),
	)
	return f
}

func validAddress() domain.Address {
	return domain.Address{
		FullName:    "Asha Rao",
		Mobile:      "9876543210",
		AddressLine: "12 MG Road",
		City:        "Pune",
		Pincode:     "411001",
	}
}

func subjects(msgs []email.Email) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Subject
	}
	return out
}
