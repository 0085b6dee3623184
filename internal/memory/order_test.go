package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(id string, at time.Time) *domain.Order {
	return &domain.Order{
		ID:            id,
		Status:        domain.OrderStatusPendingPayment,
		PaymentMethod: domain.PaymentMethodOnline,
		Totals: domain.Totals{
			Items:   []domain.TotalsLine{{ID: "a1", Qty: 1, Price: 255, MRP: 299, LinePrice: 255, LineMRP: 299}},
			Payable: 255,
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestOrderStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	now := time.Now()

	require.NoError(t, s.Create(ctx, newOrder("ord_1", now)))
	assert.ErrorIs(t, s.Create(ctx, newOrder("ord_1", now)), domain.ErrOrderExists)

	got, err := s.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, int64(255), got.Totals.Payable)

	// Returned orders are copies
	got.Totals.Items[0].Qty = 99
	again, _ := s.Get(ctx, "ord_1")
	assert.Equal(t, int64(1), again.Totals.Items[0].Qty)

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
}

func TestOrderStore_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, newOrder("ord_old", base)))
	require.NoError(t, s.Create(ctx, newOrder("ord_new", base.Add(2*time.Hour))))
	require.NoError(t, s.Create(ctx, newOrder("ord_mid", base.Add(time.Hour))))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"ord_new", "ord_mid", "ord_old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	window, err := s.ListBetween(ctx, base.Add(30*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "ord_mid", window[0].ID)
	assert.Equal(t, "ord_new", window[1].ID)
}

func TestOrderStore_MergeAndMarkPaid(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	now := time.Now()
	require.NoError(t, s.Create(ctx, newOrder("ord_1", now)))

	o, err := s.MergePayment(ctx, "ord_1", domain.Payment{RemoteOrderID: "order_R1"}, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPendingPayment, o.Status, "merging payment fields keeps status")

	o, err = s.MarkPaid(ctx, "ord_1", domain.Payment{PaymentID: "pay_1", Signature: "sig"}, now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
	assert.Equal(t, "order_R1", o.Payment.RemoteOrderID)
	assert.Equal(t, "pay_1", o.Payment.PaymentID)
	assert.True(t, o.UpdatedAt.Equal(now.Add(2*time.Second)))

	_, err = s.MarkPaid(ctx, "nope", domain.Payment{}, now)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderStore_MarkPaidRequiresPending(t *testing.T) {
	tests := []struct {
		name   string
		status domain.OrderStatus
	}{
		{name: "already paid", status: domain.OrderStatusPaid},
		{name: "moved on by admin", status: "SHIPPED"},
		{name: "cash on delivery", status: domain.OrderStatusPlaced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := NewOrderStore()
			now := time.Now()
			o := newOrder("ord_1", now)
			o.Status = tt.status
			o.Payment = domain.Payment{PaymentID: "pay_1", Signature: "sig"}
			require.NoError(t, s.Create(ctx, o))

			_, err := s.MarkPaid(ctx, "ord_1", domain.Payment{PaymentID: "pay_2", Signature: "sig2"}, now.Add(time.Second))
			assert.ErrorIs(t, err, domain.ErrOrderNotPending)
			assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

			stored, err := s.Get(ctx, "ord_1")
			require.NoError(t, err)
			assert.Equal(t, tt.status, stored.Status)
			assert.Equal(t, "pay_1", stored.Payment.PaymentID)
			assert.True(t, stored.UpdatedAt.Equal(now))
		})
	}
}

func TestOrderStore_UpdateStatusOverwritesLocation(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	require.NoError(t, s.Create(ctx, newOrder("ord_1", time.Now())))

	loc := "Pune hub"
	o, err := s.UpdateStatus(ctx, "ord_1", "SHIPPED", &loc, time.Now())
	require.NoError(t, err)
	require.NotNil(t, o.Location)
	assert.Equal(t, "Pune hub", *o.Location)

	o, err = s.UpdateStatus(ctx, "ord_1", "DELIVERED", nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatus("DELIVERED"), o.Status)
	assert.Nil(t, o.Location)
}

func TestOrderStore_ConcurrentMarkPaid(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	require.NoError(t, s.Create(ctx, newOrder("ord_1", time.Now())))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MarkPaid(ctx, "ord_1", domain.Payment{PaymentID: "pay_1"}, time.Now())
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrOrderNotPending)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)

	o, err := s.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
	assert.Equal(t, "pay_1", o.Payment.PaymentID)
}

func TestOTPStore(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore()

	require.NoError(t, s.Put(ctx, domain.OTPEntry{Identifier: "9876543210", Code: "111111"}))
	require.NoError(t, s.Put(ctx, domain.OTPEntry{Identifier: "9876543210", Code: "222222"}))
	assert.Equal(t, 1, s.Len(), "reissue replaces")

	e, err := s.Get(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "222222", e.Code)

	require.NoError(t, s.Delete(ctx, "9876543210"))
	require.NoError(t, s.Delete(ctx, "9876543210"))

	_, err = s.Get(ctx, "9876543210")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestOTPStore_Consume(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore()
	require.NoError(t, s.Put(ctx, domain.OTPEntry{Identifier: "a@b.co", Code: "123456"}))

	ok, err := s.Consume(ctx, "a@b.co", "654321")
	require.NoError(t, err)
	assert.False(t, ok, "wrong code keeps the entry")
	assert.Equal(t, 1, s.Len())

	ok, err = s.Consume(ctx, "a@b.co", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Consume(ctx, "a@b.co", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "second use fails")
}

func TestOTPStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore()
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, domain.OTPEntry{Identifier: "old@b.co", Code: "111111", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, s.Put(ctx, domain.OTPEntry{Identifier: "edge@b.co", Code: "222222", ExpiresAt: now}))
	require.NoError(t, s.Put(ctx, domain.OTPEntry{Identifier: "9876543210", Code: "333333", ExpiresAt: now.Add(time.Minute)}))

	n, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 1, s.Len())

	_, err = s.Get(ctx, "9876543210")
	assert.NoError(t, err)
}
