//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/dukerupert/bharosa/internal"
	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/postgres/
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	defer db.Close()
	_, err = internal.RunMigrations(db)
	require.NoError(t, err)

	pool, err := postgres.Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestOrderStore_Lifecycle(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	store := postgres.NewOrderStore(pool)

	id := "ord_" + ulid.Make().String()
	created := time.Now().UTC().Truncate(time.Microsecond)
	userID := "u_1"

	err := store.Create(ctx, &domain.Order{
		ID:            id,
		UserID:        &userID,
		Status:        domain.OrderStatusPendingPayment,
		PaymentMethod: domain.PaymentMethodOnline,
		Totals: domain.Totals{
			Items:      []domain.TotalsLine{{ID: "a1", Name: "Aashirvaad Atta 5kg", Price: 255, MRP: 299, Qty: 2, LineMRP: 598, LinePrice: 510}},
			TotalMRP:   598,
			TotalPrice: 510,
			Discount:   88,
			Payable:    510,
		},
		Address:   domain.Address{FullName: "A", Mobile: "9876543210", AddressLine: "1 Road", Pincode: "411001"},
		Customer:  domain.Customer{ID: userID, Email: "a@example.com"},
		CreatedAt: created,
		UpdatedAt: created,
	})
	require.NoError(t, err)

	err = store.Create(ctx, &domain.Order{ID: id, CreatedAt: created})
	assert.ErrorIs(t, err, domain.ErrOrderExists)

	o, err := store.MergePayment(ctx, id, domain.Payment{RemoteOrderID: "order_R1"}, created.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPendingPayment, o.Status)

	o, err = store.MarkPaid(ctx, id, domain.Payment{PaymentID: "pay_1", ConfirmedOrderID: "order_R1", Signature: "sig"}, created.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
	assert.Equal(t, "order_R1", o.Payment.RemoteOrderID)
	assert.Equal(t, "pay_1", o.Payment.PaymentID)
	assert.Equal(t, int64(510), o.Totals.Payable)

	_, err = store.MarkPaid(ctx, id, domain.Payment{PaymentID: "pay_2", Signature: "sig2"}, created.Add(3*time.Second))
	assert.ErrorIs(t, err, domain.ErrOrderNotPending)
	_, err = store.MarkPaid(ctx, "ord_missing", domain.Payment{PaymentID: "pay_2"}, created)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	o, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", o.Payment.PaymentID)

	loc := "Pune hub"
	o, err = store.UpdateStatus(ctx, id, "SHIPPED", &loc, created.Add(3*time.Second))
	require.NoError(t, err)
	require.NotNil(t, o.Location)
	assert.Equal(t, "Pune hub", *o.Location)

	_, err = store.Get(ctx, "ord_missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOTPStore_Upsert(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	store := postgres.NewOTPStore(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, store.Put(ctx, domain.OTPEntry{Identifier: "9000000001", Code: "111111", ExpiresAt: now.Add(time.Minute), CreatedAt: now}))
	require.NoError(t, store.Put(ctx, domain.OTPEntry{Identifier: "9000000001", Code: "222222", ExpiresAt: now.Add(time.Minute), CreatedAt: now}))

	e, err := store.Get(ctx, "9000000001")
	require.NoError(t, err)
	assert.Equal(t, "222222", e.Code)

	ok, err := store.Consume(ctx, "9000000001", "111111")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, "9000000001", "222222")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "9000000001"))
	_, err = store.Get(ctx, "9000000001")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestOTPStore_DeleteExpired(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	store := postgres.NewOTPStore(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, store.Put(ctx, domain.OTPEntry{Identifier: "9000000002", Code: "111111", ExpiresAt: now.Add(-time.Minute), CreatedAt: now}))
	require.NoError(t, store.Put(ctx, domain.OTPEntry{Identifier: "9000000003", Code: "222222", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
	t.Cleanup(func() { _ = store.Delete(context.Background(), "9000000003") })

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = store.Get(ctx, "9000000002")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
	_, err = store.Get(ctx, "9000000003")
	assert.NoError(t, err)
}
