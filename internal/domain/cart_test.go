package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Cart
	}{
		{"numbers", `{"a1":2,"a3":1}`, Cart{"a1": 2, "a3": 1}},
		{"numeric strings", `{"a1":"2"," a2":" 3 "}`, Cart{"a1": 2, " a2": 3}},
		{"fractions truncate", `{"a1":2.9,"a2":"-1.5"}`, Cart{"a1": 2, "a2": -1}},
		{"garbage becomes zero", `{"a1":"two","a2":true,"a3":null,"a4":{}}`, Cart{"a1": 0, "a2": 0, "a3": 0, "a4": 0}},
		{"huge values become zero", `{"a1":1e300}`, Cart{"a1": 0}},
		{"int64 overflow bait becomes zero", `{"a1":9223372036854775807,"a2":"9223372036854775807","a3":-9223372036854775808}`, Cart{"a1": 0, "a2": 0, "a3": 0}},
		{"limit is kept", `{"a1":2147483647,"a2":2147483648}`, Cart{"a1": MaxQuantity, "a2": 0}},
		{"null cart", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cart
			require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestCart_UnmarshalJSON_RejectsNonObject(t *testing.T) {
	var c Cart
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &c))
}

func TestPayment_Merge(t *testing.T) {
	paidAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	stored := Payment{RemoteOrderID: "order_R1"}

	merged := stored.Merge(Payment{
		PaymentID:        "pay_1",
		ConfirmedOrderID: "order_R1",
		Signature:        "abc",
		PaidAt:           &paidAt,
	})

	assert.Equal(t, "order_R1", merged.RemoteOrderID, "earlier fields survive the merge")
	assert.Equal(t, "pay_1", merged.PaymentID)
	assert.Equal(t, "abc", merged.Signature)
	require.NotNil(t, merged.PaidAt)
	assert.True(t, paidAt.Equal(*merged.PaidAt))

	assert.Equal(t, merged, merged.Merge(Payment{}), "an empty update changes nothing")
}

func TestPaymentMethod(t *testing.T) {
	assert.True(t, PaymentMethodCOD.Valid())
	assert.True(t, PaymentMethodOnline.Valid())
	assert.False(t, PaymentMethod("UPI").Valid())
	assert.False(t, PaymentMethod("cod").Valid())

	assert.Equal(t, OrderStatusPlaced, PaymentMethodCOD.InitialStatus())
	assert.Equal(t, OrderStatusPendingPayment, PaymentMethodOnline.InitialStatus())
	assert.Equal(t, "Cash on Delivery", PaymentMethodCOD.Label())
}

func TestClassifyIdentifier(t *testing.T) {
	tests := []struct {
		in      string
		channel OTPChannel
		ok      bool
	}{
		{"user@example.com", OTPChannelEmail, true},
		{"  user@example.com ", OTPChannelEmail, true},
		{"user@localhost", OTPChannelEmail, false},
		{"9876543210", OTPChannelSMS, true},
		{"98765 43210", "", false},
		{"+919876543210", "", false},
		{"12345", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ch, ok := ClassifyIdentifier(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.channel, ch)
			}
		})
	}
}

func TestOTPEntry_Expired(t *testing.T) {
	now := time.Now()
	e := OTPEntry{ExpiresAt: now}
	assert.True(t, e.Expired(now), "expiry instant itself is expired")
	assert.False(t, e.Expired(now.Add(-time.Second)))
}
