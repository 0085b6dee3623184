package domain

import (
	"context"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order. PLACED, PENDING_PAYMENT and
// PAID are set by the system; admins may set any other non-empty label
// (e.g. "SHIPPED", "OUT_FOR_DELIVERY").
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "PLACED"
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
)

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

// InitialStatus is the status an order starts in for this payment method.
func (m PaymentMethod) InitialStatus() OrderStatus {
	if m == PaymentMethodOnline {
		return OrderStatusPendingPayment
	}
	return OrderStatusPlaced
}

// Label is the human-readable payment method name.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodCOD:
		return "Cash on Delivery"
	case PaymentMethodOnline:
		return "Online Payment"
	case "":
		return "Unknown"
	}
	return string(m)
}

// Address is the delivery address captured at checkout.
type Address struct {
	FullName    string `json:"fullName" validate:"required"`
	Mobile      string `json:"mobile" validate:"required"`
	AddressLine string `json:"addressLine" validate:"required"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Pincode     string `json:"pincode" validate:"required"`
	Landmark    string `json:"landmark,omitempty"`
}

// OneLine joins the non-empty delivery fields for display.
func (a Address) OneLine() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{a.AddressLine, a.City, a.State, a.Pincode} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Customer identifies who placed the order. All fields are optional.
type Customer struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Payment accumulates gateway fields on an order. Updates are merged: a field
// that is empty in the update never clears a stored value.
type Payment struct {
	// RemoteOrderID is the gateway order created for this order.
	RemoteOrderID string `json:"razorpayOrderId,omitempty"`

	// Fields echoed back by the checkout widget after a successful charge.
	PaymentID        string `json:"razorpay_payment_id,omitempty"`
	ConfirmedOrderID string `json:"razorpay_order_id,omitempty"`
	Signature        string `json:"razorpay_signature,omitempty"`

	PaidAt *time.Time `json:"paidAt,omitempty"`
}

// Merge returns p with every non-empty field of u applied on top.
func (p Payment) Merge(u Payment) Payment {
	if u.RemoteOrderID != "" {
		p.RemoteOrderID = u.RemoteOrderID
	}
	if u.PaymentID != "" {
		p.PaymentID = u.PaymentID
	}
	if u.ConfirmedOrderID != "" {
		p.ConfirmedOrderID = u.ConfirmedOrderID
	}
	if u.Signature != "" {
		p.Signature = u.Signature
	}
	if u.PaidAt != nil {
		t := *u.PaidAt
		p.PaidAt = &t
	}
	return p
}

// Order is a placed order with its frozen totals snapshot.
type Order struct {
	ID            string        `json:"id"`
	UserID        *string       `json:"userId"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Totals        Totals        `json:"totals"`
	Address       Address       `json:"address"`
	Customer      Customer      `json:"customer"`
	Payment       Payment       `json:"payment"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Location      *string       `json:"location"`
}

// IsPaid reports whether the order reached PAID.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// Order store errors.
var (
	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrOrderExists   = &Error{Code: ECONFLICT, Message: "Order already exists"}

	// ErrOrderNotPending is returned by MarkPaid when the order has left
	// PENDING_PAYMENT, either paid by a concurrent confirmation or moved on
	// by an admin.
	ErrOrderNotPending = &Error{Code: ECONFLICT, Message: "Order is not awaiting payment"}
)

// OrderStore persists orders. Implementations must make MergePayment and
// MarkPaid single atomic row updates.
type OrderStore interface {
	// Create inserts a new order. Returns ErrOrderExists on id collision.
	Create(ctx context.Context, o *Order) error

	// Get returns the order or ErrOrderNotFound.
	Get(ctx context.Context, id string) (*Order, error)

	// List returns every order, newest first.
	List(ctx context.Context) ([]Order, error)

	// ListBetween returns orders created in [from, to], oldest first.
	ListBetween(ctx context.Context, from, to time.Time) ([]Order, error)

	// UpdateStatus overwrites status and location and stamps updatedAt.
	UpdateStatus(ctx context.Context, id string, status OrderStatus, location *string, at time.Time) (*Order, error)

	// MergePayment merges p into the stored payment fields without
	// touching status.
	MergePayment(ctx context.Context, id string, p Payment, at time.Time) (*Order, error)

	// MarkPaid sets status PAID and merges p into the stored payment
	// fields in one step, but only while the order is PENDING_PAYMENT.
	// Returns ErrOrderNotPending otherwise, so exactly one caller wins.
	MarkPaid(ctx context.Context, id string, p Payment, at time.Time) (*Order, error)
}
