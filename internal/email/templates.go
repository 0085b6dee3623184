package email

import (
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
)

// EmailTemplate is a message rendered from an embedded template.
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// AdminNewOrderEmail notifies the store admin about an order.
type AdminNewOrderEmail struct {
	Order *domain.Order
}

func (e AdminNewOrderEmail) Subject() string {
	return "BHAROSA New Order: " + e.Order.ID
}

func (e AdminNewOrderEmail) TemplateName() string {
	return "admin_new_order.html"
}

// OrderPlacedEmail confirms a cash-on-delivery order to the customer.
type OrderPlacedEmail struct {
	Order *domain.Order
}

func (e OrderPlacedEmail) Subject() string {
	return "BHAROSA Order Placed: " + e.Order.ID
}

func (e OrderPlacedEmail) TemplateName() string {
	return "order_placed.html"
}

// PaymentSuccessEmail confirms an online payment to the customer.
type PaymentSuccessEmail struct {
	Order *domain.Order
}

func (e PaymentSuccessEmail) Subject() string {
	return "BHAROSA Payment Success: " + e.Order.ID
}

func (e PaymentSuccessEmail) TemplateName() string {
	return "payment_success.html"
}

// StatusUpdateEmail tells the customer about a new status or location.
type StatusUpdateEmail struct {
	Order *domain.Order
}

func (e StatusUpdateEmail) Subject() string {
	return "BHAROSA Order Update: " + e.Order.ID
}

func (e StatusUpdateEmail) TemplateName() string {
	return "status_update.html"
}

// OTPEmail carries a one-time password.
type OTPEmail struct {
	Code  string
	Valid time.Duration
}

func (e OTPEmail) Subject() string {
	return "BHAROSA OTP"
}

func (e OTPEmail) TemplateName() string {
	return "otp.html"
}

// ValidMinutes is the validity window in whole minutes.
func (e OTPEmail) ValidMinutes() int {
	return int(e.Valid / time.Minute)
}
