package service

import (
	"github.com/dukerupert/bharosa/internal/domain"
)

// Cart and checkout errors
var (
	ErrCartEmpty            = domain.Errorf(domain.EINVALID, "", "Cart is empty")
	ErrInvalidPaymentMethod = domain.Errorf(domain.EINVALID, "", "Payment method must be COD or ONLINE")
)

// Order errors - ErrOrderNotFound matches domain.ErrOrderNotFound with errors.Is
var (
	ErrOrderNotFound  = domain.ErrOrderNotFound
	ErrStatusRequired = domain.Errorf(domain.EINVALID, "", "Status required")
)

// Payment errors
var (
	ErrNotOnlineOrder       = domain.Errorf(domain.EINVALID, "", "Not an ONLINE order")
	ErrOrderAlreadyPaid     = domain.Errorf(domain.ECONFLICT, "", "Order is already paid")
	ErrOrderNotPending      = domain.ErrOrderNotPending
	ErrMissingPaymentID     = domain.Errorf(domain.EINVALID, "", "Missing payment id")
	ErrInvalidSignature     = domain.Errorf(domain.EINVALID, "", "Invalid signature")
	ErrGatewayNotConfigured = domain.Errorf(domain.EINVALID, "", "Razorpay keys missing. Set RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET env vars.")
	ErrGatewayUnavailable   = domain.Errorf(domain.EUNAVAILABLE, "", "Failed to create Razorpay order")
)

// OTP errors
var (
	ErrOTPNotFoundOrExpired = domain.Errorf(domain.ENOTFOUND, "", "OTP not found or expired")
	ErrOTPMismatch          = domain.Errorf(domain.EINVALID, "", "Incorrect OTP")
)

// Analytics errors
var (
	ErrInvalidPeriod = domain.Errorf(domain.EINVALID, "", "Period must be 7, 30, 90, 365 or custom")
)
