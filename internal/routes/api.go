package routes

import (
	"net/http"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/handler"
	"github.com/dukerupert/bharosa/internal/router"
)

// RegisterAPIRoutes registers the storefront and admin JSON API.
// There is no authentication; the admin routes are expected to sit behind
// a trusted network or proxy.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	r.Get("/api/health", deps.HealthHandler.Health)

	// Catalog and cart pricing
	r.Get("/api/products", deps.ProductHandler.List)
	r.Get("/api/products/{id}", deps.ProductHandler.Get)
	r.Post("/api/cart/quote", deps.CartHandler.Quote)

	// Server-side cart, keyed by X-User-ID
	r.Get("/api/cart", deps.CartHandler.Get)
	r.Post("/api/cart/add", deps.CartHandler.Add)
	r.Post("/api/cart/update", deps.CartHandler.Update)
	r.Delete("/api/cart", deps.CartHandler.Clear)

	// Orders. /api/checkout is the cart-page alias of order creation.
	r.Post("/api/orders", deps.OrderHandler.Create)
	r.Post("/api/checkout", deps.OrderHandler.Create)
	r.Get("/api/orders", deps.OrderHandler.List)
	r.Get("/api/orders/{id}", deps.OrderHandler.Get)
	r.Patch("/api/orders/{id}/status", deps.OrderHandler.UpdateStatus)

	// Online payment
	r.Post("/api/orders/{id}/razorpay-order", deps.OrderHandler.CreatePaymentIntent)
	r.Post("/api/orders/{id}/confirm", deps.OrderHandler.ConfirmPayment)

	// One-time codes
	otp := r
	if deps.OTPLimiter != nil {
		otp = r.Group(deps.OTPLimiter)
	}
	otp.Post("/api/send-otp", deps.OTPHandler.Send)
	otp.Post("/api/verify-otp", deps.OTPHandler.Verify)

	// Reports
	r.Get("/api/analytics", deps.AnalyticsHandler.Summary)
}

// RegisterOpsRoutes registers operational endpoints and the JSON fallback
// for unmatched paths.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	if deps.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.ErrorResponse(w, req, domain.Errorf(domain.ENOTFOUND, "", "Not found"))
	})
}
