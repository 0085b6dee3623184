package routes

import (
	"net/http"

	"github.com/dukerupert/bharosa/internal/handler/api"
	"github.com/dukerupert/bharosa/internal/router"
)

// APIDeps contains dependencies for the JSON API routes
type APIDeps struct {
	HealthHandler    *api.HealthHandler
	ProductHandler   *api.ProductHandler
	CartHandler      *api.CartHandler
	OrderHandler     *api.OrderHandler
	OTPHandler       *api.OTPHandler
	AnalyticsHandler *api.AnalyticsHandler

	// OTPLimiter throttles the OTP endpoints per client IP. Optional.
	OTPLimiter router.Middleware
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	// Metrics serves the Prometheus scrape endpoint. Optional.
	Metrics http.Handler
}
