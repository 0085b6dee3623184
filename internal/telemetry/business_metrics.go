package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the order and OTP flows.
type BusinessMetrics struct {
	// Cart & orders
	CartQuotes     prometheus.Counter
	CartUpdates    *prometheus.CounterVec
	OrdersPlaced   *prometheus.CounterVec
	OrderValue     *prometheus.HistogramVec
	OrderItemCount prometheus.Histogram
	StatusUpdates  *prometheus.CounterVec

	// Payments
	PaymentIntents    *prometheus.CounterVec
	PaymentConfirmed  *prometheus.CounterVec
	SignatureFailures prometheus.Counter
	RevenueCollected  prometheus.Counter
	GatewayAPILatency *prometheus.HistogramVec
	GatewayAPIErrors  *prometheus.CounterVec

	// OTP
	OTPIssued   *prometheus.CounterVec
	OTPVerified *prometheus.CounterVec

	// Notifications
	Notifications   *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

// NewBusinessMetrics creates business metrics and registers them with reg.
// A nil reg uses the default Prometheus registry.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "bharosa"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "business"

	m := &BusinessMetrics{
		// =======================================================================
		// Cart & Orders
		// =======================================================================
		CartQuotes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_quotes_total",
				Help:      "Total cart totals computed for quote requests",
			},
		),
		CartUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updates_total",
				Help:      "Total changes to stored carts",
			},
			[]string{"action"}, // add, replace, clear
		),
		OrdersPlaced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_placed_total",
				Help:      "Total orders placed",
			},
			[]string{"payment_method"}, // COD, ONLINE
		),
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_rupees",
				Help:      "Payable amount per order in rupees",
				Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000},
			},
			[]string{"payment_method"},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_units",
				Help:      "Units per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
		),
		StatusUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_status_updates_total",
				Help:      "Total admin status updates",
			},
			[]string{"status"},
		),

		// =======================================================================
		// Payments
		// =======================================================================
		PaymentIntents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_intents_total",
				Help:      "Total gateway orders requested",
			},
			[]string{"outcome"}, // created, error
		),
		PaymentConfirmed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_confirmations_total",
				Help:      "Total payment confirmations",
			},
			[]string{"outcome"}, // paid, duplicate
		),
		SignatureFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_signature_failures_total",
				Help:      "Total payment confirmations rejected for a bad signature",
			},
		),
		RevenueCollected: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "revenue_collected_rupees_total",
				Help:      "Total rupees collected through online payments",
			},
		),
		GatewayAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gateway_api_duration_seconds",
				Help:      "Payment gateway API call duration",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		GatewayAPIErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gateway_api_errors_total",
				Help:      "Total payment gateway API failures",
			},
			[]string{"operation", "temporary"},
		),

		// =======================================================================
		// OTP
		// =======================================================================
		OTPIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "otp_issued_total",
				Help:      "Total OTPs issued",
			},
			[]string{"channel"}, // email, sms
		),
		OTPVerified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "otp_verifications_total",
				Help:      "Total OTP verification attempts",
			},
			[]string{"outcome"}, // verified, mismatch, expired
		),

		// =======================================================================
		// Notifications
		// =======================================================================
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total notification attempts",
			},
			[]string{"channel", "outcome"}, // outcome: sent, skipped, failed
		),
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_published_total",
				Help:      "Total order events published",
			},
			[]string{"subject", "outcome"},
		),
	}

	return m
}

// Global instance for easy access from services
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, nil)
	return Business
}

// The Record helpers are safe on a nil receiver so services can run without
// metrics in tests.

func (m *BusinessMetrics) RecordOrderPlaced(paymentMethod string, payable, units int64) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(paymentMethod).Inc()
	m.OrderValue.WithLabelValues(paymentMethod).Observe(float64(payable))
	m.OrderItemCount.Observe(float64(units))
}

func (m *BusinessMetrics) RecordCartQuote() {
	if m == nil {
		return
	}
	m.CartQuotes.Inc()
}

func (m *BusinessMetrics) RecordCartUpdate(action string) {
	if m == nil {
		return
	}
	m.CartUpdates.WithLabelValues(action).Inc()
}

func (m *BusinessMetrics) RecordStatusUpdate(status string) {
	if m == nil {
		return
	}
	m.StatusUpdates.WithLabelValues(status).Inc()
}

func (m *BusinessMetrics) RecordPaymentIntent(outcome string) {
	if m == nil {
		return
	}
	m.PaymentIntents.WithLabelValues(outcome).Inc()
}

func (m *BusinessMetrics) RecordGatewayCall(operation string, seconds float64, err error, temporary bool) {
	if m == nil {
		return
	}
	m.GatewayAPILatency.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		t := "false"
		if temporary {
			t = "true"
		}
		m.GatewayAPIErrors.WithLabelValues(operation, t).Inc()
	}
}

func (m *BusinessMetrics) RecordPaymentConfirmed(outcome string, payable int64) {
	if m == nil {
		return
	}
	m.PaymentConfirmed.WithLabelValues(outcome).Inc()
	if outcome == "paid" {
		m.RevenueCollected.Add(float64(payable))
	}
}

func (m *BusinessMetrics) RecordSignatureFailure() {
	if m == nil {
		return
	}
	m.SignatureFailures.Inc()
}

func (m *BusinessMetrics) RecordOTPIssued(channel string) {
	if m == nil {
		return
	}
	m.OTPIssued.WithLabelValues(channel).Inc()
}

func (m *BusinessMetrics) RecordOTPVerification(outcome string) {
	if m == nil {
		return
	}
	m.OTPVerified.WithLabelValues(outcome).Inc()
}

func (m *BusinessMetrics) RecordNotification(channel, outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *BusinessMetrics) RecordEvent(subject, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(subject, outcome).Inc()
}
