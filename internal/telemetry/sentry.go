package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dukerupert/bharosa/internal/middleware"
)

const flushTimeout = 2 * time.Second

// SentryConfig configures error reporting. Reporting stays off unless Enabled
// is set and DSN is non-empty.
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string

	// SampleRate defaults to 1 (every error).
	SampleRate float64
	// TracesSampleRate of 0 disables performance tracing.
	TracesSampleRate float64

	Debug bool
}

var sentryEnabled atomic.Bool

// InitSentry configures the global Sentry client and returns a flush function
// for shutdown. Every helper in this file is a no-op until it succeeds.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	noop := func() {}
	sentryEnabled.Store(false)

	switch {
	case !cfg.Enabled:
		logger.Info("Sentry disabled")
		return noop, nil
	case cfg.DSN == "":
		logger.Warn("SENTRY_DSN empty; error reporting disabled")
		return noop, nil
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       rate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		BeforeSend:       scrubEvent,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	sentryEnabled.Store(true)

	logger.Info("Sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", rate,
	)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// scrubEvent strips request bodies and contact details. OTP codes, gateway
// signatures and customer addresses all travel in bodies.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		event.Request.Data = ""
		event.Request.Cookies = ""
	}
	event.User.Email = ""
	event.User.IPAddress = ""
	return event
}

// IsEnabled reports whether events are being sent.
func IsEnabled() bool {
	return sentryEnabled.Load()
}

// hubFrom returns the request's hub when SentryMiddleware installed one.
func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureErrorFromContext reports err with extras attached. Request tags set
// by SentryMiddleware travel with it.
func CaptureErrorFromContext(ctx context.Context, err error, extras map[string]interface{}) {
	if !IsEnabled() || err == nil {
		return
	}
	hub := hubFrom(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtras(extras)
		hub.CaptureException(err)
	})
}

// CaptureMessage reports a non-error event such as a rejected payment
// signature.
func CaptureMessage(ctx context.Context, message string, level sentry.Level, extras map[string]interface{}) {
	if !IsEnabled() {
		return
	}
	hub := hubFrom(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		scope.SetExtras(extras)
		hub.CaptureMessage(message)
	})
}

// AddBreadcrumb records a step that later events on the same request carry.
func AddBreadcrumb(ctx context.Context, category, message string, data map[string]interface{}) {
	if !IsEnabled() {
		return
	}
	hubFrom(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Data:      data,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}, nil)
}

// SentryMiddleware gives each request its own hub tagged with the request id,
// route and client IP. A panic is reported on that hub and answered with the
// API's internal error envelope.
func SentryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.CurrentHub().Clone()
			scope := hub.Scope()
			scope.SetRequest(r)
			if id := middleware.GetRequestID(r.Context()); id != "" {
				scope.SetTag("request_id", id)
			}
			if r.Pattern != "" {
				scope.SetTag("route", r.Pattern)
			}
			if ip := middleware.GetClientIPFromContext(r.Context()); ip != "" {
				scope.SetTag("client_ip", ip)
			}
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hub.RecoverWithContext(ctx, rec)
				hub.Flush(flushTimeout)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":    "internal",
						"message": "An internal error occurred. Please try again later.",
					},
				})
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
