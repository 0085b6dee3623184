package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/bharosa/internal"
	"github.com/dukerupert/bharosa/internal/billing"
	"github.com/dukerupert/bharosa/internal/catalog"
	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/email"
	"github.com/dukerupert/bharosa/internal/events"
	"github.com/dukerupert/bharosa/internal/handler/api"
	"github.com/dukerupert/bharosa/internal/jobs"
	"github.com/dukerupert/bharosa/internal/memory"
	"github.com/dukerupert/bharosa/internal/middleware"
	"github.com/dukerupert/bharosa/internal/postgres"
	"github.com/dukerupert/bharosa/internal/router"
	"github.com/dukerupert/bharosa/internal/routes"
	"github.com/dukerupert/bharosa/internal/service"
	"github.com/dukerupert/bharosa/internal/sms"
	"github.com/dukerupert/bharosa/internal/telemetry"
	"github.com/dukerupert/bharosa/internal/worker"
)

// stores bundles the persistence backends chosen at startup.
type stores struct {
	orders domain.OrderStore
	otps   domain.OTPStore
	carts  domain.CartStore
	check  func(ctx context.Context) error
	close  func()
}

func openStores(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*stores, error) {
	if cfg.Store == "memory" {
		logger.Warn("Using in-memory store; data is lost on restart")
		return &stores{
			orders: memory.NewOrderStore(),
			otps:   memory.NewOTPStore(),
			carts:  memory.NewCartStore(),
			close:  func() {},
		}, nil
	}

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	version, err := internal.RunMigrations(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully", "version", version)

	// Initialize pgx connection pool for application
	pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	logger.Info("Database connection established")

	return &stores{
		orders: postgres.NewOrderStore(pool),
		otps:   postgres.NewOTPStore(pool),
		carts:  postgres.NewCartStore(pool),
		check:  pool.Ping,
		close:  pool.Close,
	}, nil
}

func newPublisher(ctx context.Context, cfg *internal.Config, logger *slog.Logger) events.Publisher {
	if cfg.NATSURL == "" {
		logger.Info("NATS_URL not set; order events are not published")
		return events.NopPublisher{}
	}
	publisher, err := events.NewNATSPublisher(ctx, cfg.NATSURL, logger)
	if err != nil {
		logger.Error("NATS unavailable; order events are not published", "error", err)
		return events.NopPublisher{}
	}
	return publisher
}

func newNotifier(cfg *internal.Config, publisher events.Publisher, metrics *telemetry.BusinessMetrics, logger *slog.Logger) (*service.Notifier, error) {
	var sender email.Sender
	if cfg.Email.Configured() {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
		logger.Info("SMTP configured", "host", cfg.Email.Host, "port", cfg.Email.Port)
	} else {
		logger.Warn("SMTP not configured; emails are skipped")
	}

	mailer, err := email.NewService(sender, email.Config{
		FromAddress: cfg.Email.From,
		FromName:    cfg.Email.FromName,
		AdminEmail:  cfg.Email.AdminEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Twilio first, Fast2SMS as fallback
	text := sms.NewChain(logger,
		sms.NewTwilioSender(sms.TwilioConfig{
			AccountSID:          cfg.SMS.TwilioAccountSID,
			AuthToken:           cfg.SMS.TwilioAuthToken,
			MessagingServiceSID: cfg.SMS.TwilioMessagingSID,
			CountryCode:         cfg.SMS.CountryCode,
		}),
		sms.NewFast2SMSSender(sms.Fast2SMSConfig{
			APIKey:   cfg.SMS.Fast2SMSAPIKey,
			SenderID: cfg.SMS.Fast2SMSSenderID,
			Endpoint: cfg.SMS.Fast2SMSEndpointURL,
		}),
	)
	text.LogUndelivered = cfg.Env != "prod"
	if !text.Configured() {
		logger.Warn("No SMS provider configured; SMS codes are not delivered")
	}

	return service.NewNotifier(mailer, text, publisher, metrics, logger), nil
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	businessMetrics := telemetry.InitBusinessMetrics("bharosa")
	httpMetrics := middleware.NewMetrics("bharosa", prometheus.DefaultRegisterer)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	publisher := newPublisher(ctx, cfg, logger)
	defer publisher.Close()

	notifier, err := newNotifier(cfg, publisher, businessMetrics, logger)
	if err != nil {
		return err
	}

	// Order notifications leave the request goroutine through this queue
	notifyQueue := worker.NewQueue(worker.QueueConfig{Workers: 4, Capacity: 256}, logger)
	notifyQueue.Start()
	notifier.UseQueue(notifyQueue)

	gateway := billing.NewRazorpayProvider(billing.RazorpayConfig{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		Timeout:   cfg.Razorpay.Timeout,
	})
	if !gateway.Configured() {
		logger.Warn("Razorpay keys missing; online payments are disabled")
	}

	products := catalog.Default()

	// Initialize services
	orderService := service.NewOrderService(st.orders, products, gateway, notifier,
		service.WithOrderMetrics(businessMetrics),
		service.WithOrderLogger(logger),
		service.WithCartStore(st.carts),
	)
	cartService := service.NewCartService(st.carts, products,
		service.WithCartMetrics(businessMetrics),
		service.WithCartLogger(logger),
	)
	otpService := service.NewOTPService(st.otps, notifier,
		service.WithOTPTTL(cfg.OTPTTL),
		service.WithOTPMetrics(businessMetrics),
		service.WithOTPLogger(logger),
	)
	analyticsService := service.NewAnalyticsService(st.orders)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "prod" {
		securityConfig.HSTSMaxAge = 31536000
	}

	otpLimiter := middleware.NewRateLimiter(middleware.OTPRateLimiterConfig())
	defer otpLimiter.Stop()

	r := router.New(
		middleware.RequestID,
		middleware.WithClientIP(),
		httpMetrics.Middleware,
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
	)

	storeName := cfg.Store
	routes.RegisterAPIRoutes(r, routes.APIDeps{
		HealthHandler:    api.NewHealthHandler(storeName, st.check),
		ProductHandler:   api.NewProductHandler(products),
		CartHandler:      api.NewCartHandler(orderService, cartService),
		OrderHandler:     api.NewOrderHandler(orderService),
		OTPHandler:       api.NewOTPHandler(otpService),
		AnalyticsHandler: api.NewAnalyticsHandler(analyticsService),
		OTPLimiter:       otpLimiter.Middleware,
	})
	routes.RegisterOpsRoutes(r, routes.OpsDeps{Metrics: httpMetrics.Handler()})

	for _, route := range r.Routes() {
		logger.Debug("route registered", "route", route)
	}

	// CORS and panic recovery wrap the mux so preflights and unmatched
	// routes get them too.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Chain(r, router.Recovery(logger), router.CORS(cfg.CORSOrigins)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env, "store", storeName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background maintenance
	bg := worker.NewWorker(worker.Config{PollInterval: 30 * time.Second}, logger,
		jobs.NewOTPCleanupJob(st.otps, jobs.DefaultCleanupInterval, logger),
	)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = bg.Start(sigCtx)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := notifyQueue.Stop(shutdownCtx); err != nil {
		logger.Warn("notification queue did not drain", "error", err)
	}
	<-workerDone
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
