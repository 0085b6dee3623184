package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	IsConnected() bool
	Close()
}

// NATSPublisher publishes events to NATS core subjects.
type NATSPublisher struct {
	nc       conn
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

// NewNATSPublisher connects to url, retrying the initial dial a few times.
func NewNATSPublisher(ctx context.Context, url string, logger *slog.Logger) (*NATSPublisher, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var nc *nats.Conn
	var err error

	for i := 0; i < 3; i++ {
		nc, err = nats.Connect(url,
			nats.Name("bharosa"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
				logger.Warn("NATS disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
			}),
		)
		if err == nil {
			logger.Info("connected to NATS", "url", nc.ConnectedUrl())
			return newNATSPublisher(nc, logger), nil
		}

		logger.Warn("failed to connect to NATS", "attempt", i+1, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		case <-time.After(2 * time.Second):
		}
	}

	return nil, fmt.Errorf("failed to connect to NATS after retries: %w", err)
}

func newNATSPublisher(nc conn, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, logger: logger, attempts: 3, backoff: 500 * time.Millisecond}
}

// Publish sends event on its subject and flushes, retrying transient failures.
func (p *NATSPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if event.Subject == "" {
		return errors.New("events: subject required")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for i := 0; i < p.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff):
			}
		}

		if err := p.nc.Publish(event.Subject, data); err != nil {
			p.logger.Warn("failed to publish to NATS", "subject", event.Subject, "attempt", i+1, "error", err)
			lastErr = err
			continue
		}
		if err := p.nc.FlushTimeout(2 * time.Second); err != nil {
			p.logger.Warn("failed to flush NATS connection", "subject", event.Subject, "error", err)
			lastErr = err
			continue
		}

		p.logger.Debug("published event", "subject", event.Subject, "order_id", event.OrderID)
		return nil
	}

	return fmt.Errorf("failed to publish %s after %d attempts: %w", event.Subject, p.attempts, lastErr)
}

func (p *NATSPublisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
		p.logger.Info("NATS connection closed")
	}
}
