package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/email"
	"github.com/dukerupert/bharosa/internal/events"
	"github.com/dukerupert/bharosa/internal/jobs"
	"github.com/dukerupert/bharosa/internal/sms"
	"github.com/dukerupert/bharosa/internal/telemetry"
	"github.com/dukerupert/bharosa/internal/worker"
)

// Notification channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelEvent = "event"
)

// notifyTimeout bounds a single queued notification attempt.
const notifyTimeout = 30 * time.Second

// otpTimeout bounds OTP delivery, which runs inside the request and must
// finish well before the request timeout.
const otpTimeout = 10 * time.Second

// notifyTaskTimeout bounds a whole fan-out (up to three attempts).
const notifyTaskTimeout = 2 * time.Minute

// TaskQueue accepts background work. *worker.Queue satisfies it.
type TaskQueue interface {
	Enqueue(ctx context.Context, t worker.Task) error
}

// NotifyResult is the outcome of one notification attempt.
type NotifyResult struct {
	Channel  string
	Message  string // which notification, e.g. "admin_new_order"
	Provider string // SMS provider that accepted the message
	Sent     bool
	Err      error
}

// Notifier fans order and OTP notifications out to mail, SMS and the event
// bus. Failures are logged and counted, never returned to the caller's flow.
type Notifier struct {
	email   *email.Service
	sms     *sms.Chain
	events  events.Publisher
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
	now     func() time.Time
	queue   TaskQueue
}

// NewNotifier creates a notifier. Any of mail, text and publisher may be nil.
func NewNotifier(mail *email.Service, text *sms.Chain, publisher events.Publisher, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *Notifier {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		email:   mail,
		sms:     text,
		events:  publisher,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// UseQueue moves the Queue* fan-outs off the caller's goroutine. Without a
// queue they run inline.
func (n *Notifier) UseQueue(q TaskQueue) {
	n.queue = q
}

// QueueOrderPlaced runs OrderPlaced in the background.
func (n *Notifier) QueueOrderPlaced(ctx context.Context, order *domain.Order) {
	n.dispatch(ctx, jobs.JobTypeNotifyOrderPlaced, order.ID, func(ctx context.Context) {
		n.OrderPlaced(ctx, order)
	})
}

// QueuePaymentReceived runs PaymentReceived in the background.
func (n *Notifier) QueuePaymentReceived(ctx context.Context, order *domain.Order) {
	n.dispatch(ctx, jobs.JobTypeNotifyPaymentReceived, order.ID, func(ctx context.Context) {
		n.PaymentReceived(ctx, order)
	})
}

// QueueStatusUpdated runs StatusUpdated in the background.
func (n *Notifier) QueueStatusUpdated(ctx context.Context, order *domain.Order) {
	n.dispatch(ctx, jobs.JobTypeNotifyStatusUpdated, order.ID, func(ctx context.Context) {
		n.StatusUpdated(ctx, order)
	})
}

// dispatch enqueues fn, falling back to a bare goroutine when the queue is
// full or already stopped.
func (n *Notifier) dispatch(ctx context.Context, name, orderID string, fn func(context.Context)) {
	if n.queue == nil {
		fn(ctx)
		return
	}

	err := n.queue.Enqueue(ctx, worker.Task{
		Name:    name,
		Timeout: notifyTaskTimeout,
		Run: func(ctx context.Context) error {
			fn(ctx)
			return nil
		},
	})
	if err != nil {
		n.logger.Warn("notification queue rejected task", "task", name, "order_id", orderID, "error", err)
		go fn(context.WithoutCancel(ctx))
	}
}

// OrderPlaced tells the admin about a new order, confirms COD orders to the
// customer and publishes orders.placed.
func (n *Notifier) OrderPlaced(ctx context.Context, order *domain.Order) []NotifyResult {
	results := []NotifyResult{
		n.mail(ctx, "admin_new_order", order.ID, func(ctx context.Context, s *email.Service) (bool, error) {
			return s.SendAdminNewOrder(ctx, order)
		}),
	}
	if order.PaymentMethod == domain.PaymentMethodCOD {
		results = append(results, n.mail(ctx, "order_placed", order.ID, func(ctx context.Context, s *email.Service) (bool, error) {
			return s.SendOrderPlaced(ctx, order)
		}))
	}
	return append(results, n.publish(ctx, events.SubjectOrderPlaced, order))
}

// PaymentReceived tells the admin and the customer about a confirmed payment
// and publishes orders.paid.
func (n *Notifier) PaymentReceived(ctx context.Context, order *domain.Order) []NotifyResult {
	return []NotifyResult{
		n.mail(ctx, "admin_new_order", order.ID, func(ctx context.Context, s *email.Service) (bool, error) {
			return s.SendAdminNewOrder(ctx, order)
		}),
		n.mail(ctx, "payment_success", order.ID, func(ctx context.Context, s *email.Service) (bool, error) {
			return s.SendPaymentSuccess(ctx, order)
		}),
		n.publish(ctx, events.SubjectOrderPaid, order),
	}
}

// StatusUpdated tells the customer about a status change and publishes
// orders.status_updated.
func (n *Notifier) StatusUpdated(ctx context.Context, order *domain.Order) []NotifyResult {
	return []NotifyResult{
		n.mail(ctx, "status_update", order.ID, func(ctx context.Context, s *email.Service) (bool, error) {
			return s.SendStatusUpdate(ctx, order)
		}),
		n.publish(ctx, events.SubjectOrderStatusUpdated, order),
	}
}

// OTP delivers a one-time code over the identifier's channel. It runs
// inline: the caller reports whether delivery succeeded.
func (n *Notifier) OTP(ctx context.Context, channel domain.OTPChannel, identifier, code string, ttl time.Duration) NotifyResult {
	if channel == domain.OTPChannelEmail {
		return n.mailWithin(ctx, otpTimeout, "otp", "", func(ctx context.Context, s *email.Service) (bool, error) {
			return s.SendOTP(ctx, identifier, email.OTPEmail{Code: code, Valid: ttl})
		})
	}

	res := NotifyResult{Channel: ChannelSMS, Message: "otp"}
	if n.sms == nil || !n.sms.Configured() {
		return n.record(ctx, res, "")
	}

	ctx, cancel := detach(ctx, otpTimeout)
	defer cancel()

	body := fmt.Sprintf("Your BHAROSA OTP is: %s. Valid for %d minutes. Do not share.", code, int(ttl/time.Minute))
	delivery, err := n.sms.Send(ctx, identifier, body)
	res.Provider = delivery.Provider
	res.Sent = err == nil
	res.Err = err
	return n.record(ctx, res, "")
}

func (n *Notifier) mail(ctx context.Context, message, orderID string, send func(context.Context, *email.Service) (bool, error)) NotifyResult {
	return n.mailWithin(ctx, notifyTimeout, message, orderID, send)
}

func (n *Notifier) mailWithin(ctx context.Context, timeout time.Duration, message, orderID string, send func(context.Context, *email.Service) (bool, error)) NotifyResult {
	res := NotifyResult{Channel: ChannelEmail, Message: message}
	if n.email == nil {
		return n.record(ctx, res, orderID)
	}

	ctx, cancel := detach(ctx, timeout)
	defer cancel()

	res.Sent, res.Err = send(ctx, n.email)
	return n.record(ctx, res, orderID)
}

func (n *Notifier) publish(ctx context.Context, subject string, order *domain.Order) NotifyResult {
	ctx, cancel := detach(ctx, notifyTimeout)
	defer cancel()

	err := n.events.Publish(ctx, events.NewOrderEvent(subject, order, n.now()))
	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	n.metrics.RecordEvent(subject, outcome)
	return n.record(ctx, NotifyResult{Channel: ChannelEvent, Message: subject, Sent: err == nil, Err: err}, order.ID)
}

func (n *Notifier) record(ctx context.Context, res NotifyResult, orderID string) NotifyResult {
	switch {
	case res.Err != nil:
		n.metrics.RecordNotification(res.Channel, "failed")
		n.logger.Warn("notification failed",
			"channel", res.Channel,
			"message", res.Message,
			"order_id", orderID,
			"error", res.Err,
		)
		telemetry.CaptureErrorFromContext(ctx, res.Err, map[string]interface{}{
			"channel":  res.Channel,
			"message":  res.Message,
			"order_id": orderID,
		})
	case res.Sent:
		n.metrics.RecordNotification(res.Channel, "sent")
	default:
		n.metrics.RecordNotification(res.Channel, "skipped")
		n.logger.Debug("notification skipped", "channel", res.Channel, "message", res.Message, "order_id", orderID)
	}
	return res
}

// detach keeps request values (logger, sentry hub) but drops the request's
// cancellation.
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
