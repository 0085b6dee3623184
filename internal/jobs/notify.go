package jobs

// Task names for notification fan-out handed to the worker queue
const (
	JobTypeNotifyOrderPlaced     = "notify:order_placed"
	JobTypeNotifyPaymentReceived = "notify:payment_received"
	JobTypeNotifyStatusUpdated   = "notify:status_updated"
)
