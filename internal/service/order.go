package service

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/dukerupert/bharosa/internal/billing"
	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/telemetry"
)

// OrderService provides business logic for the order lifecycle
type OrderService interface {
	// Quote prices a cart without persisting anything.
	Quote(cart domain.Cart) domain.Totals

	// Checkout creates an order from a cart. A nil cart falls back to the
	// caller's stored cart, which is cleared once the order exists. Guards
	// run in order: empty cart, missing address fields, unsupported payment
	// method.
	Checkout(ctx context.Context, params CheckoutParams) (*domain.Order, error)

	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// ListOrders returns every order, newest first.
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// UpdateStatus sets an admin status label and the current location.
	// A nil or blank location clears the stored one.
	UpdateStatus(ctx context.Context, id, status string, location *string) (*domain.Order, error)

	// CreatePaymentIntent opens a gateway order for an ONLINE order.
	CreatePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)

	// ConfirmPayment verifies the gateway signature and marks a
	// PENDING_PAYMENT ONLINE order PAID. Replaying the stored confirmation
	// returns the stored order without notifying; any other payment on a
	// paid order is ErrOrderAlreadyPaid.
	ConfirmPayment(ctx context.Context, id string, c PaymentConfirmation) (*domain.Order, error)
}

// CheckoutParams is the input to Checkout.
type CheckoutParams struct {
	// Cart is the browser's cart. Nil means use the stored one.
	Cart          domain.Cart
	Address       domain.Address
	Customer      domain.Customer
	PaymentMethod domain.PaymentMethod
	UserID        string
}

// PaymentIntent is what the browser checkout widget needs to collect payment.
type PaymentIntent struct {
	KeyID         string `json:"keyId"`
	RemoteOrderID string `json:"razorpayOrderId"`
	AmountMinor   int64  `json:"amountPaise"`
	Currency      string `json:"currency"`
}

// PaymentConfirmation is the payload the checkout widget returns.
type PaymentConfirmation struct {
	PaymentID     string `json:"razorpay_payment_id"`
	RemoteOrderID string `json:"razorpay_order_id"`
	Signature     string `json:"razorpay_signature"`
}

// OrderOption configures an order service.
type OrderOption func(*orderService)

// WithOrderClock overrides the time source.
func WithOrderClock(now func() time.Time) OrderOption {
	return func(s *orderService) { s.now = now }
}

// WithOrderMetrics records business metrics.
func WithOrderMetrics(m *telemetry.BusinessMetrics) OrderOption {
	return func(s *orderService) { s.metrics = m }
}

// WithCartStore lets Checkout fall back to, and then clear, the caller's
// stored cart.
func WithCartStore(carts domain.CartStore) OrderOption {
	return func(s *orderService) { s.carts = carts }
}

// WithOrderLogger sets the service logger.
func WithOrderLogger(logger *slog.Logger) OrderOption {
	return func(s *orderService) { s.logger = logger }
}

type orderService struct {
	store    domain.OrderStore
	carts    domain.CartStore
	products domain.ProductLookup
	gateway  billing.Provider
	notifier *Notifier
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
	now      func() time.Time
	validate *validator.Validate
	policy   *bluemonday.Policy
}

// NewOrderService creates a new OrderService instance
func NewOrderService(store domain.OrderStore, products domain.ProductLookup, gateway billing.Provider, notifier *Notifier, opts ...OrderOption) OrderService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	s := &orderService{
		store:    store,
		products: products,
		gateway:  gateway,
		notifier: notifier,
		logger:   slog.Default(),
		now:      time.Now,
		validate: validate,
		policy:   bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NewNotifier(nil, nil, nil, s.metrics, s.logger)
	}
	return s
}

func (s *orderService) Quote(cart domain.Cart) domain.Totals {
	s.metrics.RecordCartQuote()
	return ComputeTotals(cart, s.products)
}

func (s *orderService) Checkout(ctx context.Context, params CheckoutParams) (*domain.Order, error) {
	const op = "order.checkout"

	owner := CartOwner(params.UserID)
	cart := params.Cart
	if cart == nil && s.carts != nil {
		stored, err := s.carts.Get(ctx, owner)
		if err != nil {
			return nil, err
		}
		cart = stored
	}

	totals := ComputeTotals(cart, s.products)
	if totals.Empty() {
		return nil, domain.WithOp(ErrCartEmpty, op)
	}

	address := trimAddress(params.Address)
	if err := s.validateAddress(op, address); err != nil {
		return nil, err
	}

	if !params.PaymentMethod.Valid() {
		return nil, domain.WithOp(ErrInvalidPaymentMethod, op)
	}

	var userID *string
	if id := strings.TrimSpace(params.Customer.ID); id != "" {
		userID = &id
	} else if id := strings.TrimSpace(params.UserID); id != "" {
		userID = &id
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:            "ord_" + ulid.Make().String(),
		UserID:        userID,
		Status:        params.PaymentMethod.InitialStatus(),
		PaymentMethod: params.PaymentMethod,
		Totals:        totals,
		Address:       address,
		Customer:      params.Customer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}
	if s.carts != nil {
		if err := s.carts.Delete(ctx, owner); err != nil {
			s.logger.Warn("failed to clear cart after checkout", "order_id", order.ID, "owner", owner, "error", err)
		}
	}

	s.logger.Info("order placed",
		"order_id", order.ID,
		"payment_method", order.PaymentMethod,
		"payable", order.Totals.Payable,
		"units", order.Totals.Units(),
	)
	s.metrics.RecordOrderPlaced(string(order.PaymentMethod), order.Totals.Payable, order.Totals.Units())
	s.notifier.QueueOrderPlaced(ctx, order)

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.store.Get(ctx, id)
}

func (s *orderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.store.List(ctx)
}

func (s *orderService) UpdateStatus(ctx context.Context, id, status string, location *string) (*domain.Order, error) {
	const op = "order.update_status"

	status = strings.TrimSpace(s.policy.Sanitize(status))
	if status == "" {
		return nil, domain.WithOp(ErrStatusRequired, op)
	}

	var loc *string
	if location != nil {
		if l := strings.TrimSpace(s.policy.Sanitize(*location)); l != "" {
			loc = &l
		}
	}

	order, err := s.store.UpdateStatus(ctx, id, domain.OrderStatus(status), loc, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated", "order_id", id, "status", status)
	s.metrics.RecordStatusUpdate(status)
	s.notifier.QueueStatusUpdated(ctx, order)

	return order, nil
}

func (s *orderService) CreatePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	const op = "order.create_payment_intent"

	order, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.PaymentMethodOnline {
		return nil, domain.WithOp(ErrNotOnlineOrder, op)
	}
	if order.IsPaid() || order.Payment.PaymentID != "" {
		return nil, domain.WithOp(ErrOrderAlreadyPaid, op)
	}
	if !s.gateway.Configured() {
		return nil, domain.WithOp(ErrGatewayNotConfigured, op)
	}

	amount, err := billing.RupeesToPaise(order.Totals.Payable)
	if err != nil {
		return nil, gatewayError(err, op)
	}

	start := time.Now()
	remote, err := s.gateway.CreateOrder(ctx, billing.CreateOrderParams{
		AmountMinor: amount,
		Currency:    billing.CurrencyINR,
		Receipt:     order.ID,
		Notes:       map[string]string{"orderId": order.ID},
	})
	var gwErr *billing.GatewayError
	s.metrics.RecordGatewayCall("create_order", time.Since(start).Seconds(), err, errors.As(err, &gwErr) && gwErr.IsTemporary())
	if err != nil {
		s.metrics.RecordPaymentIntent("error")
		s.logger.Error("gateway order failed", "order_id", order.ID, "error", err)
		return nil, gatewayError(err, op)
	}

	if _, err := s.store.MergePayment(ctx, order.ID, domain.Payment{RemoteOrderID: remote.ID}, s.now().UTC()); err != nil {
		return nil, err
	}

	s.metrics.RecordPaymentIntent("created")
	s.logger.Info("payment intent created", "order_id", order.ID, "remote_order_id", remote.ID, "amount_minor", amount)

	return &PaymentIntent{
		KeyID:         s.gateway.KeyID(),
		RemoteOrderID: remote.ID,
		AmountMinor:   amount,
		Currency:      billing.CurrencyINR,
	}, nil
}

func (s *orderService) ConfirmPayment(ctx context.Context, id string, c PaymentConfirmation) (*domain.Order, error) {
	const op = "order.confirm_payment"

	order, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.PaymentMethodOnline {
		return nil, domain.WithOp(ErrNotOnlineOrder, op)
	}

	c.PaymentID = strings.TrimSpace(c.PaymentID)
	if c.PaymentID == "" {
		return nil, domain.WithOp(ErrMissingPaymentID, op)
	}

	// A stored payment is final. The same confirmation again is a replay,
	// whatever status an admin has moved the order to since.
	if order.Payment.PaymentID != "" {
		return s.settled(ctx, op, order, c)
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return nil, domain.WithOp(ErrOrderNotPending, op)
	}

	// The signature only binds the remote order id the widget sent, so it
	// must be the one this order's intent created.
	if order.Payment.RemoteOrderID == "" || c.RemoteOrderID != order.Payment.RemoteOrderID {
		s.signatureFailure(ctx, id, c, "remote order mismatch")
		return nil, domain.WithOp(ErrInvalidSignature, op)
	}

	if err := s.gateway.VerifyPaymentSignature(c.RemoteOrderID, c.PaymentID, c.Signature); err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			s.signatureFailure(ctx, id, c, "payment signature mismatch")
		}
		return nil, gatewayError(err, op)
	}

	telemetry.AddBreadcrumb(ctx, "payment", "signature verified", map[string]interface{}{
		"order_id":   id,
		"payment_id": c.PaymentID,
	})

	now := s.now().UTC()
	paid, err := s.store.MarkPaid(ctx, id, domain.Payment{
		PaymentID:        c.PaymentID,
		ConfirmedOrderID: c.RemoteOrderID,
		Signature:        c.Signature,
		PaidAt:           &now,
	}, now)
	if errors.Is(err, domain.ErrOrderNotPending) {
		// Lost the race to a concurrent confirmation.
		current, gerr := s.store.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return s.settled(ctx, op, current, c)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("order paid", "order_id", id, "payment_id", c.PaymentID)
	s.metrics.RecordPaymentConfirmed("paid", paid.Totals.Payable)
	s.notifier.QueuePaymentReceived(ctx, paid)

	return paid, nil
}

// settled answers a confirmation for an order that already carries a
// payment: the identical confirmation is a replay, anything else conflicts.
func (s *orderService) settled(ctx context.Context, op string, order *domain.Order, c PaymentConfirmation) (*domain.Order, error) {
	if order.Payment.PaymentID == "" {
		return nil, domain.WithOp(ErrOrderNotPending, op)
	}
	if order.Payment.PaymentID != c.PaymentID || order.Payment.Signature != c.Signature {
		s.logger.Warn("confirmation for an already paid order",
			"order_id", order.ID,
			"payment_id", c.PaymentID,
			"stored_payment_id", order.Payment.PaymentID,
		)
		return nil, domain.WithOp(ErrOrderAlreadyPaid, op)
	}

	s.metrics.RecordPaymentConfirmed("duplicate", order.Totals.Payable)
	s.logger.Info("payment confirmation replayed", "order_id", order.ID, "payment_id", c.PaymentID)
	return order, nil
}

func (s *orderService) signatureFailure(ctx context.Context, id string, c PaymentConfirmation, msg string) {
	s.metrics.RecordSignatureFailure()
	s.logger.Warn(msg, "order_id", id, "payment_id", c.PaymentID, "remote_order_id", c.RemoteOrderID)
	telemetry.CaptureMessage(ctx, msg, sentry.LevelWarning, map[string]interface{}{
		"order_id":        id,
		"payment_id":      c.PaymentID,
		"remote_order_id": c.RemoteOrderID,
	})
}

func (s *orderService) validateAddress(op string, a domain.Address) error {
	err := s.validate.Struct(a)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "failed to validate address")
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = "required"
	}
	return ve
}

// gatewayError maps billing errors onto service errors.
func gatewayError(err error, op string) error {
	var gwErr *billing.GatewayError
	switch {
	case errors.Is(err, billing.ErrNotConfigured):
		return domain.WithOp(ErrGatewayNotConfigured, op)
	case errors.Is(err, billing.ErrInvalidSignature):
		return domain.WithOp(ErrInvalidSignature, op)
	case errors.Is(err, billing.ErrInvalidAmount):
		return domain.Invalid(op, "Order amount must be positive")
	case errors.As(err, &gwErr):
		return &domain.Error{Code: domain.EUNAVAILABLE, Op: op, Message: domain.ErrorMessage(ErrGatewayUnavailable), Err: err}
	}
	return domain.Internal(err, op, "payment gateway call failed")
}

func trimAddress(a domain.Address) domain.Address {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Mobile = strings.TrimSpace(a.Mobile)
	a.AddressLine = strings.TrimSpace(a.AddressLine)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.Landmark = strings.TrimSpace(a.Landmark)
	return a
}

// jsonFieldName makes validator report fields by their JSON names.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
