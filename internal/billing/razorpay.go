package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayConfig holds Razorpay API credentials.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string

	// Timeout bounds each API call. Defaults to 30 seconds.
	Timeout time.Duration
}

// orderCreator is the slice of the Razorpay SDK this package uses;
// *resources.Order satisfies it.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayProvider implements Provider with the Razorpay Go SDK.
type RazorpayProvider struct {
	config RazorpayConfig
	orders orderCreator
}

var _ Provider = (*RazorpayProvider)(nil)

// NewRazorpayProvider creates a provider. Missing credentials are not an error
// here; calls that need them return ErrNotConfigured.
func NewRazorpayProvider(config RazorpayConfig) *RazorpayProvider {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &RazorpayProvider{
		config: config,
		orders: razorpay.NewClient(config.KeyID, config.KeySecret).Order,
	}
}

func (p *RazorpayProvider) KeyID() string {
	return p.config.KeyID
}

func (p *RazorpayProvider) Configured() bool {
	return p.config.KeyID != "" && p.config.KeySecret != ""
}

type createResult struct {
	body map[string]interface{}
	err  error
}

// CreateOrder creates a Razorpay order. The SDK call is not context aware,
// so it runs on its own goroutine and is abandoned when ctx or the
// configured timeout ends first.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, params CreateOrderParams) (*RemoteOrder, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	if params.AmountMinor <= 0 {
		return nil, ErrInvalidAmount
	}
	if params.Currency == "" {
		params.Currency = CurrencyINR
	}

	data := map[string]interface{}{
		"amount":   params.AmountMinor,
		"currency": params.Currency,
		"receipt":  params.Receipt,
	}
	if len(params.Notes) > 0 {
		notes := make(map[string]interface{}, len(params.Notes))
		for k, v := range params.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	done := make(chan createResult, 1)
	go func() {
		body, err := p.orders.Create(data, nil)
		done <- createResult{body: body, err: err}
	}()

	var res createResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, &GatewayError{Description: "request abandoned", Temporary: true, Err: ctx.Err()}
	}
	if res.err != nil {
		return nil, classifySDKError(res.err)
	}
	return parseRemoteOrder(res.body)
}

// VerifyPaymentSignature checks a checkout signature with the key secret.
func (p *RazorpayProvider) VerifyPaymentSignature(remoteOrderID, paymentID, signature string) error {
	return VerifyPaymentSignature(p.config.KeySecret, remoteOrderID, paymentID, signature)
}

// ExpectedSignature is the signature the gateway issues for a payment.
func (p *RazorpayProvider) ExpectedSignature(remoteOrderID, paymentID string) (string, error) {
	if p.config.KeySecret == "" {
		return "", ErrNotConfigured
	}
	return PaymentSignature(p.config.KeySecret, remoteOrderID, paymentID), nil
}

func parseRemoteOrder(body map[string]interface{}) (*RemoteOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, &GatewayError{Description: "response missing order id"}
	}

	out := &RemoteOrder{
		ID:          id,
		AmountMinor: int64Field(body, "amount"),
		Currency:    stringField(body, "currency"),
		Receipt:     stringField(body, "receipt"),
		Status:      stringField(body, "status"),
	}
	if ts := int64Field(body, "created_at"); ts > 0 {
		out.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return out, nil
}

func stringField(body map[string]interface{}, key string) string {
	s, _ := body[key].(string)
	return s
}

// int64Field reads a JSON number the SDK decoded as float64.
func int64Field(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// classifySDKError turns an SDK error into a *GatewayError. Transport
// failures, unreadable responses and the SDK's server and gateway error
// classes are temporary; request errors are not.
func classifySDKError(err error) *GatewayError {
	ge := &GatewayError{Description: err.Error(), Err: err}

	var netErr net.Error
	var urlErr *url.Error
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		ge.Temporary = true
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		ge.Description = "request failed"
		ge.Temporary = true
	case errors.As(err, &syntaxErr):
		ge.Description = "malformed response"
		ge.Temporary = true
	default:
		kind := fmt.Sprintf("%T", err)
		switch {
		case strings.HasSuffix(kind, "ServerError"):
			ge.Code = "SERVER_ERROR"
			ge.Temporary = true
		case strings.HasSuffix(kind, "GatewayError"):
			ge.Code = "GATEWAY_ERROR"
			ge.Temporary = true
		case strings.HasSuffix(kind, "BadRequestError"):
			ge.Code = "BAD_REQUEST_ERROR"
		}
	}
	return ge
}
