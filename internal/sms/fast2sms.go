package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultFast2SMSEndpoint = "https://www.fast2sms.com/dev/bulkV2"

// Fast2SMSConfig holds Fast2SMS credentials.
type Fast2SMSConfig struct {
	APIKey   string
	SenderID string

	// Endpoint defaults to the bulkV2 API.
	Endpoint string
	Timeout  time.Duration
}

// Fast2SMSSender sends messages through the Fast2SMS bulk API.
type Fast2SMSSender struct {
	config Fast2SMSConfig
	client *http.Client
}

var _ Sender = (*Fast2SMSSender)(nil)

// NewFast2SMSSender creates a sender.
func NewFast2SMSSender(config Fast2SMSConfig) *Fast2SMSSender {
	if config.Endpoint == "" {
		config.Endpoint = defaultFast2SMSEndpoint
	}
	if config.SenderID == "" {
		config.SenderID = "FSTSMS"
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	return &Fast2SMSSender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (s *Fast2SMSSender) Name() string {
	return "fast2sms"
}

func (s *Fast2SMSSender) Configured() bool {
	return s.config.APIKey != ""
}

type fast2smsRequest struct {
	Route    string `json:"route"`
	SenderID string `json:"sender_id"`
	Message  string `json:"message"`
	Language string `json:"language"`
	Numbers  string `json:"numbers"`
	Flash    int    `json:"flash"`
}

type fast2smsResponse struct {
	Return    bool            `json:"return"`
	RequestID string          `json:"request_id"`
	Message   json.RawMessage `json:"message"`
}

func (s *Fast2SMSSender) Send(ctx context.Context, to, body string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	if !validNumber(to) {
		return "", ErrInvalidNumber
	}

	payload, err := json.Marshal(fast2smsRequest{
		Route:    "v3",
		SenderID: s.config.SenderID,
		Message:  body,
		Language: "english",
		Numbers:  to,
		Flash:    0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal fast2sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("authorization", s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: s.Name(), Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", &ProviderError{Provider: s.Name(), StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	var out fast2smsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ProviderError{Provider: s.Name(), StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !out.Return {
		return "", &ProviderError{Provider: s.Name(), StatusCode: resp.StatusCode, Message: rejectionMessage(out.Message)}
	}

	return out.RequestID, nil
}

// rejectionMessage flattens the "message" field, which is a string or a list
// of strings depending on the outcome.
func rejectionMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return "rejected"
}
