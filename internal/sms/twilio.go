package sms

import (
	"context"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST API the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioConfig holds Twilio credentials.
type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string

	// CountryCode is prefixed to national numbers, e.g. "+91".
	CountryCode string
}

// TwilioSender sends messages through a Twilio messaging service.
type TwilioSender struct {
	config TwilioConfig
	api    messageCreator
}

var _ Sender = (*TwilioSender)(nil)

// NewTwilioSender creates a sender. With missing credentials the sender
// reports itself unconfigured.
func NewTwilioSender(config TwilioConfig) *TwilioSender {
	if config.CountryCode == "" {
		config.CountryCode = "+91"
	}
	s := &TwilioSender{config: config}
	if s.Configured() {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: config.AccountSID,
			Password: config.AuthToken,
		})
		s.api = client.Api
	}
	return s
}

func (s *TwilioSender) Name() string {
	return "twilio"
}

func (s *TwilioSender) Configured() bool {
	return s.config.AccountSID != "" && s.config.AuthToken != "" && s.config.MessagingServiceSID != ""
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if !s.Configured() || s.api == nil {
		return "", ErrNotConfigured
	}
	if !validNumber(to) {
		return "", ErrInvalidNumber
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(s.config.CountryCode + to)
	params.SetMessagingServiceSid(s.config.MessagingServiceSID)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return "", &ProviderError{Provider: s.Name(), Message: "create message failed", Err: err}
	}

	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
