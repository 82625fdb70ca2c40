// Package sms sends short text messages to clients.
package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hvac-backend/internal/logger"

	"github.com/ttacon/libphonenumber"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers one message and returns the provider reference.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// DefaultRegion is used for numbers written without a country prefix.
const DefaultRegion = "BE"

// NormalizePhone returns phone in E.164 form.
func NormalizePhone(phone, region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}
	num, err := libphonenumber.Parse(strings.TrimSpace(phone), region)
	if err != nil {
		return "", fmt.Errorf("parse phone %q: %w", phone, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// messageCreator is the slice of the Twilio REST client used here.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioService implements Sender for the Twilio Messages API.
type TwilioService struct {
	From   string
	Region string
	api    messageCreator
}

func NewTwilioService(accountSID, authToken, from, region string) *TwilioService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioService(client.Api, from, region)
}

func newTwilioService(api messageCreator, from, region string) *TwilioService {
	return &TwilioService{From: from, Region: region, api: api}
}

func (s *TwilioService) Send(ctx context.Context, to, body string) (string, error) {
	phone, err := NormalizePhone(to, s.Region)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.From)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		var apiErr *twilioclient.TwilioRestError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("SMS API error (status %d, code %d): %s", apiErr.Status, apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("failed to send SMS: %w", err)
	}
	if msg == nil || msg.Sid == nil || *msg.Sid == "" {
		return "", errors.New("SMS API returned no message sid")
	}
	return *msg.Sid, nil
}

// MockSMSService logs messages instead of sending them.
type MockSMSService struct{}

func NewMockSMSService() *MockSMSService {
	return &MockSMSService{}
}

func (s *MockSMSService) Send(_ context.Context, to, body string) (string, error) {
	logger.For("sms").WithField("to", to).Infof("mock SMS: %s", body)
	return "mock-" + fmt.Sprint(time.Now().UnixNano()), nil
}
