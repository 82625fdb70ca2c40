// Package email sends transactional mail through Resend.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"hvac-backend/internal/logger"

	"github.com/resend/resend-go/v2"
)

type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers one message and returns the provider id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

var ErrNoRecipient = errors.New("email: no recipient")

type ResendService struct {
	From    string
	ReplyTo string
	client  *resend.Client
}

func NewResendService(apiKey, from, replyTo string) *ResendService {
	return &ResendService{
		From:    from,
		ReplyTo: replyTo,
		client:  resend.NewClient(apiKey),
	}
}

// SetBaseURL points the client at another Resend-compatible endpoint.
func (s *ResendService) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid resend base url: %w", err)
	}
	s.client.BaseURL = u
	return nil
}

func (s *ResendService) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", ErrNoRecipient
	}
	if msg.From == "" {
		msg.From = s.From
	}
	if msg.ReplyTo == "" {
		msg.ReplyTo = s.ReplyTo
	}

	resp, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return "", errors.New("email API returned no message id")
	}
	return resp.Id, nil
}

// MockEmailService logs instead of sending. Used when no API key is set.
type MockEmailService struct{}

func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

func (s *MockEmailService) Send(_ context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", ErrNoRecipient
	}
	logger.For("email").WithFields(map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("mock email")
	return fmt.Sprintf("mock-%d", time.Now().UnixNano()), nil
}
