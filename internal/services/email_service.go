package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrNoRecipient is returned when a reminder email has nowhere to go
var ErrNoRecipient = errors.New("no recipient email address")

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailService sends email through SendGrid
type EmailService struct {
	client    sendgridClient
	fromEmail string
	fromName  string
}

// NewEmailService creates a SendGrid-backed sender
func NewEmailService(apiKey, fromEmail, fromName string) *EmailService {
	return &EmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendEmail sends one message. Any non-2xx response is an error.
func (s *EmailService) SendEmail(ctx context.Context, msg EmailMessage) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	if msg.TenantID != "" {
		message.SetCustomArg("tenant_id", msg.TenantID)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d %s", msg.To, response.StatusCode, response.Body)
	}
	return nil
}
