package notifier

import (
	"context"
	"net/mail"

	"github.com/resend/resend-go/v2"
)

// ResendMailer sends emails using the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer creates a Resend mailer.
func NewResendMailer(apiKey, from, fromName string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   (&mail.Address{Name: fromName, Address: from}).String(),
	}
}

// Send delivers one message through Resend.
func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return &DeliveryError{Message: err.Error(), Err: err}
	}
	return nil
}
