package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/akylbek/coworking-payments/internal/models"
)

type ResendMailer struct {
	client *resend.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, msg *models.Email) error {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	if sent == nil || sent.Id == "" {
		return fmt.Errorf("resend: empty response")
	}
	return nil
}
