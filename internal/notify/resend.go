package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// emailSender is the part of the Resend client used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer delivers confirmations through Resend.
type ResendMailer struct {
	emails emailSender
	from   string
}

// NewResendMailer creates a mailer sending from the given address,
// e.g. "registrations@example.com". The club name is used as display name.
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{emails: resend.NewClient(apiKey).Emails, from: from}
}

func (m *ResendMailer) SendConfirmation(ctx context.Context, c *Confirmation) error {
	html, err := c.Render()
	if err != nil {
		return err
	}
	resp, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.ClubName, m.from),
		To:      []string{c.GuardianEmail},
		Subject: c.Subject(),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	slog.Info("Confirmation email sent", "to", c.GuardianEmail, "club", c.ClubName, "email_id", resp.Id)
	return nil
}

// LogMailer logs confirmations instead of sending them. Used when no
// email provider is configured.
type LogMailer struct{}

func (LogMailer) SendConfirmation(ctx context.Context, c *Confirmation) error {
	slog.Info("Confirmation email (not sent)",
		"to", c.GuardianEmail,
		"subject", c.Subject(),
		"players", len(c.Players),
		"total_paid", c.TotalPaid,
		"documents_complete", c.DocumentsComplete,
	)
	return nil
}
