// Package notify delivers payment confirmations to guardians and payment
// alerts to club administrators.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PlayerLine is one registered player in a confirmation.
type PlayerLine struct {
	Name     string
	Division string
}

// Confirmation is the welcome email sent once a checkout is reconciled.
type Confirmation struct {
	GuardianName  string
	GuardianEmail string
	ClubName      string
	ClubEmail     string
	Players       []PlayerLine
	TotalPaid     string

	PracticeLocation string
	PracticeSchedule string

	DocumentsComplete  bool
	DocumentsUploadURL string
}

// PaymentAlert tells club administrators a checkout was paid.
type PaymentAlert struct {
	ClubName     string
	GuardianName string
	Players      []PlayerLine
	TotalPaid    string
	PaymentRef   string
}

// Mailer sends guardian confirmations.
type Mailer interface {
	SendConfirmation(ctx context.Context, c *Confirmation) error
}

// Alerter sends administrator alerts.
type Alerter interface {
	AlertPayment(ctx context.Context, a *PaymentAlert) error
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders cents as a dollar amount, e.g. 54600 -> "$546.00".
func FormatUSD(cents int64) string {
	return usd.Sprintf("$%.2f", float64(cents)/100)
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(confirmationHTML))

// Subject returns the confirmation email subject line.
func (c *Confirmation) Subject() string {
	return fmt.Sprintf("Welcome to %s! Registration Confirmed", c.ClubName)
}

// Render produces the HTML body of the confirmation email.
func (c *Confirmation) Render() (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return buf.String(), nil
}

const confirmationHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #0f2361; padding: 24px; border-radius: 8px 8px 0 0; text-align: center;">
    <h1 style="color: white; margin: 0; font-size: 24px;">Welcome to {{.ClubName}}!</h1>
  </div>
  <div style="border: 1px solid #e5e7eb; border-top: none; padding: 24px; border-radius: 0 0 8px 8px;">
    <p>Hi {{.GuardianName}},</p>
    <p>Thank you for registering with {{.ClubName}}! We're excited to have your player(s) join us this season.</p>

    <div style="background: #f3f4f6; border-radius: 8px; padding: 16px; margin: 24px 0;">
      <h3 style="margin: 0 0 12px 0;">Registration Confirmed</h3>
      <p style="margin: 0;"><strong>Player(s):</strong></p>
      <ul>
      {{- range .Players}}
        <li>{{.Name}} ({{.Division}})</li>
      {{- end}}
      </ul>
      <p style="margin: 12px 0 0 0;"><strong>Amount Paid:</strong> {{.TotalPaid}}</p>
    </div>
{{if not .DocumentsComplete}}
    <div style="background: #fef3c7; border: 1px solid #f59e0b; border-radius: 8px; padding: 16px; margin: 24px 0;">
      <h3 style="margin: 0 0 8px 0; color: #92400e;">Action Required: Upload Documents</h3>
      <p style="margin: 0 0 12px 0;">Please upload headshot photos and proof of date of birth for your player(s) within 48 hours.</p>
      {{- if .DocumentsUploadURL}}
      <a href="{{.DocumentsUploadURL}}" style="display: inline-block; background: #f59e0b; color: white; padding: 10px 20px; border-radius: 6px; text-decoration: none;">Upload Documents</a>
      {{- end}}
    </div>
{{end}}
    <h3>What Happens Next?</h3>
    <ol>
      <li>We'll handle your governing body registrations</li>
      <li>You'll receive a confirmation once everything is processed</li>
      <li>Show up to practice ready to play!</li>
    </ol>
{{if .PracticeLocation}}
    <div style="background: #ecfdf5; border: 1px solid #10b981; border-radius: 8px; padding: 16px; margin: 24px 0;">
      <h3 style="margin: 0 0 8px 0;">Practice Info</h3>
      <p style="margin: 0;"><strong>Location:</strong> {{.PracticeLocation}}
      {{- if .PracticeSchedule}}<br><strong>Schedule:</strong> {{.PracticeSchedule}}{{end}}</p>
    </div>
{{end}}
    <p style="color: #6b7280; font-size: 14px; margin-top: 24px; padding-top: 24px; border-top: 1px solid #e5e7eb;">
      Questions? Reply to this email or contact us at <a href="mailto:{{.ClubEmail}}">{{.ClubEmail}}</a>
    </p>
  </div>
</body>
</html>
`
