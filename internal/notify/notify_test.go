package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfirmation() *Confirmation {
	return &Confirmation{
		GuardianName:  "Alex Rivera",
		GuardianEmail: "alex@example.com",
		ClubName:      "Stingrays",
		ClubEmail:     "coach@stingrays.example",
		Players: []PlayerLine{
			{Name: "Jo Rivera", Division: "U8"},
			{Name: "Sam Rivera", Division: "U12"},
		},
		TotalPaid:          FormatUSD(54600),
		PracticeLocation:   "Harbor Park",
		DocumentsComplete:  false,
		DocumentsUploadURL: "https://portal.example/stingrays/documents/reg-1",
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{54600, "$546.00"},
		{50, "$0.50"},
		{0, "$0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUSD(tt.cents))
	}
}

func TestRenderConfirmation(t *testing.T) {
	c := sampleConfirmation()
	html, err := c.Render()
	require.NoError(t, err)

	assert.Contains(t, html, "Hi Alex Rivera,")
	assert.Contains(t, html, "<li>Jo Rivera (U8)</li>")
	assert.Contains(t, html, "<li>Sam Rivera (U12)</li>")
	assert.Contains(t, html, "$546.00")
	assert.Contains(t, html, "Upload Documents")
	assert.Contains(t, html, c.DocumentsUploadURL)
	assert.Contains(t, html, "Harbor Park")
	assert.NotContains(t, html, "Schedule:")
	assert.Equal(t, "Welcome to Stingrays! Registration Confirmed", c.Subject())

	c.DocumentsComplete = true
	c.PracticeLocation = ""
	html, err = c.Render()
	require.NoError(t, err)
	assert.NotContains(t, html, "Upload Documents")
	assert.NotContains(t, html, "Practice Info")
}

func TestRenderEscapesInput(t *testing.T) {
	c := sampleConfirmation()
	c.GuardianName = "<script>alert(1)</script>"
	html, err := c.Render()
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

type fakeEmails struct {
	got *resend.SendEmailRequest
	err error
}

func (f *fakeEmails) SendWithContext(ctx context.Context, p *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "em_1"}, nil
}

func TestResendMailer(t *testing.T) {
	emails := &fakeEmails{}
	m := &ResendMailer{emails: emails, from: "registrations@portal.example"}

	require.NoError(t, m.SendConfirmation(context.Background(), sampleConfirmation()))
	require.NotNil(t, emails.got)
	assert.Equal(t, "Stingrays <registrations@portal.example>", emails.got.From)
	assert.Equal(t, []string{"alex@example.com"}, emails.got.To)
	assert.Contains(t, emails.got.Html, "Jo Rivera")

	emails.err = errors.New("quota exceeded")
	assert.Error(t, m.SendConfirmation(context.Background(), sampleConfirmation()))
}

type fakeBot struct {
	sent []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramAlerter(t *testing.T) {
	bot := &fakeBot{}
	a := &TelegramAlerter{bot: bot, chatID: -100}

	alert := &PaymentAlert{
		ClubName:     "Stingrays",
		GuardianName: "Alex Rivera",
		Players:      []PlayerLine{{Name: "Jo Rivera", Division: "U8"}},
		TotalPaid:    "$266.00",
		PaymentRef:   "pi_1",
	}
	require.NoError(t, a.AlertPayment(context.Background(), alert))
	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Contains(t, msg.Text, "- Jo Rivera (U8)")
	assert.Contains(t, msg.Text, "Ref: pi_1")
}

type countingMailer struct{ n int }

func (c *countingMailer) SendConfirmation(ctx context.Context, _ *Confirmation) error {
	c.n++
	return nil
}

func TestThrottledHonoursContext(t *testing.T) {
	m := &countingMailer{}
	th := NewThrottled(m, LogAlerter{}, time.Hour, 1)

	require.NoError(t, th.SendConfirmation(context.Background(), sampleConfirmation()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, th.SendConfirmation(ctx, sampleConfirmation()), "second send must wait an hour")
	assert.Equal(t, 1, m.n)
}

func TestThrottledUnlimited(t *testing.T) {
	m := &countingMailer{}
	th := NewThrottled(m, LogAlerter{}, 0, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, th.SendConfirmation(context.Background(), sampleConfirmation()))
	}
	assert.Equal(t, 5, m.n)
}
