package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramAlerter posts payment alerts to an admin chat.
type TelegramAlerter struct {
	bot    messageSender
	chatID int64
}

// NewTelegramAlerter connects to the Bot API with token.
func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	slog.Info("Telegram alerts enabled", "bot", bot.Self.UserName, "chat_id", chatID)
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramAlerter) AlertPayment(ctx context.Context, a *PaymentAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, a.Text())); err != nil {
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}
	return nil
}

// Text renders the alert as a plain chat message.
func (a *PaymentAlert) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "New registration payment for %s\n", a.ClubName)
	fmt.Fprintf(&b, "Guardian: %s\n", a.GuardianName)
	for _, p := range a.Players {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Division)
	}
	fmt.Fprintf(&b, "Total: %s\nRef: %s", a.TotalPaid, a.PaymentRef)
	return b.String()
}

// LogAlerter logs alerts. Used when Telegram is not configured.
type LogAlerter struct{}

func (LogAlerter) AlertPayment(ctx context.Context, a *PaymentAlert) error {
	slog.Info("Payment alert", "club", a.ClubName, "players", len(a.Players), "total_paid", a.TotalPaid, "ref", a.PaymentRef)
	return nil
}
