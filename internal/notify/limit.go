package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttled spaces out outbound sends so a burst of webhooks does not trip
// provider rate limits. Waiting honours the caller's context.
type Throttled struct {
	mailer  Mailer
	alerter Alerter
	limiter *rate.Limiter
}

// NewThrottled allows one send per interval with the given burst.
// A non-positive interval disables throttling.
func NewThrottled(m Mailer, a Alerter, interval time.Duration, burst int) *Throttled {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{mailer: m, alerter: a, limiter: rate.NewLimiter(limit, burst)}
}

func (t *Throttled) SendConfirmation(ctx context.Context, c *Confirmation) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.mailer.SendConfirmation(ctx, c)
}

func (t *Throttled) AlertPayment(ctx context.Context, a *PaymentAlert) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.alerter.AlertPayment(ctx, a)
}
