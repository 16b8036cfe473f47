// Package stripe implements payments.Provider on Stripe Checkout.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/clubreg/portal/internal/payments"
)

// Provider creates hosted checkout sessions and verifies Stripe-Signature.
type Provider struct {
	sessions      *session.Client
	webhookSecret string
}

var _ payments.Provider = (*Provider)(nil)

// New returns a Stripe provider for the given secret key and webhook signing secret.
func New(apiKey, webhookSecret string) *Provider {
	return &Provider{
		sessions:      &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: apiKey},
		webhookSecret: webhookSecret,
	}
}

func (p *Provider) Name() string { return "stripe" }

// CreateCheckoutSession creates a one-off payment session with one line item per player.
func (p *Provider) CreateCheckoutSession(ctx context.Context, s *payments.Session) (*payments.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(s.SuccessURL),
		CancelURL:     stripe.String(s.CancelURL),
		CustomerEmail: stripe.String(s.CustomerEmail),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description: stripe.String(s.Description),
			Metadata:    s.Metadata,
		},
	}
	params.Context = ctx
	for _, item := range s.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.AmountCents),
			},
			Quantity: stripe.Int64(1),
		})
	}
	for k, v := range s.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	return &payments.CheckoutSession{ID: cs.ID, URL: cs.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and maps the event.
func (p *Provider) ParseWebhook(ctx context.Context, body []byte, header http.Header) (*payments.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(body, header.Get("Stripe-Signature"), p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrInvalidSignature, err)
	}

	e := &payments.Event{ID: ev.ID, RawType: string(ev.Type), Type: payments.EventIgnored}
	switch ev.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: %v", payments.ErrMalformedEvent, err)
		}
		e.Type = payments.EventCheckoutCompleted
		e.SessionID = cs.ID
		e.PaymentRef = cs.ID
		if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
			e.PaymentRef = cs.PaymentIntent.ID
		}
		e.AmountCents = cs.AmountTotal
		e.Currency = string(cs.Currency)
		e.CustomerEmail = cs.CustomerEmail
		if e.CustomerEmail == "" && cs.CustomerDetails != nil {
			e.CustomerEmail = cs.CustomerDetails.Email
		}
		e.Metadata = cs.Metadata

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", payments.ErrMalformedEvent, err)
		}
		e.Type = payments.EventPaymentFailed
		e.PaymentRef = pi.ID
		e.AmountCents = pi.Amount
		e.Currency = string(pi.Currency)
		e.Metadata = pi.Metadata
		if pi.LastPaymentError != nil {
			e.FailureMessage = pi.LastPaymentError.Msg
		}
	}
	return e, nil
}
