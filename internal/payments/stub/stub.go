// Package stub is a local payment provider for development and tests.
//
// Sessions are kept in memory and paid through the server's /pay/stub page,
// which posts a webhook signed the same way a real processor would:
// hex HMAC-SHA256 of the raw body in the X-Signature header.
package stub

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/clubreg/portal/internal/payments"
)

// SignatureHeader carries the hex HMAC of the webhook body.
const SignatureHeader = "X-Signature"

// ErrUnknownSession is returned when completing a session that was never created.
var ErrUnknownSession = errors.New("unknown checkout session")

// Provider implements payments.Provider without any network calls.
type Provider struct {
	secret  string
	payURL  string
	mu      sync.Mutex
	session map[string]*payments.Session
}

var _ payments.Provider = (*Provider)(nil)

// New returns a stub provider. payURL is the page users are sent to, usually
// the server's /pay/stub route.
func New(secret, payURL string) *Provider {
	return &Provider{
		secret:  secret,
		payURL:  payURL,
		session: make(map[string]*payments.Session),
	}
}

func (p *Provider) Name() string { return "stub" }

// CreateCheckoutSession records the session and returns a pay page URL.
func (p *Provider) CreateCheckoutSession(ctx context.Context, s *payments.Session) (*payments.CheckoutSession, error) {
	id := "cs_stub_" + uuid.New().String()

	p.mu.Lock()
	p.session[id] = s
	p.mu.Unlock()

	return &payments.CheckoutSession{
		ID:  id,
		URL: p.payURL + "?session=" + url.QueryEscape(id),
	}, nil
}

// Session returns a created session for display on the pay page.
func (p *Provider) Session(id string) (*payments.Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.session[id]
	return s, ok
}

// wireEvent is the JSON body the stub posts to the webhook route.
type wireEvent struct {
	ID   string   `json:"id"`
	Type string   `json:"type"`
	Data wireData `json:"data"`
}

type wireData struct {
	SessionID     string            `json:"session_id"`
	PaymentRef    string            `json:"payment_ref"`
	AmountCents   int64             `json:"amount_cents"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
	Failure       string            `json:"failure_message,omitempty"`
}

// CompletionPayload builds a signed checkout.completed delivery for a session.
// paymentRef is generated when empty.
func (p *Provider) CompletionPayload(sessionID, paymentRef string) ([]byte, string, error) {
	s, ok := p.Session(sessionID)
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", sessionID, ErrUnknownSession)
	}
	if paymentRef == "" {
		paymentRef = "pi_stub_" + uuid.New().String()
	}
	return p.payload(string(payments.EventCheckoutCompleted), wireData{
		SessionID:     sessionID,
		PaymentRef:    paymentRef,
		AmountCents:   s.AmountCents,
		Currency:      s.Currency,
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	})
}

// FailurePayload builds a signed payment.failed delivery for a session.
func (p *Provider) FailurePayload(sessionID, reason string) ([]byte, string, error) {
	s, ok := p.Session(sessionID)
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", sessionID, ErrUnknownSession)
	}
	return p.payload(string(payments.EventPaymentFailed), wireData{
		SessionID:     sessionID,
		PaymentRef:    "pi_stub_" + uuid.New().String(),
		AmountCents:   s.AmountCents,
		Currency:      s.Currency,
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
		Failure:       reason,
	})
}

// payload encodes and signs an event.
func (p *Provider) payload(eventType string, data wireData) ([]byte, string, error) {
	body, err := json.Marshal(wireEvent{
		ID:   "evt_stub_" + uuid.New().String(),
		Type: eventType,
		Data: data,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode event: %w", err)
	}
	return body, Sign(p.secret, body), nil
}

// ParseWebhook verifies X-Signature and decodes the body.
func (p *Provider) ParseWebhook(ctx context.Context, body []byte, header http.Header) (*payments.Event, error) {
	if !Verify(p.secret, body, header.Get(SignatureHeader)) {
		return nil, payments.ErrInvalidSignature
	}

	var we wireEvent
	if err := json.Unmarshal(body, &we); err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrMalformedEvent, err)
	}

	e := &payments.Event{
		ID:             we.ID,
		RawType:        we.Type,
		PaymentRef:     we.Data.PaymentRef,
		SessionID:      we.Data.SessionID,
		AmountCents:    we.Data.AmountCents,
		Currency:       we.Data.Currency,
		CustomerEmail:  we.Data.CustomerEmail,
		Metadata:       we.Data.Metadata,
		FailureMessage: we.Data.Failure,
	}
	switch payments.EventType(we.Type) {
	case payments.EventCheckoutCompleted, payments.EventPaymentFailed:
		e.Type = payments.EventType(we.Type)
	default:
		e.Type = payments.EventIgnored
	}
	return e, nil
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature against Sign in constant time.
func Verify(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
