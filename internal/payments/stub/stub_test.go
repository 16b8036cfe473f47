package stub

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubreg/portal/internal/payments"
)

func newSession(t *testing.T, p *Provider) string {
	t.Helper()
	cs, err := p.CreateCheckoutSession(context.Background(), &payments.Session{
		AmountCents:   54600,
		Currency:      "usd",
		CustomerEmail: "alex@example.com",
		Metadata:      map[string]string{payments.MetadataRegistrationIDs: "r1,r2"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cs.URL, "http://localhost:8080/pay/stub?session="))
	return cs.ID
}

func signed(sig string) http.Header {
	h := http.Header{}
	h.Set(SignatureHeader, sig)
	return h
}

func TestCompletionRoundTrip(t *testing.T) {
	p := New("whsec_test", "http://localhost:8080/pay/stub")
	id := newSession(t, p)

	body, sig, err := p.CompletionPayload(id, "pi_1")
	require.NoError(t, err)

	e, err := p.ParseWebhook(context.Background(), body, signed(sig))
	require.NoError(t, err)
	assert.Equal(t, payments.EventCheckoutCompleted, e.Type)
	assert.Equal(t, "pi_1", e.PaymentRef)
	assert.Equal(t, id, e.SessionID)
	assert.Equal(t, int64(54600), e.AmountCents)
	assert.Equal(t, []string{"r1", "r2"}, e.RegistrationIDs())
}

func TestParseWebhookRejectsBadSignatures(t *testing.T) {
	p := New("whsec_test", "http://localhost:8080/pay/stub")
	id := newSession(t, p)
	body, sig, err := p.CompletionPayload(id, "pi_1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   []byte
		header http.Header
	}{
		{"missing header", body, http.Header{}},
		{"not hex", body, signed("zz")},
		{"tampered body", append([]byte{' '}, body...), signed(sig)},
		{"other secret", body, signed(Sign("other", body))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseWebhook(context.Background(), tt.body, tt.header)
			assert.ErrorIs(t, err, payments.ErrInvalidSignature)
		})
	}
}

func TestParseWebhookEventTypes(t *testing.T) {
	p := New("whsec_test", "http://localhost:8080/pay/stub")
	id := newSession(t, p)

	body, sig, err := p.FailurePayload(id, "card declined")
	require.NoError(t, err)
	e, err := p.ParseWebhook(context.Background(), body, signed(sig))
	require.NoError(t, err)
	assert.Equal(t, payments.EventPaymentFailed, e.Type)
	assert.Equal(t, "card declined", e.FailureMessage)

	body, sig, err = p.payload("customer.created", wireData{})
	require.NoError(t, err)
	e, err = p.ParseWebhook(context.Background(), body, signed(sig))
	require.NoError(t, err)
	assert.Equal(t, payments.EventIgnored, e.Type)
	assert.Equal(t, "customer.created", e.RawType)
}

func TestCompletionPayloadUnknownSession(t *testing.T) {
	p := New("whsec_test", "http://localhost:8080/pay/stub")
	_, _, err := p.CompletionPayload("cs_missing", "")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestMalformedBody(t *testing.T) {
	p := New("whsec_test", "http://localhost:8080/pay/stub")
	body := []byte("{not json")
	_, err := p.ParseWebhook(context.Background(), body, signed(Sign("whsec_test", body)))
	assert.ErrorIs(t, err, payments.ErrMalformedEvent)
}
