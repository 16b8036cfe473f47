package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/clubreg/portal/internal/notify"
	"github.com/clubreg/portal/internal/payments"
	"github.com/clubreg/portal/internal/payments/stub"
)

var stubPayPage = template.Must(template.New("pay").Funcs(template.FuncMap{
	"usd": notify.FormatUSD,
}).Parse(`<!DOCTYPE html>
<html>
<head><title>Test payment</title></head>
<body>
<h1>Test payment</h1>
<p>{{.Session.Description}}</p>
<ul>
{{range .Session.LineItems}}<li>{{.Name}}: {{usd .AmountCents}}</li>
{{end}}</ul>
<p><strong>Total: {{usd .Session.AmountCents}}</strong></p>
<form method="post" action="/pay/stub">
<input type="hidden" name="session" value="{{.ID}}">
<button name="action" value="pay">Pay</button>
<button name="action" value="fail">Decline</button>
</form>
</body>
</html>
`))

// StubPayHandler serves the development checkout page for the stub provider.
// Paying posts a signed webhook to the server, exactly as a processor would.
type StubPayHandler struct {
	provider   *stub.Provider
	webhookURL string
	client     *http.Client
}

// NewStubPayHandler creates the pay page. webhookURL is the absolute URL of
// POST /webhooks/payments.
func NewStubPayHandler(provider *stub.Provider, webhookURL string) *StubPayHandler {
	return &StubPayHandler{
		provider:   provider,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Page renders GET /pay/stub?session=...
func (h *StubPayHandler) Page(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	s, ok := h.provider.Session(id)
	if !ok {
		http.Error(w, stub.ErrUnknownSession.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := stubPayPage.Execute(w, struct {
		ID      string
		Session *payments.Session
	}{id, s}); err != nil {
		slog.Error("Failed to render pay page", "error", err)
	}
}

// Pay handles the page's form post.
func (h *StubPayHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := r.PostForm.Get("session")
	s, ok := h.provider.Session(id)
	if !ok {
		http.Error(w, stub.ErrUnknownSession.Error(), http.StatusNotFound)
		return
	}

	var body []byte
	var sig string
	var err error
	redirect := s.SuccessURL
	if r.PostForm.Get("action") == "fail" {
		body, sig, err = h.provider.FailurePayload(id, "Your card was declined.")
		redirect = s.CancelURL
	} else {
		body, sig, err = h.provider.CompletionPayload(id, "")
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.deliver(r.Context(), body, sig); err != nil {
		slog.Error("Stub webhook delivery failed", "session", id, "error", err)
		http.Error(w, "payment could not be recorded", http.StatusBadGateway)
		return
	}
	if redirect == "" {
		redirect = "/"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (h *StubPayHandler) deliver(ctx context.Context, body []byte, sig string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(stub.SignatureHeader, sig)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook answered " + resp.Status)
	}
	return nil
}
