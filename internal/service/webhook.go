package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/clubreg/portal/internal/payments"
	"github.com/clubreg/portal/internal/reconcile"
)

const maxWebhookBytes = 256 << 10

// EventHandler applies authenticated payment events.
type EventHandler interface {
	Handle(ctx context.Context, provider string, ev *payments.Event) (reconcile.Outcome, error)
}

// WebhookHandler receives payment processor deliveries.
//
// A 2xx response tells the processor to stop redelivering, so it is only
// sent once the event is applied, recognised as a duplicate, or known to
// need no work. Store failures answer 500 and rely on redelivery.
type WebhookHandler struct {
	provider payments.Provider
	events   EventHandler
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(provider payments.Provider, events EventHandler) *WebhookHandler {
	return &WebhookHandler{provider: provider, events: events}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCouldNotReadBody)
		return
	}

	ev, err := h.provider.ParseWebhook(r.Context(), body, r.Header)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			slog.Warn("Rejected webhook with invalid signature", "provider", h.provider.Name(), "remote_addr", r.RemoteAddr)
		} else {
			slog.Warn("Rejected malformed webhook", "provider", h.provider.Name(), "error", err)
		}
		sendError(w, http.StatusBadRequest, err)
		return
	}

	outcome, err := h.events.Handle(r.Context(), h.provider.Name(), ev)
	if err != nil {
		if errors.Is(err, payments.ErrMalformedEvent) {
			sendError(w, http.StatusBadRequest, err)
			return
		}
		sendError(w, http.StatusInternalServerError, errors.New("event could not be processed"))
		return
	}
	sendData(w, map[string]any{"received": true, "outcome": outcome})
}
