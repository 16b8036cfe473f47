package payments

import (
	"strings"

	"github.com/go-andiamo/splitter"
)

// EventType is the normalised kind of a webhook event.
type EventType string

const (
	EventCheckoutCompleted EventType = "checkout.completed"
	EventPaymentFailed     EventType = "payment.failed"

	// EventIgnored covers every processor event the portal does not act on.
	EventIgnored EventType = "ignored"
)

// Event is a processor webhook reduced to the fields reconciliation needs.
type Event struct {
	// ID is the processor's event id, used only for logging.
	ID string

	Type    EventType
	RawType string // processor's own event name

	// PaymentRef identifies the payment and is the idempotency key.
	PaymentRef    string
	SessionID     string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	Metadata      map[string]string

	FailureMessage string
}

var idSplitter, _ = splitter.NewSplitter(',', splitter.DoubleQuotes)

// RegistrationIDs parses the comma-joined ids carried in metadata.
// Blank entries and duplicates are dropped; order is preserved.
func (e *Event) RegistrationIDs() []string {
	raw := strings.TrimSpace(e.Metadata[MetadataRegistrationIDs])
	if raw == "" {
		return nil
	}
	parts, err := idSplitter.Split(raw)
	if err != nil {
		parts = strings.Split(raw, ",")
	}

	seen := make(map[string]bool, len(parts))
	var ids []string
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"`)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		ids = append(ids, p)
	}
	return ids
}

// JoinRegistrationIDs is the inverse of Event.RegistrationIDs.
func JoinRegistrationIDs(ids []string) string {
	return strings.Join(ids, ",")
}
