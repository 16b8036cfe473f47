// Package payments abstracts the hosted checkout processor.
//
// A Provider creates checkout sessions and turns signed webhook deliveries
// into normalised Events. Registration ids travel through the processor in
// session metadata and come back on the completion event.
package payments

import (
	"context"
	"errors"
	"net/http"
)

// MetadataRegistrationIDs is the metadata key holding comma-joined registration ids.
const MetadataRegistrationIDs = "registration_ids"

// Other metadata keys echoed back on completion.
const (
	MetadataClubID     = "club_id"
	MetadataGuardianID = "guardian_id"
	MetadataSeason     = "season"
)

var (
	// ErrInvalidSignature is returned by ParseWebhook when the delivery
	// cannot be authenticated. Nothing in the payload may be trusted.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent is returned for an authenticated payload that cannot be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// LineItem is one row on the hosted payment page.
type LineItem struct {
	Name        string
	AmountCents int64
}

// Session describes the checkout to create.
type Session struct {
	AmountCents   int64
	Currency      string
	Description   string
	CustomerEmail string
	LineItems     []LineItem
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the processor's handle for a created session.
type CheckoutSession struct {
	ID  string
	URL string
}

// Provider is implemented by each payment processor integration.
type Provider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, s *Session) (*CheckoutSession, error)
	// ParseWebhook authenticates and decodes a webhook delivery.
	// It returns ErrInvalidSignature when authentication fails.
	ParseWebhook(ctx context.Context, body []byte, header http.Header) (*Event, error)
}
