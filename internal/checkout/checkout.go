// Package checkout turns a submitted registration into a hosted payment session.
//
// The payable amount is always recomputed from the persisted draft
// registrations and the club's fee schedule. A total sent by the client is
// only compared against it and logged when it differs.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clubreg/portal/internal/calculator"
	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/payments"
	"github.com/clubreg/portal/internal/validation"
)

var (
	// ErrDraftNotSaved means a player in the request has no persisted draft
	// registration yet. The wizard should save and retry.
	ErrDraftNotSaved = errors.New("registration draft not saved")

	// ErrProvider wraps failures from the payment processor.
	ErrProvider = errors.New("payment provider unavailable")
)

// InputError is a client-correctable problem with a checkout request.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid checkout request: %s: %s", e.Field, e.Message)
}

// Request is what the wizard submits from the Review step.
type Request struct {
	PlayerNames []string
	// PlayerClientIDs selects which draft registrations are being paid for.
	// When empty every draft registration for the guardian is included.
	PlayerClientIDs []string

	// TotalAmountCents is the client's computed total; informational only.
	TotalAmountCents int64

	ClubName      string
	ClubID        string
	Season        string
	GuardianID    string
	GuardianEmail string

	Metadata map[string]string
}

// Result is returned on success; the caller navigates to CheckoutURL.
type Result struct {
	CheckoutURL     string
	SessionID       string
	AmountCents     int64
	RegistrationIDs []string
}

// Store is the subset of storage the handoff reads.
type Store interface {
	GetClub(ctx context.Context, clubID string) (*models.Club, error)
	ListDraftRegistrations(ctx context.Context, key models.DraftKey) ([]models.RegistrationDetails, error)
}

// Options configures return URLs for the hosted page.
type Options struct {
	SuccessURL string
	CancelURL  string
	Currency   string
}

// Service creates checkout sessions.
type Service struct {
	store    Store
	provider payments.Provider
	opts     Options
}

// NewService creates a checkout Service.
func NewService(store Store, provider payments.Provider, opts Options) *Service {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &Service{store: store, provider: provider, opts: opts}
}

// Validate checks the request fields a client can correct.
func Validate(req *Request) error {
	if req.TotalAmountCents < 0 {
		return &InputError{Field: "total_amount_cents", Message: "must be a non-negative integer"}
	}
	if len(req.PlayerNames) == 0 {
		return &InputError{Field: "player_names", Message: "at least one player is required"}
	}
	for _, n := range req.PlayerNames {
		if strings.TrimSpace(n) == "" {
			return &InputError{Field: "player_names", Message: "player names cannot be blank"}
		}
	}
	if strings.TrimSpace(req.GuardianEmail) == "" {
		return &InputError{Field: "guardian_email", Message: "is required"}
	}
	if !validation.IsValidEmail(req.GuardianEmail) {
		return &InputError{Field: "guardian_email", Message: "is not a valid email address"}
	}
	if req.ClubID == "" {
		return &InputError{Field: "club_id", Message: "is required"}
	}
	if req.GuardianID == "" {
		return &InputError{Field: "guardian_id", Message: "is required"}
	}
	return nil
}

// Start validates req, prices the persisted registrations and creates a
// hosted checkout session for them.
func (s *Service) Start(ctx context.Context, req Request) (*Result, error) {
	if err := Validate(&req); err != nil {
		return nil, err
	}

	club, err := s.store.GetClub(ctx, req.ClubID)
	if err != nil {
		return nil, fmt.Errorf("failed to load club: %w", err)
	}
	season := req.Season
	if season == "" {
		season = club.CurrentSeason
	}

	drafts, err := s.store.ListDraftRegistrations(ctx, models.DraftKey{
		ClubID:     club.ID,
		Season:     season,
		GuardianID: req.GuardianID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load draft registrations: %w", err)
	}
	regs, err := selectRegistrations(drafts, req.PlayerClientIDs)
	if err != nil {
		return nil, err
	}

	divisions := make([]models.Division, len(regs))
	ids := make([]string, len(regs))
	for i, r := range regs {
		divisions[i] = r.Division
		ids[i] = r.ID
	}
	breakdown, err := calculator.CalculateTotal(divisions, club.ClubDuesCents, club.Fees)
	if err != nil {
		return nil, &InputError{Field: "players", Message: err.Error()}
	}

	if req.TotalAmountCents != 0 && req.TotalAmountCents != breakdown.Total {
		slog.Warn("Client total differs from computed total",
			"club_id", club.ID,
			"guardian_id", req.GuardianID,
			"client_total", req.TotalAmountCents,
			"computed_total", breakdown.Total,
		)
	}

	metadata := make(map[string]string, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata[payments.MetadataRegistrationIDs] = payments.JoinRegistrationIDs(ids)
	metadata[payments.MetadataClubID] = club.ID
	metadata[payments.MetadataGuardianID] = req.GuardianID
	metadata[payments.MetadataSeason] = season

	items := make([]payments.LineItem, len(regs))
	for i, r := range regs {
		items[i] = payments.LineItem{
			Name:        fmt.Sprintf("%s %s registration (%s)", r.Player.DisplayName(), season, r.Division),
			AmountCents: breakdown.Players[i].Total,
		}
	}

	cs, err := s.provider.CreateCheckoutSession(ctx, &payments.Session{
		AmountCents:   breakdown.Total,
		Currency:      s.opts.Currency,
		Description:   fmt.Sprintf("%s registration: %s", club.Name, strings.Join(req.PlayerNames, ", ")),
		CustomerEmail: req.GuardianEmail,
		LineItems:     items,
		Metadata:      metadata,
		SuccessURL:    s.opts.SuccessURL,
		CancelURL:     s.opts.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	slog.Info("Checkout session created",
		"provider", s.provider.Name(),
		"session_id", cs.ID,
		"club_id", club.ID,
		"guardian_id", req.GuardianID,
		"registrations", len(ids),
		"amount_cents", breakdown.Total,
	)

	return &Result{
		CheckoutURL:     cs.URL,
		SessionID:       cs.ID,
		AmountCents:     breakdown.Total,
		RegistrationIDs: ids,
	}, nil
}

// selectRegistrations picks the drafts matching clientIDs, in clientIDs order.
func selectRegistrations(drafts []models.RegistrationDetails, clientIDs []string) ([]models.RegistrationDetails, error) {
	if len(clientIDs) == 0 {
		if len(drafts) == 0 {
			return nil, ErrDraftNotSaved
		}
		return drafts, nil
	}

	byClient := make(map[string]models.RegistrationDetails, len(drafts))
	for _, d := range drafts {
		key := d.ClientTempID
		if key == "" {
			key = d.Player.ID
		}
		// The newest row wins if a client id was ever saved twice.
		if prev, ok := byClient[key]; ok && prev.UpdatedAt > d.UpdatedAt {
			continue
		}
		byClient[key] = d
	}

	out := make([]models.RegistrationDetails, 0, len(clientIDs))
	for _, id := range clientIDs {
		d, ok := byClient[id]
		if !ok {
			return nil, fmt.Errorf("player %s: %w", id, ErrDraftNotSaved)
		}
		out = append(out, d)
	}
	return out, nil
}
