// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/clubreg/portal/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed is returned by CommitCheckout when the payment
	// reference has already been applied.
	ErrAlreadyProcessed = errors.New("payment already processed")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ClubStore reads and seeds club configuration.
type ClubStore interface {
	// UpsertClub creates or replaces a club keyed by slug.
	// The club.ID field will be populated by the store if empty.
	UpsertClub(ctx context.Context, club *models.Club) error
	GetClub(ctx context.Context, clubID string) (*models.Club, error)
	GetClubBySlug(ctx context.Context, slug string) (*models.Club, error)
}

// GuardianStore manages guardian identity records.
type GuardianStore interface {
	// GetOrCreateGuardian returns the guardian linked to userID. An unlinked
	// guardian with the same email is linked and returned; otherwise a new
	// guardian is created.
	GetOrCreateGuardian(ctx context.Context, userID, email string) (*models.Guardian, error)
	GetGuardian(ctx context.Context, guardianID string) (*models.Guardian, error)
}

// DraftStore persists resumable wizard drafts.
type DraftStore interface {
	// SaveDraft upserts the guardian and every player in draft, matching
	// existing players on first name, last name and date of birth.
	// Registrations that have left draft status are not modified.
	SaveDraft(ctx context.Context, key models.DraftKey, draft *models.Draft) error

	// LoadDraft returns nil and no error when there is nothing to resume.
	LoadDraft(ctx context.Context, key models.DraftKey) (*models.Draft, error)
}

// RegistrationFilter narrows admin registration listings.
type RegistrationFilter struct {
	Status   models.RegistrationStatus
	Division models.Division
}

// RegistrationStore reads registrations and applies admin status changes.
type RegistrationStore interface {
	// ListDraftRegistrations returns the draft registrations for a draft key.
	ListDraftRegistrations(ctx context.Context, key models.DraftKey) ([]models.RegistrationDetails, error)
	ListRegistrations(ctx context.Context, clubID, season string, filter RegistrationFilter) ([]models.RegistrationDetails, error)
	// GetRegistrationDetails returns the registrations that exist among ids.
	GetRegistrationDetails(ctx context.Context, ids []string) ([]models.RegistrationDetails, error)
	// UpdateRegistrationStatus applies an admin status change, enforcing models.CanTransition.
	UpdateRegistrationStatus(ctx context.Context, clubID, registrationID string, to models.RegistrationStatus, notes string) error
}

// PaymentStore reads the payment ledger.
type PaymentStore interface {
	ListPaymentsByClub(ctx context.Context, clubID string) ([]models.Payment, error)
}

// CheckoutCompletion is a staged reconciliation: every registration update
// and ledger row for one completed checkout.
type CheckoutCompletion struct {
	PaymentRef      string
	RegistrationIDs []string
	AmountCents     int64
	PaidAt          int64
	Ledger          []models.Payment

	// Reopened is set by CommitCheckout to the ids that were cancelled or
	// waitlisted before this payment moved them to paid.
	Reopened []string
}

// ReconcileStore applies completed checkouts.
type ReconcileStore interface {
	// CommitCheckout claims the payment reference, marks every registration
	// paid and inserts the ledger rows in one transaction. Either all
	// registrations are updated or none are. Returns ErrAlreadyProcessed if
	// the reference was claimed before.
	CommitCheckout(ctx context.Context, c *CheckoutCompletion) error

	// ClaimNotification returns true exactly once per payment reference.
	ClaimNotification(ctx context.Context, paymentRef string) (bool, error)
}

// AdminStore resolves club administrators.
type AdminStore interface {
	UpsertClubAdmin(ctx context.Context, admin *models.ClubAdmin) error
	GetClubAdmin(ctx context.Context, clubID, userID string) (*models.ClubAdmin, error)
}

// Store combines every storage concern.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	ClubStore
	GuardianStore
	DraftStore
	RegistrationStore
	PaymentStore
	ReconcileStore
	AdminStore

	// Close releases any resources held by the store.
	Close() error
}
