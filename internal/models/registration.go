package models

import "fmt"

// RegistrationStatus tracks a registration through its lifecycle.
type RegistrationStatus string

const (
	StatusDraft               RegistrationStatus = "draft"
	StatusPaid                RegistrationStatus = "paid"
	StatusSubmitted           RegistrationStatus = "submitted"
	StatusPendingVerification RegistrationStatus = "pending_verification"
	StatusVerified            RegistrationStatus = "verified"
	StatusComplete            RegistrationStatus = "complete"
	StatusCancelled           RegistrationStatus = "cancelled"
	StatusWaitlist            RegistrationStatus = "waitlist"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []RegistrationStatus{
	StatusDraft,
	StatusPaid,
	StatusSubmitted,
	StatusPendingVerification,
	StatusVerified,
	StatusComplete,
	StatusCancelled,
	StatusWaitlist,
}

// ParseStatus converts a string to a RegistrationStatus.
func ParseStatus(s string) (RegistrationStatus, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown registration status: %q", s)
}

// Label is the human readable form shown to admins.
func (s RegistrationStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPaid:
		return "Paid - Awaiting Registration"
	case StatusSubmitted:
		return "Submitted"
	case StatusPendingVerification:
		return "Pending Verification"
	case StatusVerified:
		return "Verified"
	case StatusComplete:
		return "Complete"
	case StatusCancelled:
		return "Cancelled"
	case StatusWaitlist:
		return "Waitlist"
	}
	return string(s)
}

// statusFlow maps each status to the statuses it may advance to.
// StatusPaid appears only as the successor of draft and is reserved for
// payment reconciliation; see CanTransition.
var statusFlow = map[RegistrationStatus][]RegistrationStatus{
	StatusDraft:               {StatusPaid, StatusCancelled, StatusWaitlist},
	StatusWaitlist:            {StatusDraft, StatusCancelled},
	StatusPaid:                {StatusSubmitted},
	StatusSubmitted:           {StatusPendingVerification},
	StatusPendingVerification: {StatusVerified},
	StatusVerified:            {StatusComplete},
}

// CanTransition reports whether an administrator may move a registration
// from one status to another. Moving to paid is never allowed here.
func CanTransition(from, to RegistrationStatus) bool {
	if to == StatusPaid {
		return false
	}
	for _, next := range statusFlow[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Registration is a player's entry for one club season.
type Registration struct {
	// ID is the unique identifier for the registration (UUID format).
	ID       string
	PlayerID string
	ClubID   string
	Season   string
	Division Division
	Status   RegistrationStatus

	ClubDuesPaid       bool
	PaymentAmountCents int64
	PaymentRef         string
	PaymentDate        int64 // Unix seconds, 0 when unpaid

	// DraftStep is the furthest wizard step recorded by auto-save.
	DraftStep int
	// ClientTempID is the wizard-local player id the draft was saved from.
	ClientTempID string

	Notes string

	CreatedAt int64
	UpdatedAt int64
}

// RegistrationDetails joins a registration with its player and guardian.
type RegistrationDetails struct {
	Registration
	Player   Player
	Guardian Guardian
}
