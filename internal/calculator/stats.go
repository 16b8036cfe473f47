package calculator

import "github.com/clubreg/portal/internal/models"

// RegistrationForStats holds the minimal registration fields needed for dashboard stats.
type RegistrationForStats struct {
	Status             models.RegistrationStatus
	Division           models.Division
	PaymentAmountCents int64
	PaymentRef         string
}

// PendingActions counts registrations waiting on club staff.
type PendingActions struct {
	AwaitingSubmission   int // paid, not yet sent to the governing body
	AwaitingVerification int // submitted or pending verification
	AwaitingWeight       int // in a weigh-in division and not yet verified
}

// ClubStats is the dashboard summary for one club season.
type ClubStats struct {
	Total      int
	Paid       int // paid or further along, excluding cancelled/waitlist
	Pending    int // still draft
	ByStatus   map[models.RegistrationStatus]int
	ByDivision map[models.Division]int
	Revenue    int64 // checkout totals recorded on registrations, once per payment
	Payments   models.PaymentTotals
	Actions    PendingActions
}

// CalculateClubStats aggregates registrations and payment ledger rows.
//
// Algorithm:
// - Each registration counts once by status and once by division
// - Revenue sums PaymentAmountCents once per payment ref, since every
//   registration in a checkout records the checkout total
// - Ledger totals only include succeeded payments
func CalculateClubStats(regs []RegistrationForStats, payments []models.Payment) ClubStats {
	stats := ClubStats{
		ByStatus:   make(map[models.RegistrationStatus]int),
		ByDivision: make(map[models.Division]int),
	}
	counted := make(map[string]bool)

	for _, r := range regs {
		stats.Total++
		stats.ByStatus[r.Status]++
		stats.ByDivision[r.Division]++
		if r.PaymentRef == "" || !counted[r.PaymentRef] {
			stats.Revenue += r.PaymentAmountCents
			counted[r.PaymentRef] = r.PaymentRef != ""
		}

		switch r.Status {
		case models.StatusDraft:
			stats.Pending++
		case models.StatusPaid:
			stats.Paid++
			stats.Actions.AwaitingSubmission++
		case models.StatusSubmitted, models.StatusPendingVerification:
			stats.Paid++
			stats.Actions.AwaitingVerification++
		case models.StatusVerified, models.StatusComplete:
			stats.Paid++
		}

		if RequiresWeightVerification(r.Division) && isAwaitingWeight(r.Status) {
			stats.Actions.AwaitingWeight++
		}
	}

	stats.Payments = SumPayments(payments)
	return stats
}

func isAwaitingWeight(s models.RegistrationStatus) bool {
	switch s {
	case models.StatusPaid, models.StatusSubmitted, models.StatusPendingVerification:
		return true
	}
	return false
}

// SumPayments totals succeeded ledger rows.
func SumPayments(payments []models.Payment) models.PaymentTotals {
	var t models.PaymentTotals
	for _, p := range payments {
		if p.Status != models.PaymentSucceeded {
			continue
		}
		t.Count++
		t.CollectedCents += p.TotalAmountCents
		t.ClubPortionCents += p.ClubPortionCents
		t.GoverningBodyCents += p.GoverningBodyPortionCents
	}
	return t
}
