package calculator

import (
	"testing"

	"github.com/clubreg/portal/internal/models"
)

func TestCalculateClubStats(t *testing.T) {
	regs := []RegistrationForStats{
		{Status: models.StatusDraft, Division: models.DivisionU8},
		// One checkout paid for the U10 and U12 players; both rows carry its total.
		{Status: models.StatusPaid, Division: models.DivisionU10, PaymentAmountCents: 56000, PaymentRef: "pi_1"},
		{Status: models.StatusSubmitted, Division: models.DivisionU12, PaymentAmountCents: 56000, PaymentRef: "pi_1"},
		{Status: models.StatusComplete, Division: models.DivisionU14, PaymentAmountCents: 28000, PaymentRef: "pi_2"},
		{Status: models.StatusCancelled, Division: models.DivisionU10},
	}
	payments := []models.Payment{
		{Status: models.PaymentSucceeded, TotalAmountCents: 28000, ClubPortionCents: 25000, GoverningBodyPortionCents: 3000},
		{Status: models.PaymentSucceeded, TotalAmountCents: 26600, ClubPortionCents: 25000, GoverningBodyPortionCents: 1600},
		{Status: models.PaymentFailed, TotalAmountCents: 99999},
	}

	stats := CalculateClubStats(regs, payments)

	if stats.Total != 5 {
		t.Errorf("Total = %d, want 5", stats.Total)
	}
	if stats.Paid != 3 {
		t.Errorf("Paid = %d, want 3", stats.Paid)
	}
	if stats.Pending != 1 {
		t.Errorf("Pending = %d, want 1", stats.Pending)
	}
	if stats.ByDivision[models.DivisionU10] != 2 {
		t.Errorf("ByDivision[U10] = %d, want 2", stats.ByDivision[models.DivisionU10])
	}
	if stats.Revenue != 84000 {
		t.Errorf("Revenue = %d, want 84000", stats.Revenue)
	}
	if stats.Actions.AwaitingSubmission != 1 {
		t.Errorf("AwaitingSubmission = %d, want 1", stats.Actions.AwaitingSubmission)
	}
	if stats.Actions.AwaitingVerification != 1 {
		t.Errorf("AwaitingVerification = %d, want 1", stats.Actions.AwaitingVerification)
	}
	// U10 paid and U12 submitted both need a weigh-in; cancelled U10 does not.
	if stats.Actions.AwaitingWeight != 2 {
		t.Errorf("AwaitingWeight = %d, want 2", stats.Actions.AwaitingWeight)
	}

	if stats.Payments.Count != 2 {
		t.Errorf("Payments.Count = %d, want 2", stats.Payments.Count)
	}
	if stats.Payments.CollectedCents != 54600 {
		t.Errorf("CollectedCents = %d, want 54600", stats.Payments.CollectedCents)
	}
	if stats.Payments.GoverningBodyCents != 4600 {
		t.Errorf("GoverningBodyCents = %d, want 4600", stats.Payments.GoverningBodyCents)
	}
}

func TestCalculateClubStatsEmpty(t *testing.T) {
	stats := CalculateClubStats(nil, nil)
	if stats.Total != 0 || stats.Payments.Count != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
	if stats.ByStatus == nil || stats.ByDivision == nil {
		t.Error("expected initialised maps")
	}
}
