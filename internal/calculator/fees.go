package calculator

import (
	"fmt"

	"github.com/clubreg/portal/internal/models"
)

// PlayerFee is the amount owed for one player, split by who receives it.
type PlayerFee struct {
	Division      models.Division
	Club          int64
	GoverningBody int64
	Total         int64
}

// FeeFor computes the fee for one player in the given division.
// Based on: total = club dues + governing-body fee for the division
func FeeFor(d models.Division, clubDues int64, schedule models.FeeSchedule) PlayerFee {
	gb := GoverningBodyFee(d, schedule)
	return PlayerFee{
		Division:      d,
		Club:          clubDues,
		GoverningBody: gb,
		Total:         clubDues + gb,
	}
}

// Breakdown is the fee calculation for a whole checkout.
type Breakdown struct {
	Players            []PlayerFee
	ClubTotal          int64
	GoverningBodyTotal int64
	Total              int64
}

// CalculateTotal sums the fees for every division in a checkout.
func CalculateTotal(divisions []models.Division, clubDues int64, schedule models.FeeSchedule) (Breakdown, error) {
	if len(divisions) == 0 {
		return Breakdown{}, fmt.Errorf("must have at least one player")
	}
	if clubDues < 0 || schedule.Flag < 0 || schedule.Contact < 0 {
		return Breakdown{}, fmt.Errorf("fees cannot be negative")
	}

	b := Breakdown{Players: make([]PlayerFee, 0, len(divisions))}
	for _, d := range divisions {
		fee := FeeFor(d, clubDues, schedule)
		b.Players = append(b.Players, fee)
		b.ClubTotal += fee.Club
		b.GoverningBodyTotal += fee.GoverningBody
		b.Total += fee.Total
	}
	return b, nil
}
