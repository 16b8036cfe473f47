package calculator

import (
	"time"

	"github.com/clubreg/portal/internal/models"
)

// Season age is fixed on Aug 31, not on the player's birthday.
const (
	CutoffMonth = time.August
	CutoffDay   = 31
)

// CutoffDate returns the most recently passed Aug 31 relative to now.
// Before this year's cutoff, last year's cutoff is the reference point.
func CutoffDate(now time.Time) time.Time {
	cutoff := time.Date(now.Year(), CutoffMonth, CutoffDay, 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if today.Before(cutoff) {
		cutoff = cutoff.AddDate(-1, 0, 0)
	}
	return cutoff
}

// AgeAsOfCutoff returns the player's age in whole years on the reference cutoff date.
func AgeAsOfCutoff(dob, now time.Time) int {
	return ageOn(dob, CutoffDate(now))
}

// ageOn returns completed years between dob and ref.
func ageOn(dob, ref time.Time) int {
	age := ref.Year() - dob.Year()
	if ref.Month() < dob.Month() || (ref.Month() == dob.Month() && ref.Day() < dob.Day()) {
		age--
	}
	return age
}

// DivisionFor assigns a division from date of birth and gender.
// Upper bounds are exclusive: a player aged exactly 8 on the cutoff is U10.
func DivisionFor(dob time.Time, gender models.Gender, now time.Time) models.Division {
	age := AgeAsOfCutoff(dob, now)
	female := gender == models.GenderFemale

	switch {
	case age < 8:
		return models.DivisionU8
	case age < 10:
		return models.DivisionU10
	case age < 12:
		return models.DivisionU12
	case age < 14:
		return models.DivisionU14
	case age < 16:
		if female {
			return models.DivisionGU15
		}
		return models.DivisionU16
	case age < 18:
		if female {
			return models.DivisionGU18
		}
		return models.DivisionU18
	default:
		return models.DivisionAdult
	}
}

// RequiresWeightVerification reports whether players in the division must be
// weighed in person before competing.
func RequiresWeightVerification(d models.Division) bool {
	return d == models.DivisionU10 || d == models.DivisionU12
}

// IsNonContactDivision reports whether the division plays the flag game.
func IsNonContactDivision(d models.Division) bool {
	return d == models.DivisionU8
}

// GoverningBodyFee returns the pass-through fee owed for a division.
func GoverningBodyFee(d models.Division, schedule models.FeeSchedule) int64 {
	if IsNonContactDivision(d) {
		return schedule.Flag
	}
	return schedule.Contact
}

// divisionRank orders divisions youngest first. Gendered variants share the
// rank of their open counterpart.
var divisionRank = map[models.Division]int{
	models.DivisionU8:    0,
	models.DivisionU10:   1,
	models.DivisionU12:   2,
	models.DivisionU14:   3,
	models.DivisionU16:   4,
	models.DivisionGU15:  4,
	models.DivisionU18:   5,
	models.DivisionGU18:  5,
	models.DivisionAdult: 6,
}

// DivisionRank returns the age ordering of a division, or -1 if unknown.
func DivisionRank(d models.Division) int {
	if r, ok := divisionRank[d]; ok {
		return r
	}
	return -1
}
