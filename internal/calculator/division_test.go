package calculator

import (
	"testing"
	"time"

	"github.com/clubreg/portal/internal/models"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func TestCutoffDate(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want string
	}{
		{"before cutoff uses last year", "2025-08-30", "2024-08-31"},
		{"on cutoff uses this year", "2025-08-31", "2025-08-31"},
		{"after cutoff uses this year", "2025-10-01", "2025-08-31"},
		{"january uses last year", "2026-01-15", "2025-08-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CutoffDate(date(t, tt.now))
			if !got.Equal(date(t, tt.want)) {
				t.Errorf("CutoffDate(%s) = %s, want %s", tt.now, got.Format(models.DateLayout), tt.want)
			}
		})
	}
}

func TestAgeAsOfCutoff(t *testing.T) {
	now := date(t, "2025-10-01")
	tests := []struct {
		dob  string
		want int
	}{
		{"2017-03-15", 8},
		{"2017-08-31", 8}, // birthday on the cutoff counts
		{"2017-09-01", 7}, // one day after the cutoff
		{"2007-12-31", 17},
	}

	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			if got := AgeAsOfCutoff(date(t, tt.dob), now); got != tt.want {
				t.Errorf("AgeAsOfCutoff(%s) = %d, want %d", tt.dob, got, tt.want)
			}
		})
	}
}

func TestDivisionFor(t *testing.T) {
	now := date(t, "2025-10-01") // cutoff 2025-08-31
	tests := []struct {
		name   string
		dob    string
		gender models.Gender
		want   models.Division
	}{
		{"age 5", "2020-01-01", models.GenderMale, models.DivisionU8},
		{"age 7", "2018-01-01", models.GenderFemale, models.DivisionU8},
		{"age 8 boundary", "2017-03-15", models.GenderMale, models.DivisionU10},
		{"age 10", "2015-01-01", models.GenderMale, models.DivisionU12},
		{"age 12", "2013-01-01", models.GenderOther, models.DivisionU14},
		{"age 14 boy", "2011-01-01", models.GenderMale, models.DivisionU16},
		{"age 14 girl", "2011-01-01", models.GenderFemale, models.DivisionGU15},
		{"age 16 boy", "2009-01-01", models.GenderMale, models.DivisionU18},
		{"age 16 girl", "2009-01-01", models.GenderFemale, models.DivisionGU18},
		{"age 18", "2007-01-01", models.GenderMale, models.DivisionAdult},
		{"age 18 girl", "2007-01-01", models.GenderFemale, models.DivisionAdult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DivisionFor(date(t, tt.dob), tt.gender, now)
			if got != tt.want {
				t.Errorf("DivisionFor(%s, %s) = %s, want %s", tt.dob, tt.gender, got, tt.want)
			}
			// Recomputing yields the same answer.
			if again := DivisionFor(date(t, tt.dob), tt.gender, now); again != got {
				t.Errorf("DivisionFor not stable: %s then %s", got, again)
			}
		})
	}
}

func TestDivisionForMonotonicInAge(t *testing.T) {
	now := date(t, "2025-10-01")
	for _, g := range []models.Gender{models.GenderMale, models.GenderFemale, models.GenderOther} {
		prev := -1
		// Walk from youngest to oldest, one month at a time.
		for dob := date(t, "2021-08-01"); dob.After(date(t, "1999-01-01")); dob = dob.AddDate(0, -1, 0) {
			rank := DivisionRank(DivisionFor(dob, g, now))
			if rank < prev {
				t.Fatalf("gender %s: division rank dropped from %d to %d at dob %s",
					g, prev, rank, dob.Format(models.DateLayout))
			}
			prev = rank
		}
	}
}

func TestDivisionPredicates(t *testing.T) {
	all := []models.Division{
		models.DivisionU8, models.DivisionU10, models.DivisionU12, models.DivisionU14,
		models.DivisionU16, models.DivisionGU15, models.DivisionU18, models.DivisionGU18,
		models.DivisionAdult,
	}

	for _, d := range all {
		wantWeight := d == models.DivisionU10 || d == models.DivisionU12
		if got := RequiresWeightVerification(d); got != wantWeight {
			t.Errorf("RequiresWeightVerification(%s) = %v, want %v", d, got, wantWeight)
		}
		wantFlag := d == models.DivisionU8
		if got := IsNonContactDivision(d); got != wantFlag {
			t.Errorf("IsNonContactDivision(%s) = %v, want %v", d, got, wantFlag)
		}
	}
}

func TestGoverningBodyFee(t *testing.T) {
	schedules := []models.FeeSchedule{
		{Flag: 1600, Contact: 3000},
		{Flag: 1, Contact: 2},
		{Flag: 5000, Contact: 4000},
	}
	for _, s := range schedules {
		if got := GoverningBodyFee(models.DivisionU8, s); got != s.Flag {
			t.Errorf("U8 fee = %d, want flag %d", got, s.Flag)
		}
		for _, d := range []models.Division{models.DivisionU10, models.DivisionU14, models.DivisionGU18, models.DivisionAdult} {
			if got := GoverningBodyFee(d, s); got != s.Contact {
				t.Errorf("%s fee = %d, want contact %d", d, got, s.Contact)
			}
		}
	}
}

func TestEndToEndDivisionScenario(t *testing.T) {
	now := date(t, "2025-09-15")
	dob := date(t, "2017-03-15")

	if age := AgeAsOfCutoff(dob, now); age != 8 {
		t.Fatalf("age = %d, want 8", age)
	}
	div := DivisionFor(dob, models.GenderMale, now)
	if div != models.DivisionU10 {
		t.Fatalf("division = %s, want U10", div)
	}
	if !RequiresWeightVerification(div) {
		t.Error("U10 should require weight verification")
	}
	schedule := models.FeeSchedule{Flag: 1600, Contact: 3000}
	if fee := GoverningBodyFee(div, schedule); fee != schedule.Contact {
		t.Errorf("fee = %d, want %d", fee, schedule.Contact)
	}
}
