package calculator

import (
	"testing"

	"github.com/clubreg/portal/internal/models"
)

func TestCalculateTotal(t *testing.T) {
	schedule := models.FeeSchedule{Flag: 1600, Contact: 3000}

	tests := []struct {
		name         string
		divisions    []models.Division
		clubDues     int64
		schedule     models.FeeSchedule
		wantErr      bool
		validateFunc func(t *testing.T, b Breakdown)
	}{
		{
			name:      "flag and contact players",
			divisions: []models.Division{models.DivisionU8, models.DivisionU12},
			clubDues:  25000,
			schedule:  schedule,
			validateFunc: func(t *testing.T, b Breakdown) {
				// 25000+1600 + 25000+3000
				if b.Total != 54600 {
					t.Errorf("Total = %d, want 54600", b.Total)
				}
				if b.ClubTotal != 50000 {
					t.Errorf("ClubTotal = %d, want 50000", b.ClubTotal)
				}
				if b.GoverningBodyTotal != 4600 {
					t.Errorf("GoverningBodyTotal = %d, want 4600", b.GoverningBodyTotal)
				}
				if len(b.Players) != 2 {
					t.Fatalf("Players = %d, want 2", len(b.Players))
				}
				if b.Players[0].GoverningBody != 1600 || b.Players[1].GoverningBody != 3000 {
					t.Errorf("per-player fees = %+v", b.Players)
				}
			},
		},
		{
			name:      "single adult",
			divisions: []models.Division{models.DivisionAdult},
			clubDues:  10000,
			schedule:  schedule,
			validateFunc: func(t *testing.T, b Breakdown) {
				if b.Total != 13000 {
					t.Errorf("Total = %d, want 13000", b.Total)
				}
			},
		},
		{
			name:      "free club dues",
			divisions: []models.Division{models.DivisionU8, models.DivisionU8},
			clubDues:  0,
			schedule:  schedule,
			validateFunc: func(t *testing.T, b Breakdown) {
				if b.Total != 3200 {
					t.Errorf("Total = %d, want 3200", b.Total)
				}
			},
		},
		{
			name:      "no players should error",
			divisions: nil,
			clubDues:  25000,
			schedule:  schedule,
			wantErr:   true,
		},
		{
			name:      "negative dues should error",
			divisions: []models.Division{models.DivisionU8},
			clubDues:  -1,
			schedule:  schedule,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := CalculateTotal(tt.divisions, tt.clubDues, tt.schedule)
			if (err != nil) != tt.wantErr {
				t.Errorf("CalculateTotal() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.validateFunc != nil {
				tt.validateFunc(t, b)
			}
		})
	}
}
