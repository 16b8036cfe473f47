package models

import (
	"fmt"
	"strings"
)

// Gender as collected by the registration form.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the accepted values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Division is the competitive bracket a player is assigned to.
type Division string

const (
	DivisionU8    Division = "U8"
	DivisionU10   Division = "U10"
	DivisionU12   Division = "U12"
	DivisionU14   Division = "U14"
	DivisionU16   Division = "U16"
	DivisionGU15  Division = "GU15"
	DivisionU18   Division = "U18"
	DivisionGU18  Division = "GU18"
	DivisionAdult Division = "Adult"
)

// AllDivisions lists every division, youngest first.
var AllDivisions = []Division{
	DivisionU8,
	DivisionU10,
	DivisionU12,
	DivisionU14,
	DivisionU16,
	DivisionGU15,
	DivisionU18,
	DivisionGU18,
	DivisionAdult,
}

// ParseDivision converts a string to a Division, ignoring case.
func ParseDivision(s string) (Division, error) {
	for _, d := range AllDivisions {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown division: %q", s)
}

// DateLayout is the wire and storage format for dates of birth.
const DateLayout = "2006-01-02"

// Player is a registrant that belongs to a guardian.
type Player struct {
	// ID is the unique identifier for the player (UUID format).
	ID         string
	GuardianID string

	FirstName   string
	LastName    string
	DateOfBirth string // YYYY-MM-DD
	Gender      Gender

	MedicalConditions            string
	Allergies                    string
	EmergencyContactName         string
	EmergencyContactPhone        string
	EmergencyContactRelationship string

	// HeadshotURL and DOBDocumentURL are set once uploaded media is stored.
	HeadshotURL    string
	DOBDocumentURL string

	CreatedAt int64
	UpdatedAt int64
}

// DisplayName returns "First Last", trimmed.
func (p *Player) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// DocumentsComplete reports whether both documents are on file.
func (p *Player) DocumentsComplete() bool {
	return p.HeadshotURL != "" && p.DOBDocumentURL != ""
}
