// Package validation checks user-entered guardian and player fields.
// Errors are collected per field so forms can show them inline.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/clubreg/portal/internal/models"
)

const (
	maxNameLength = 100
	minPlayerAge  = 4
	maxPlayerAge  = 25
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps a field name to a user-facing message.
type FieldErrors map[string]string

// Error implements error with a stable, field-sorted message.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when there are no field errors.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidPhone accepts 10 or 11 digit numbers in any punctuation.
func IsValidPhone(s string) bool {
	n := len(digits(s))
	return n == 10 || n == 11
}

// FormatPhone renders a US number for display, or returns it unchanged.
func FormatPhone(s string) string {
	d := digits(s)
	switch {
	case len(d) == 10:
		return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:])
	case len(d) == 11 && d[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", d[1:4], d[4:7], d[7:])
	}
	return s
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseDOB parses a YYYY-MM-DD date of birth.
func ParseDOB(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date of birth %q: %w", s, err)
	}
	return t, nil
}

// Guardian validates identity and contact fields. Address fields are optional.
func Guardian(g *models.Guardian) FieldErrors {
	errs := FieldErrors{}
	if !IsValidEmail(g.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	checkName(errs, "first_name", g.FirstName)
	checkName(errs, "last_name", g.LastName)
	if g.Phone != "" && !IsValidPhone(g.Phone) {
		errs["phone"] = "Please enter a valid phone number"
	}
	return errs
}

// Player validates a player's required fields relative to now.
func Player(p *models.Player, now time.Time) FieldErrors {
	errs := FieldErrors{}
	checkName(errs, "first_name", p.FirstName)
	checkName(errs, "last_name", p.LastName)

	dob, err := ParseDOB(p.DateOfBirth)
	if err != nil {
		errs["date_of_birth"] = "Please enter a valid date of birth"
	} else if !AgeInRange(dob, now) {
		errs["date_of_birth"] = fmt.Sprintf("Player must be between %d and %d years old", minPlayerAge, maxPlayerAge)
	}

	if !p.Gender.Valid() {
		errs["gender"] = "Please select a gender"
	}
	if p.EmergencyContactPhone != "" && !IsValidPhone(p.EmergencyContactPhone) {
		errs["emergency_contact_phone"] = "Please enter a valid phone number"
	}
	return errs
}

// AgeInRange reports whether dob puts the player between the minimum and
// maximum ages, inclusive, as of now.
func AgeInRange(dob, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	oldest := today.AddDate(-maxPlayerAge, 0, 0)
	youngest := today.AddDate(-minPlayerAge, 0, 0)
	return !dob.Before(oldest) && !dob.After(youngest)
}

func checkName(errs FieldErrors, field, value string) {
	label := strings.ReplaceAll(field, "_", " ")
	label = strings.ToUpper(label[:1]) + label[1:]
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		errs[field] = label + " is required"
	case len(v) > maxNameLength:
		errs[field] = fmt.Sprintf("%s must be at most %d characters", label, maxNameLength)
	}
}
