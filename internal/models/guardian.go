package models

import "strings"

// Guardian represents the parent or guardian who registers and pays for players.
type Guardian struct {
	// ID is the unique identifier for the guardian (UUID format).
	ID string

	// UserID is the subject of the external identity that owns this record.
	// Empty until the guardian signs in for the first time.
	UserID string

	// Email is the guardian's email address. Receipts are sent here.
	Email string

	FirstName string
	LastName  string

	// Contact and address fields are optional.
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// FullName returns "First Last", trimmed.
func (g *Guardian) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}
