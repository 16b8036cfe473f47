package models

// FeeSchedule holds governing-body fees in cents.
type FeeSchedule struct {
	// Flag is charged for non-contact divisions.
	Flag int64 `json:"flag"`
	// Contact is charged for every other division.
	Contact int64 `json:"contact"`
}

// Club is an organisation that runs registrations for one or more seasons.
type Club struct {
	// ID is the unique identifier for the club (UUID format).
	ID string `json:"id"`

	// Slug is the URL-safe name used in admin routes (e.g., "stingrays").
	Slug string `json:"slug"`

	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`

	// ClubDuesCents is charged once per registered player.
	ClubDuesCents int64 `json:"club_dues_cents"`

	// Fees is the governing-body fee schedule passed through to players.
	Fees FeeSchedule `json:"fees"`

	// CurrentSeason is the slug of the season open for registration.
	CurrentSeason string `json:"current_season"`

	PracticeLocation string `json:"practice_location,omitempty"`
	PracticeSchedule string `json:"practice_schedule,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// AdminRole is the role a user holds for a club.
type AdminRole string

const (
	RoleOwner     AdminRole = "owner"
	RoleAdmin     AdminRole = "admin"
	RoleVolunteer AdminRole = "volunteer"
)

// AdminPermission names a capability a volunteer may be granted.
type AdminPermission string

const (
	PermViewRegistrations AdminPermission = "view_registrations"
	PermExportData        AdminPermission = "export_data"
	PermManageStatus      AdminPermission = "manage_status"
)

// ClubAdmin grants a user access to a club's admin views.
type ClubAdmin struct {
	ClubID      string
	UserID      string
	Email       string
	Name        string
	Role        AdminRole
	Permissions map[AdminPermission]bool
}

// Can reports whether the admin holds the permission.
// Owners and admins hold every permission; volunteers only those granted.
func (a *ClubAdmin) Can(p AdminPermission) bool {
	switch a.Role {
	case RoleOwner, RoleAdmin:
		return true
	default:
		return a.Permissions[p]
	}
}
