package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clubreg/portal/internal/models"
)

// SeedAdmin grants a user access to a club, by club slug.
type SeedAdmin struct {
	ClubSlug    string                   `json:"club_slug"`
	UserID      string                   `json:"user_id"`
	Email       string                   `json:"email"`
	Name        string                   `json:"name"`
	Role        models.AdminRole         `json:"role"`
	Permissions []models.AdminPermission `json:"permissions"`
}

// Seed is the clubs file: club configuration and their administrators.
type Seed struct {
	Clubs  []models.Club `json:"clubs"`
	Admins []SeedAdmin   `json:"admins"`
}

// LoadSeed reads a clubs file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clubs file: %w", err)
	}
	var s Seed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse clubs file %s: %w", path, err)
	}
	for i, c := range s.Clubs {
		if c.Slug == "" || c.Name == "" || c.CurrentSeason == "" {
			return nil, fmt.Errorf("club %d: slug, name and current_season are required", i)
		}
		if c.ClubDuesCents < 0 || c.Fees.Flag < 0 || c.Fees.Contact < 0 {
			return nil, fmt.Errorf("club %s: fees cannot be negative", c.Slug)
		}
	}
	return &s, nil
}

// Admin converts a seed entry for the club with the given id.
func (a SeedAdmin) Admin(clubID string) *models.ClubAdmin {
	perms := make(map[models.AdminPermission]bool, len(a.Permissions))
	for _, p := range a.Permissions {
		perms[p] = true
	}
	return &models.ClubAdmin{
		ClubID:      clubID,
		UserID:      a.UserID,
		Email:       a.Email,
		Name:        a.Name,
		Role:        a.Role,
		Permissions: perms,
	}
}
