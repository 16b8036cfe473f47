package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
)

// UpsertClubAdmin grants or updates a user's admin role for a club.
func (s *SQLiteStore) UpsertClubAdmin(ctx context.Context, admin *models.ClubAdmin) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO club_admins (club_id, user_id, email, name, role, permissions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(club_id, user_id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			role = excluded.role,
			permissions = excluded.permissions`,
		admin.ClubID, admin.UserID, admin.Email, nullString(admin.Name),
		string(admin.Role), encodePermissions(admin.Permissions),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert club admin: %w", err)
	}
	return nil
}

// GetClubAdmin returns the admin record for a user, or storage.ErrNotFound.
func (s *SQLiteStore) GetClubAdmin(ctx context.Context, clubID, userID string) (*models.ClubAdmin, error) {
	admin := &models.ClubAdmin{ClubID: clubID, UserID: userID}
	var name sql.NullString
	var role, perms string
	err := s.db.QueryRowContext(ctx,
		"SELECT email, name, role, permissions FROM club_admins WHERE club_id = ? AND user_id = ?",
		clubID, userID,
	).Scan(&admin.Email, &name, &role, &perms)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club admin: %w", err)
	}
	admin.Name = name.String
	admin.Role = models.AdminRole(role)
	admin.Permissions = decodePermissions(perms)
	return admin, nil
}

// Permissions are stored as a sorted comma separated list of granted names.
func encodePermissions(perms map[models.AdminPermission]bool) string {
	var granted []string
	for p, ok := range perms {
		if ok {
			granted = append(granted, string(p))
		}
	}
	sort.Strings(granted)
	return strings.Join(granted, ",")
}

func decodePermissions(s string) map[models.AdminPermission]bool {
	perms := make(map[models.AdminPermission]bool)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms[models.AdminPermission(p)] = true
		}
	}
	return perms
}
