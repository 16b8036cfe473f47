package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
)

const guardianColumns = `id, user_id, email, first_name, last_name, phone, address_line1,
	address_line2, city, state, postal_code, country, created_at, updated_at`

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func scanGuardian(row *sql.Row) (*models.Guardian, error) {
	g := &models.Guardian{}
	var userID, phone, line1, line2, city, state, postal sql.NullString
	err := row.Scan(&g.ID, &userID, &g.Email, &g.FirstName, &g.LastName, &phone, &line1,
		&line2, &city, &state, &postal, &g.Country, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.UserID = userID.String
	g.Phone = phone.String
	g.AddressLine1 = line1.String
	g.AddressLine2 = line2.String
	g.City = city.String
	g.State = state.String
	g.PostalCode = postal.String
	return g, nil
}

func getGuardianBy(ctx context.Context, q queryRower, where string, args ...interface{}) (*models.Guardian, error) {
	g, err := scanGuardian(q.QueryRowContext(ctx,
		"SELECT "+guardianColumns+" FROM guardians WHERE "+where, args...))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guardian: %w", err)
	}
	return g, nil
}

// GetGuardian retrieves a guardian by ID.
func (s *SQLiteStore) GetGuardian(ctx context.Context, guardianID string) (*models.Guardian, error) {
	g, err := getGuardianBy(ctx, s.db, "id = ?", guardianID)
	if err != nil {
		return nil, fmt.Errorf("guardian %s: %w", guardianID, err)
	}
	return g, nil
}

// GetOrCreateGuardian finds the guardian for an external identity.
// Lookup order: linked by user ID, then an unlinked record with the same
// email (which is linked), else a new empty guardian.
func (s *SQLiteStore) GetOrCreateGuardian(ctx context.Context, userID, email string) (*models.Guardian, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	g, err := getGuardianBy(ctx, tx, "user_id = ?", userID)
	if err == nil {
		return g, tx.Commit()
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	now := s.now().Unix()
	g, err = getGuardianBy(ctx, tx, "email = ? AND user_id IS NULL", email)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			"UPDATE guardians SET user_id = ?, updated_at = ? WHERE id = ?",
			userID, now, g.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to link guardian: %w", err)
		}
		g.UserID = userID
		g.UpdatedAt = now
	case err == storage.ErrNotFound:
		g = &models.Guardian{
			ID:        uuid.New().String(),
			UserID:    userID,
			Email:     email,
			Country:   "US",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO guardians (id, user_id, email, country, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, g.UserID, g.Email, g.Country, g.CreatedAt, g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to create guardian: %w", err)
		}
	default:
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return g, nil
}

// upsertGuardianTx writes the guardian fields captured by the wizard.
// Email is only set on insert; it belongs to the identity, not the form.
func upsertGuardianTx(ctx context.Context, tx *sql.Tx, g *models.Guardian, now int64) error {
	country := g.Country
	if country == "" {
		country = "US"
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO guardians (id, email, first_name, last_name, phone, address_line1, address_line2,
			city, state, postal_code, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			address_line1 = excluded.address_line1,
			address_line2 = excluded.address_line2,
			city = excluded.city,
			state = excluded.state,
			postal_code = excluded.postal_code,
			country = excluded.country,
			updated_at = excluded.updated_at`,
		g.ID, g.Email, g.FirstName, g.LastName, nullString(g.Phone), nullString(g.AddressLine1),
		nullString(g.AddressLine2), nullString(g.City), nullString(g.State), nullString(g.PostalCode),
		country, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert guardian: %w", err)
	}
	return nil
}
