package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
)

const detailsQuery = `
	SELECT r.id, r.player_id, r.club_id, r.season, r.division, r.status, r.club_dues_paid,
		r.payment_amount_cents, r.payment_ref, r.payment_date, r.draft_step, r.client_temp_id,
		r.notes, r.created_at, r.updated_at,
		p.id, p.guardian_id, p.first_name, p.last_name, p.date_of_birth, p.gender,
		p.medical_conditions, p.allergies, p.emergency_contact_name, p.emergency_contact_phone,
		p.emergency_contact_relationship, p.headshot_url, p.dob_document_url, p.created_at, p.updated_at,
		g.id, g.user_id, g.email, g.first_name, g.last_name, g.phone, g.address_line1,
		g.address_line2, g.city, g.state, g.postal_code, g.country, g.created_at, g.updated_at
	FROM registrations r
	JOIN players p ON p.id = r.player_id
	JOIN guardians g ON g.id = p.guardian_id
	WHERE `

// queryDetails runs detailsQuery with the given filter and reads every row
// before returning, so callers may issue further queries on the single connection.
func (s *SQLiteStore) queryDetails(ctx context.Context, where string, args ...interface{}) ([]models.RegistrationDetails, error) {
	rows, err := s.db.QueryContext(ctx,
		detailsQuery+where+" ORDER BY p.last_name, p.first_name, r.created_at", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	var out []models.RegistrationDetails
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return out, nil
}

func scanDetails(rows *sql.Rows) (*models.RegistrationDetails, error) {
	d := &models.RegistrationDetails{}
	r, p, g := &d.Registration, &d.Player, &d.Guardian

	var (
		division, status, gender                           string
		amount, paidAt                                     sql.NullInt64
		paymentRef, clientTempID, notes                    sql.NullString
		medical, allergies, ecName, ecPhone, ecRel         sql.NullString
		headshot, dobDoc                                   sql.NullString
		userID, phone, line1, line2, city, state, postcode sql.NullString
	)
	err := rows.Scan(
		&r.ID, &r.PlayerID, &r.ClubID, &r.Season, &division, &status, &r.ClubDuesPaid,
		&amount, &paymentRef, &paidAt, &r.DraftStep, &clientTempID,
		&notes, &r.CreatedAt, &r.UpdatedAt,
		&p.ID, &p.GuardianID, &p.FirstName, &p.LastName, &p.DateOfBirth, &gender,
		&medical, &allergies, &ecName, &ecPhone,
		&ecRel, &headshot, &dobDoc, &p.CreatedAt, &p.UpdatedAt,
		&g.ID, &userID, &g.Email, &g.FirstName, &g.LastName, &phone, &line1,
		&line2, &city, &state, &postcode, &g.Country, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Division = models.Division(division)
	r.Status = models.RegistrationStatus(status)
	r.PaymentAmountCents = amount.Int64
	r.PaymentRef = paymentRef.String
	r.PaymentDate = paidAt.Int64
	r.ClientTempID = clientTempID.String
	r.Notes = notes.String

	p.Gender = models.Gender(gender)
	p.MedicalConditions = medical.String
	p.Allergies = allergies.String
	p.EmergencyContactName = ecName.String
	p.EmergencyContactPhone = ecPhone.String
	p.EmergencyContactRelationship = ecRel.String
	p.HeadshotURL = headshot.String
	p.DOBDocumentURL = dobDoc.String

	g.UserID = userID.String
	g.Phone = phone.String
	g.AddressLine1 = line1.String
	g.AddressLine2 = line2.String
	g.City = city.String
	g.State = state.String
	g.PostalCode = postcode.String
	return d, nil
}

// ListRegistrations returns a club's registrations for a season, optionally
// narrowed by status and division.
func (s *SQLiteStore) ListRegistrations(ctx context.Context, clubID, season string, filter storage.RegistrationFilter) ([]models.RegistrationDetails, error) {
	where := "r.club_id = ? AND r.season = ?"
	args := []interface{}{clubID, season}
	if filter.Status != "" {
		where += " AND r.status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Division != "" {
		where += " AND r.division = ?"
		args = append(args, string(filter.Division))
	}
	return s.queryDetails(ctx, where, args...)
}

// GetRegistrationDetails returns the registrations found among ids.
// Unknown ids are skipped; callers compare lengths when they need all of them.
func (s *SQLiteStore) GetRegistrationDetails(ctx context.Context, ids []string) ([]models.RegistrationDetails, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryDetails(ctx, "r.id IN ("+placeholders(len(ids))+")", stringArgs(ids)...)
}

// UpdateRegistrationStatus moves a registration to a new status on behalf of
// a club administrator. Notes, when non-empty, replace the stored notes.
func (s *SQLiteStore) UpdateRegistrationStatus(ctx context.Context, clubID, registrationID string, to models.RegistrationStatus, notes string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM registrations WHERE id = ? AND club_id = ?",
		registrationID, clubID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("registration %s: %w", registrationID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get registration: %w", err)
	}

	from := models.RegistrationStatus(current)
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, storage.ErrInvalidTransition)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE registrations SET status = ?, notes = COALESCE(?, notes), updated_at = ?
		WHERE id = ?`,
		string(to), nullString(notes), s.now().Unix(), registrationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
