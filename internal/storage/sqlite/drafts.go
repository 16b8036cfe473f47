package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
)

// SaveDraft upserts the guardian and each player's draft registration.
// A player saved earlier under the same client id keeps its rows even when
// its name or date of birth changed. Otherwise players are matched on
// (guardian, first name, last name, date of birth); a match is updated in
// place, anything else is inserted. Players absent from draft are left as
// they are.
func (s *SQLiteStore) SaveDraft(ctx context.Context, key models.DraftKey, draft *models.Draft) error {
	now := s.now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	guardian := draft.Guardian
	guardian.ID = key.GuardianID
	if err := upsertGuardianTx(ctx, tx, &guardian, now); err != nil {
		return err
	}

	for i := range draft.Players {
		p := &draft.Players[i]
		playerID, err := rekeyPlayerTx(ctx, tx, key, p, now)
		if err != nil {
			return err
		}
		if playerID == "" {
			playerID, err = upsertPlayerTx(ctx, tx, key.GuardianID, &p.Player, now)
			if err != nil {
				return err
			}
		}
		if err := upsertDraftRegistrationTx(ctx, tx, key, playerID, p, draft.CurrentStep, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rekeyPlayerTx finds the player behind an earlier save of p's client id and
// rewrites its identity to p's. It returns "" when the identity match in
// upsertPlayerTx should decide instead: there is no earlier draft row, the new
// identity belongs to another saved player, or the player row is shared with
// registrations outside this draft. In the last two cases the earlier draft
// row is deleted so the client id maps to a single registration.
func rekeyPlayerTx(ctx context.Context, tx *sql.Tx, key models.DraftKey, p *models.DraftPlayer, now int64) (string, error) {
	if p.ClientID == "" {
		return "", nil
	}

	var regID, playerID string
	err := tx.QueryRowContext(ctx, `
		SELECT r.id, r.player_id FROM registrations r
		JOIN players pl ON pl.id = r.player_id
		WHERE pl.guardian_id = ? AND r.club_id = ? AND r.season = ?
			AND r.status = ? AND r.client_temp_id = ?
		ORDER BY r.updated_at DESC
		LIMIT 1`,
		key.GuardianID, key.ClubID, key.Season, string(models.StatusDraft), p.ClientID,
	).Scan(&regID, &playerID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up draft by client id: %w", err)
	}

	var matchID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM players
		 WHERE guardian_id = ? AND first_name = ? AND last_name = ? AND date_of_birth = ?`,
		key.GuardianID, p.FirstName, p.LastName, p.DateOfBirth,
	).Scan(&matchID)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return "", fmt.Errorf("failed to look up player: %w", err)
	case matchID == playerID:
		return playerID, updatePlayerTx(ctx, tx, playerID, &p.Player, now)
	default:
		return "", deleteRegistrationTx(ctx, tx, regID)
	}

	var shared int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE player_id = ? AND id != ?",
		playerID, regID,
	).Scan(&shared)
	if err != nil {
		return "", fmt.Errorf("failed to count player registrations: %w", err)
	}
	if shared > 0 {
		return "", deleteRegistrationTx(ctx, tx, regID)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE players SET first_name = ?, last_name = ?, date_of_birth = ? WHERE id = ?",
		p.FirstName, p.LastName, p.DateOfBirth, playerID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to rename player: %w", err)
	}
	return playerID, updatePlayerTx(ctx, tx, playerID, &p.Player, now)
}

func deleteRegistrationTx(ctx context.Context, tx *sql.Tx, regID string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM registrations WHERE id = ?", regID); err != nil {
		return fmt.Errorf("failed to delete stale draft registration: %w", err)
	}
	return nil
}

func updatePlayerTx(ctx context.Context, tx *sql.Tx, playerID string, p *models.Player, now int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE players SET gender = ?, medical_conditions = ?, allergies = ?,
			emergency_contact_name = ?, emergency_contact_phone = ?,
			emergency_contact_relationship = ?, headshot_url = ?, dob_document_url = ?,
			updated_at = ?
		WHERE id = ?`,
		string(p.Gender), nullString(p.MedicalConditions), nullString(p.Allergies),
		nullString(p.EmergencyContactName), nullString(p.EmergencyContactPhone),
		nullString(p.EmergencyContactRelationship), nullString(p.HeadshotURL),
		nullString(p.DOBDocumentURL), now, playerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

func upsertPlayerTx(ctx context.Context, tx *sql.Tx, guardianID string, p *models.Player, now int64) (string, error) {
	var playerID string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM players
		 WHERE guardian_id = ? AND first_name = ? AND last_name = ? AND date_of_birth = ?`,
		guardianID, p.FirstName, p.LastName, p.DateOfBirth,
	).Scan(&playerID)

	switch {
	case err == sql.ErrNoRows:
		playerID = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO players (id, guardian_id, first_name, last_name, date_of_birth, gender,
				medical_conditions, allergies, emergency_contact_name, emergency_contact_phone,
				emergency_contact_relationship, headshot_url, dob_document_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			playerID, guardianID, p.FirstName, p.LastName, p.DateOfBirth, string(p.Gender),
			nullString(p.MedicalConditions), nullString(p.Allergies), nullString(p.EmergencyContactName),
			nullString(p.EmergencyContactPhone), nullString(p.EmergencyContactRelationship),
			nullString(p.HeadshotURL), nullString(p.DOBDocumentURL), now, now,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert player: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to look up player: %w", err)
	default:
		if err := updatePlayerTx(ctx, tx, playerID, p, now); err != nil {
			return "", err
		}
	}
	return playerID, nil
}

func upsertDraftRegistrationTx(ctx context.Context, tx *sql.Tx, key models.DraftKey, playerID string, p *models.DraftPlayer, step int, now int64) error {
	var regID, status string
	err := tx.QueryRowContext(ctx,
		"SELECT id, status FROM registrations WHERE player_id = ? AND club_id = ? AND season = ?",
		playerID, key.ClubID, key.Season,
	).Scan(&regID, &status)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO registrations (id, player_id, club_id, season, division, status,
				draft_step, client_temp_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), playerID, key.ClubID, key.Season, string(p.Division),
			string(models.StatusDraft), step, nullString(p.ClientID), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert draft registration: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up registration: %w", err)
	case models.RegistrationStatus(status) != models.StatusDraft:
		// Paid or later; the draft no longer owns this row.
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE registrations SET division = ?, draft_step = ?, client_temp_id = ?, updated_at = ?
			WHERE id = ?`,
			string(p.Division), step, nullString(p.ClientID), now, regID,
		)
		if err != nil {
			return fmt.Errorf("failed to update draft registration: %w", err)
		}
	}
	return nil
}

// LoadDraft returns the guardian's draft for a club season, or nil if the
// guardian has no draft registrations there.
func (s *SQLiteStore) LoadDraft(ctx context.Context, key models.DraftKey) (*models.Draft, error) {
	guardian, err := getGuardianBy(ctx, s.db, "id = ?", key.GuardianID)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	details, err := s.ListDraftRegistrations(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, nil
	}

	draft := &models.Draft{Guardian: *guardian}
	for _, d := range details {
		if d.DraftStep > draft.CurrentStep {
			draft.CurrentStep = d.DraftStep
		}
		clientID := d.ClientTempID
		if clientID == "" {
			clientID = d.Player.ID
		}
		draft.Players = append(draft.Players, models.DraftPlayer{
			ClientID: clientID,
			Player:   d.Player,
			Division: d.Division,
		})
	}
	return draft, nil
}

// ListDraftRegistrations returns a guardian's draft registrations for a club season.
func (s *SQLiteStore) ListDraftRegistrations(ctx context.Context, key models.DraftKey) ([]models.RegistrationDetails, error) {
	return s.queryDetails(ctx,
		"p.guardian_id = ? AND r.club_id = ? AND r.season = ? AND r.status = ?",
		key.GuardianID, key.ClubID, key.Season, string(models.StatusDraft),
	)
}
