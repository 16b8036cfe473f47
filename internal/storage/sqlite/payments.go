package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
)

// ListPaymentsByClub returns the club's ledger, newest first.
func (s *SQLiteStore) ListPaymentsByClub(ctx context.Context, clubID string) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, registration_id, club_id, guardian_id, total_amount_cents, club_portion_cents,
			governing_body_portion_cents, platform_fee_cents, payment_ref, status, created_at
		 FROM payments WHERE club_id = ?
		 ORDER BY created_at DESC, id`,
		clubID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		var status string
		if err := rows.Scan(&p.ID, &p.RegistrationID, &p.ClubID, &p.GuardianID, &p.TotalAmountCents,
			&p.ClubPortionCents, &p.GoverningBodyPortionCents, &p.PlatformFeeCents, &p.PaymentRef,
			&status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Status = models.PaymentStatus(status)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// CommitCheckout applies a completed checkout atomically.
//
// The payment reference is claimed first so a redelivered event is rejected
// with storage.ErrAlreadyProcessed before anything else is written. Every
// registration id must exist or the whole transaction is rolled back.
// Each registration records the total charged for the checkout. Registrations
// already past draft keep their status; waitlisted and cancelled ones are
// promoted to paid because money was taken for them, and are listed in
// c.Reopened.
func (s *SQLiteStore) CommitCheckout(ctx context.Context, c *storage.CheckoutCompletion) error {
	if c.PaymentRef == "" {
		return fmt.Errorf("commit checkout: empty payment reference")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO processed_events (payment_ref, registration_ids, amount_cents, processed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(payment_ref) DO NOTHING`,
		c.PaymentRef, strings.Join(c.RegistrationIDs, ","), c.AmountCents, c.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to claim payment reference: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrAlreadyProcessed
	}

	if len(c.RegistrationIDs) > 0 {
		var found int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM registrations WHERE id IN ("+placeholders(len(c.RegistrationIDs))+")",
			stringArgs(c.RegistrationIDs)...,
		).Scan(&found)
		if err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		if found != len(c.RegistrationIDs) {
			return fmt.Errorf("checkout %s references %d registrations, found %d: %w",
				c.PaymentRef, len(c.RegistrationIDs), found, storage.ErrNotFound)
		}
	}

	c.Reopened = nil
	if len(c.RegistrationIDs) > 0 {
		args := append([]any{string(models.StatusWaitlist), string(models.StatusCancelled)}, stringArgs(c.RegistrationIDs)...)
		rows, err := tx.QueryContext(ctx,
			"SELECT id FROM registrations WHERE status IN (?, ?) AND id IN ("+placeholders(len(c.RegistrationIDs))+")",
			args...,
		)
		if err != nil {
			return fmt.Errorf("failed to check registration statuses: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan registration id: %w", err)
			}
			c.Reopened = append(c.Reopened, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate registrations: %w", err)
		}
	}

	now := s.now().Unix()
	for _, id := range c.RegistrationIDs {
		_, err = tx.ExecContext(ctx, `
			UPDATE registrations
			SET status = ?, club_dues_paid = 1, payment_amount_cents = ?, payment_ref = ?,
				payment_date = ?, updated_at = ?
			WHERE id = ? AND status IN (?, ?, ?)`,
			string(models.StatusPaid), c.AmountCents, c.PaymentRef, c.PaidAt, now,
			id, string(models.StatusDraft), string(models.StatusWaitlist), string(models.StatusCancelled),
		)
		if err != nil {
			return fmt.Errorf("failed to mark registration %s paid: %w", id, err)
		}
	}

	for i := range c.Ledger {
		p := &c.Ledger[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt == 0 {
			p.CreatedAt = now
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (id, registration_id, club_id, guardian_id, total_amount_cents,
				club_portion_cents, governing_body_portion_cents, platform_fee_cents, payment_ref,
				status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.RegistrationID, p.ClubID, p.GuardianID, p.TotalAmountCents,
			p.ClubPortionCents, p.GoverningBodyPortionCents, p.PlatformFeeCents, c.PaymentRef,
			string(p.Status), p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment for %s: %w", p.RegistrationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClaimNotification marks the confirmation for paymentRef as sent.
// It returns true only for the first caller.
func (s *SQLiteStore) ClaimNotification(ctx context.Context, paymentRef string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE processed_events SET notified_at = ? WHERE payment_ref = ? AND notified_at IS NULL",
		s.now().Unix(), paymentRef,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}
	return n == 1, nil
}
