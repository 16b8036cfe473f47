// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: pragmas apply everywhere and writers never see SQLITE_BUSY.
	// Code running inside a transaction must only use the tx.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertClub creates a club or replaces the one with the same slug.
func (s *SQLiteStore) UpsertClub(ctx context.Context, club *models.Club) error {
	if club.ID == "" {
		club.ID = uuid.New().String()
	}
	if club.CreatedAt == 0 {
		club.CreatedAt = s.now().Unix()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO clubs (id, slug, name, contact_email, club_dues_cents, flag_fee_cents,
			contact_fee_cents, current_season, practice_location, practice_schedule, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			contact_email = excluded.contact_email,
			club_dues_cents = excluded.club_dues_cents,
			flag_fee_cents = excluded.flag_fee_cents,
			contact_fee_cents = excluded.contact_fee_cents,
			current_season = excluded.current_season,
			practice_location = excluded.practice_location,
			practice_schedule = excluded.practice_schedule
		RETURNING id, created_at`,
		club.ID, club.Slug, club.Name, club.ContactEmail, club.ClubDuesCents, club.Fees.Flag,
		club.Fees.Contact, club.CurrentSeason, nullString(club.PracticeLocation),
		nullString(club.PracticeSchedule), club.CreatedAt,
	).Scan(&club.ID, &club.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert club: %w", err)
	}
	return nil
}

const clubColumns = `id, slug, name, contact_email, club_dues_cents, flag_fee_cents,
	contact_fee_cents, current_season, practice_location, practice_schedule, created_at`

// GetClub retrieves a club by ID.
func (s *SQLiteStore) GetClub(ctx context.Context, clubID string) (*models.Club, error) {
	return s.getClub(ctx, "id", clubID)
}

// GetClubBySlug retrieves a club by its URL slug.
func (s *SQLiteStore) GetClubBySlug(ctx context.Context, slug string) (*models.Club, error) {
	return s.getClub(ctx, "slug", slug)
}

func (s *SQLiteStore) getClub(ctx context.Context, column, value string) (*models.Club, error) {
	club := &models.Club{}
	var location, schedule sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT "+clubColumns+" FROM clubs WHERE "+column+" = ?", value,
	).Scan(&club.ID, &club.Slug, &club.Name, &club.ContactEmail, &club.ClubDuesCents,
		&club.Fees.Flag, &club.Fees.Contact, &club.CurrentSeason, &location, &schedule, &club.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("club %s: %w", value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	club.PracticeLocation = location.String
	club.PracticeSchedule = schedule.String
	return club, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// placeholders returns "?, ?, ?" for n arguments.
// Used for building IN clauses with multiple placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// stringArgs converts ids to []interface{} for QueryContext.
func stringArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
