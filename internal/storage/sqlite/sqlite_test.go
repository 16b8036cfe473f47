package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
)

var testNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	store.now = func() time.Time { return testNow }
	t.Cleanup(func() { store.Close() })
	return store
}

func seedClub(t *testing.T, store *SQLiteStore) *models.Club {
	t.Helper()
	club := &models.Club{
		Slug:          "stingrays",
		Name:          "Stingrays Youth Football",
		ContactEmail:  "info@stingrays.example",
		ClubDuesCents: 17500,
		Fees:          models.FeeSchedule{Flag: 3000, Contact: 4000},
		CurrentSeason: "2025-2026",
	}
	if err := store.UpsertClub(context.Background(), club); err != nil {
		t.Fatalf("UpsertClub failed: %v", err)
	}
	return club
}

func TestClubs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	club := seedClub(t, store)

	t.Run("UpsertClub generates ID", func(t *testing.T) {
		if club.ID == "" {
			t.Error("Expected club ID to be generated")
		}
		if club.CreatedAt != testNow.Unix() {
			t.Errorf("Expected CreatedAt %d, got %d", testNow.Unix(), club.CreatedAt)
		}
	})

	t.Run("UpsertClub keeps ID on slug conflict", func(t *testing.T) {
		again := *club
		again.ID = ""
		again.ClubDuesCents = 20000
		if err := store.UpsertClub(ctx, &again); err != nil {
			t.Fatalf("UpsertClub failed: %v", err)
		}
		if again.ID != club.ID {
			t.Errorf("Expected ID %s, got %s", club.ID, again.ID)
		}

		got, err := store.GetClubBySlug(ctx, "stingrays")
		if err != nil {
			t.Fatalf("GetClubBySlug failed: %v", err)
		}
		if got.ClubDuesCents != 20000 {
			t.Errorf("Expected dues 20000, got %d", got.ClubDuesCents)
		}
		if got.Fees != club.Fees {
			t.Errorf("Expected fees %+v, got %+v", club.Fees, got.Fees)
		}
	})

	t.Run("GetClub unknown returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetClub(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestGuardians(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("GetOrCreateGuardian creates then reuses", func(t *testing.T) {
		first, err := store.GetOrCreateGuardian(ctx, "user-1", "pat@example.com")
		if err != nil {
			t.Fatalf("GetOrCreateGuardian failed: %v", err)
		}
		if first.ID == "" || first.UserID != "user-1" || first.Country != "US" {
			t.Errorf("Unexpected guardian: %+v", first)
		}

		second, err := store.GetOrCreateGuardian(ctx, "user-1", "pat@example.com")
		if err != nil {
			t.Fatalf("GetOrCreateGuardian failed: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("Expected same guardian, got %s and %s", first.ID, second.ID)
		}
	})

	t.Run("GetOrCreateGuardian links an unlinked email match", func(t *testing.T) {
		tx, err := store.db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx failed: %v", err)
		}
		legacy := &models.Guardian{ID: "legacy", Email: "sam@example.com", FirstName: "Sam", LastName: "Lee"}
		if err := upsertGuardianTx(ctx, tx, legacy, testNow.Unix()); err != nil {
			t.Fatalf("upsertGuardianTx failed: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		g, err := store.GetOrCreateGuardian(ctx, "user-2", "sam@example.com")
		if err != nil {
			t.Fatalf("GetOrCreateGuardian failed: %v", err)
		}
		if g.ID != "legacy" || g.UserID != "user-2" || g.FirstName != "Sam" {
			t.Errorf("Expected legacy guardian to be linked, got %+v", g)
		}
	})

	t.Run("GetGuardian unknown returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGuardian(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestClubAdmins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	club := seedClub(t, store)

	admin := &models.ClubAdmin{
		ClubID: club.ID,
		UserID: "vol-1",
		Email:  "vol@example.com",
		Role:   models.RoleVolunteer,
		Permissions: map[models.AdminPermission]bool{
			models.PermViewRegistrations: true,
			models.PermExportData:        false,
		},
	}
	if err := store.UpsertClubAdmin(ctx, admin); err != nil {
		t.Fatalf("UpsertClubAdmin failed: %v", err)
	}

	got, err := store.GetClubAdmin(ctx, club.ID, "vol-1")
	if err != nil {
		t.Fatalf("GetClubAdmin failed: %v", err)
	}
	if !got.Can(models.PermViewRegistrations) {
		t.Error("Expected view permission to round-trip")
	}
	if got.Can(models.PermExportData) || got.Can(models.PermManageStatus) {
		t.Error("Expected only granted permissions")
	}

	if _, err := store.GetClubAdmin(ctx, club.ID, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
