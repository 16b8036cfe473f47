package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
)

func draftPlayer(clientID, first, dob string, division models.Division) models.DraftPlayer {
	return models.DraftPlayer{
		ClientID: clientID,
		Player: models.Player{
			FirstName:   first,
			LastName:    "Rivera",
			DateOfBirth: dob,
			Gender:      models.GenderMale,
		},
		Division: division,
	}
}

func seedDraft(t *testing.T, store *SQLiteStore) (models.DraftKey, *models.Draft) {
	t.Helper()
	ctx := context.Background()
	club := seedClub(t, store)
	g, err := store.GetOrCreateGuardian(ctx, "user-1", "alex@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateGuardian failed: %v", err)
	}

	key := models.DraftKey{ClubID: club.ID, Season: club.CurrentSeason, GuardianID: g.ID}
	draft := &models.Draft{
		Guardian: models.Guardian{FirstName: "Alex", LastName: "Rivera", Phone: "5551234567"},
		Players: []models.DraftPlayer{
			draftPlayer("tmp-1", "Jo", "2017-03-15", models.DivisionU10),
			draftPlayer("tmp-2", "Max", "2012-06-01", models.DivisionU14),
		},
		CurrentStep: 2,
	}
	if err := store.SaveDraft(ctx, key, draft); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	return key, draft
}

func TestDrafts(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDraft returns what SaveDraft wrote", func(t *testing.T) {
		store := newTestStore(t)
		key, _ := seedDraft(t, store)

		got, err := store.LoadDraft(ctx, key)
		if err != nil {
			t.Fatalf("LoadDraft failed: %v", err)
		}
		if got == nil {
			t.Fatal("Expected a draft")
		}
		if got.CurrentStep != 2 {
			t.Errorf("Expected step 2, got %d", got.CurrentStep)
		}
		if got.Guardian.FirstName != "Alex" || got.Guardian.Email != "alex@example.com" {
			t.Errorf("Unexpected guardian: %+v", got.Guardian)
		}
		if len(got.Players) != 2 {
			t.Fatalf("Expected 2 players, got %d", len(got.Players))
		}
		byClient := map[string]models.DraftPlayer{}
		for _, p := range got.Players {
			byClient[p.ClientID] = p
		}
		if byClient["tmp-1"].Division != models.DivisionU10 || byClient["tmp-2"].Division != models.DivisionU14 {
			t.Errorf("Unexpected divisions: %+v", byClient)
		}
	})

	t.Run("SaveDraft updates matching players in place", func(t *testing.T) {
		store := newTestStore(t)
		key, draft := seedDraft(t, store)

		draft.Players = draft.Players[:1]
		draft.Players[0].Allergies = "peanuts"
		draft.Players[0].HeadshotURL = "https://cdn.example/jo.jpg"
		draft.CurrentStep = 4
		if err := store.SaveDraft(ctx, key, draft); err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}

		regs, err := store.ListDraftRegistrations(ctx, key)
		if err != nil {
			t.Fatalf("ListDraftRegistrations failed: %v", err)
		}
		if len(regs) != 2 {
			t.Fatalf("Expected 2 draft registrations (partial save keeps others), got %d", len(regs))
		}

		got, err := store.LoadDraft(ctx, key)
		if err != nil {
			t.Fatalf("LoadDraft failed: %v", err)
		}
		if got.CurrentStep != 4 {
			t.Errorf("Expected step 4, got %d", got.CurrentStep)
		}
		for _, p := range got.Players {
			if p.ClientID == "tmp-1" && (p.Allergies != "peanuts" || p.HeadshotURL == "") {
				t.Errorf("Expected player fields to be updated, got %+v", p.Player)
			}
		}
	})

	t.Run("SaveDraft follows an edited player by client id", func(t *testing.T) {
		store := newTestStore(t)
		key, draft := seedDraft(t, store)
		before, _ := store.ListDraftRegistrations(ctx, key)

		draft.Players[0].FirstName = "Adam"
		draft.Players[0].DateOfBirth = "2019-03-15"
		draft.Players[0].Division = models.DivisionU8
		if err := store.SaveDraft(ctx, key, draft); err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}

		regs, err := store.ListDraftRegistrations(ctx, key)
		if err != nil {
			t.Fatalf("ListDraftRegistrations failed: %v", err)
		}
		if len(regs) != 2 {
			t.Fatalf("Expected 2 draft registrations after edit, got %d", len(regs))
		}
		ids := map[string]bool{}
		for _, r := range before {
			ids[r.ID] = true
		}
		for _, r := range regs {
			if !ids[r.ID] {
				t.Errorf("Expected registration %s to be reused, not inserted", r.ID)
			}
		}

		got, err := store.LoadDraft(ctx, key)
		if err != nil {
			t.Fatalf("LoadDraft failed: %v", err)
		}
		var matches []models.DraftPlayer
		for _, p := range got.Players {
			if p.ClientID == "tmp-1" {
				matches = append(matches, p)
			}
		}
		if len(matches) != 1 {
			t.Fatalf("Expected one player for tmp-1, got %d", len(matches))
		}
		p := matches[0]
		if p.FirstName != "Adam" || p.DateOfBirth != "2019-03-15" || p.Division != models.DivisionU8 {
			t.Errorf("Expected edited player, got %+v (%s)", p.Player, p.Division)
		}
	})

	t.Run("SaveDraft keeps earlier seasons when a player is edited", func(t *testing.T) {
		store := newTestStore(t)
		key, draft := seedDraft(t, store)
		regs, _ := store.ListDraftRegistrations(ctx, key)
		var jo models.RegistrationDetails
		for _, r := range regs {
			if r.ClientTempID == "tmp-1" {
				jo = r
			}
		}
		if _, err := store.db.ExecContext(ctx, `
			INSERT INTO registrations (id, player_id, club_id, season, division, status, created_at, updated_at)
			VALUES ('reg-last-season', ?, ?, '2024-2025', 'U10', 'complete', 0, 0)`,
			jo.Player.ID, key.ClubID); err != nil {
			t.Fatalf("Failed to insert earlier season: %v", err)
		}

		draft.Players[0].FirstName = "Joe"
		if err := store.SaveDraft(ctx, key, draft); err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}

		old, err := store.GetRegistrationDetails(ctx, []string{"reg-last-season"})
		if err != nil || len(old) != 1 {
			t.Fatalf("GetRegistrationDetails failed: %v", err)
		}
		if old[0].Player.FirstName != "Jo" {
			t.Errorf("Expected earlier season to keep the old name, got %q", old[0].Player.FirstName)
		}

		got, err := store.LoadDraft(ctx, key)
		if err != nil {
			t.Fatalf("LoadDraft failed: %v", err)
		}
		count := 0
		for _, p := range got.Players {
			if p.ClientID == "tmp-1" {
				count++
				if p.FirstName != "Joe" {
					t.Errorf("Expected Joe, got %q", p.FirstName)
				}
			}
		}
		if count != 1 {
			t.Errorf("Expected one player for tmp-1, got %d", count)
		}
	})

	t.Run("SaveDraft leaves paid registrations alone", func(t *testing.T) {
		store := newTestStore(t)
		key, draft := seedDraft(t, store)

		regs, _ := store.ListDraftRegistrations(ctx, key)
		if _, err := store.db.ExecContext(ctx,
			"UPDATE registrations SET status = 'paid' WHERE id = ?", regs[0].ID); err != nil {
			t.Fatalf("Failed to mark paid: %v", err)
		}

		for i := range draft.Players {
			draft.Players[i].Division = models.DivisionAdult
		}
		if err := store.SaveDraft(ctx, key, draft); err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}

		details, err := store.GetRegistrationDetails(ctx, []string{regs[0].ID})
		if err != nil {
			t.Fatalf("GetRegistrationDetails failed: %v", err)
		}
		if details[0].Status != models.StatusPaid || details[0].Division == models.DivisionAdult {
			t.Errorf("Expected paid registration untouched, got %+v", details[0].Registration)
		}
	})

	t.Run("LoadDraft with nothing saved returns nil", func(t *testing.T) {
		store := newTestStore(t)
		club := seedClub(t, store)

		got, err := store.LoadDraft(ctx, models.DraftKey{ClubID: club.ID, Season: "2025-2026", GuardianID: "nobody"})
		if err != nil || got != nil {
			t.Errorf("Expected nil, nil for unknown guardian; got %+v, %v", got, err)
		}

		g, _ := store.GetOrCreateGuardian(ctx, "user-9", "new@example.com")
		got, err = store.LoadDraft(ctx, models.DraftKey{ClubID: club.ID, Season: "2025-2026", GuardianID: g.ID})
		if err != nil || got != nil {
			t.Errorf("Expected nil, nil for guardian without drafts; got %+v, %v", got, err)
		}
	})
}

func TestRegistrations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	key, _ := seedDraft(t, store)
	regs, err := store.ListDraftRegistrations(ctx, key)
	if err != nil {
		t.Fatalf("ListDraftRegistrations failed: %v", err)
	}

	t.Run("ListRegistrations filters by division", func(t *testing.T) {
		got, err := store.ListRegistrations(ctx, key.ClubID, key.Season,
			storage.RegistrationFilter{Division: models.DivisionU14})
		if err != nil {
			t.Fatalf("ListRegistrations failed: %v", err)
		}
		if len(got) != 1 || got[0].Player.FirstName != "Max" {
			t.Errorf("Expected Max only, got %+v", got)
		}
	})

	t.Run("UpdateRegistrationStatus follows the lifecycle", func(t *testing.T) {
		id := regs[0].ID
		if err := store.UpdateRegistrationStatus(ctx, key.ClubID, id, models.StatusWaitlist, "full"); err != nil {
			t.Fatalf("draft -> waitlist failed: %v", err)
		}

		err := store.UpdateRegistrationStatus(ctx, key.ClubID, id, models.StatusVerified, "")
		if !errors.Is(err, storage.ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition for waitlist -> verified, got %v", err)
		}

		got, _ := store.GetRegistrationDetails(ctx, []string{id})
		if got[0].Status != models.StatusWaitlist || got[0].Notes != "full" {
			t.Errorf("Unexpected registration: %+v", got[0].Registration)
		}
	})

	t.Run("UpdateRegistrationStatus never sets paid", func(t *testing.T) {
		err := store.UpdateRegistrationStatus(ctx, key.ClubID, regs[1].ID, models.StatusPaid, "")
		if !errors.Is(err, storage.ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("UpdateRegistrationStatus checks club ownership", func(t *testing.T) {
		err := store.UpdateRegistrationStatus(ctx, "other-club", regs[1].ID, models.StatusCancelled, "")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
