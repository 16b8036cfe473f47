package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubreg/portal/internal/metrics"
	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/wizard"
)

func newWizard(club *models.Club) *wizard.Wizard {
	return wizard.New(wizard.Config{Club: *club})
}

func TestSessionsOwnership(t *testing.T) {
	s := NewSessions(time.Hour)
	club := &models.Club{ID: "club-1", CurrentSeason: "2025-2026"}

	sess := s.add("user-1", club, newWizard(club))
	got, err := s.get(sess.id, "user-1")
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = s.get(sess.id, "user-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.get(sess.id, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, s.remove(sess.id, "user-2"), ErrSessionNotFound)
	require.NoError(t, s.remove(sess.id, "user-1"))
	assert.Equal(t, 0, s.Len())
}

func TestSessionsReplaceSameGuardianAndClub(t *testing.T) {
	s := NewSessions(time.Hour)
	club := &models.Club{ID: "club-1"}
	other := &models.Club{ID: "club-2"}

	first := s.add("user-1", club, newWizard(club))
	s.add("user-1", other, newWizard(other))
	second := s.add("user-1", club, newWizard(club))

	_, err := s.get(first.id, "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = first.wizard.Navigate(wizard.Next)
	assert.ErrorIs(t, err, wizard.ErrClosed)

	_, err = s.get(second.id, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	// Anonymous sessions never replace each other.
	s.add("", club, newWizard(club))
	s.add("", club, newWizard(club))
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.ActiveSessions))
}

func TestSessionsRelease(t *testing.T) {
	s := NewSessions(time.Hour)
	club := &models.Club{ID: "club-1"}
	other := &models.Club{ID: "club-2"}

	old := s.add("user-1", club, newWizard(club))
	keep := s.add("user-1", other, newWizard(other))
	anon := s.add("", club, newWizard(club))

	assert.Equal(t, 0, s.release("", club.ID))
	assert.Equal(t, 1, s.release("user-1", club.ID))
	_, err := old.wizard.Navigate(wizard.Next)
	assert.ErrorIs(t, err, wizard.ErrClosed)

	_, err = s.get(keep.id, "user-1")
	assert.NoError(t, err)
	_, err = s.get(anon.id, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestSessionsSweep(t *testing.T) {
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	s := NewSessions(30 * time.Minute)
	s.now = func() time.Time { return now }
	club := &models.Club{ID: "club-1"}

	idle := s.add("user-1", club, newWizard(club))
	now = now.Add(20 * time.Minute)
	busy := s.add("user-2", club, newWizard(club))

	now = now.Add(15 * time.Minute)
	// Touching a session refreshes it.
	_, err := s.get(busy.id, "user-2")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Sweep())
	_, err = s.get(idle.id, "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = idle.wizard.Navigate(wizard.Next)
	assert.ErrorIs(t, err, wizard.ErrClosed)

	now = now.Add(29 * time.Minute)
	assert.Equal(t, 0, s.Sweep())
	assert.Equal(t, 1, s.Len())

	s.CloseAll()
	assert.Equal(t, 0, s.Len())
}
