package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clubreg/portal/internal/metrics"
	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/wizard"
)

// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
var ErrSessionNotFound = errors.New("registration session not found")

// session is one open wizard.
type session struct {
	id     string
	userID string
	club   *models.Club
	wizard *wizard.Wizard

	// lastSeen is guarded by Sessions.mu.
	lastSeen time.Time
}

const flushTimeout = 5 * time.Second

// close saves pending edits, then stops the wizard.
func (sess *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := sess.wizard.Flush(ctx); err != nil && !errors.Is(err, wizard.ErrClosed) {
		slog.Warn("Failed to save draft on session close", "session_id", sess.id, "error", err)
	}
	sess.wizard.Close()
}

// Sessions holds open wizards in memory and evicts idle ones.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	byID map[string]*session
}

// NewSessions creates a registry that evicts sessions idle for longer than ttl.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:  ttl,
		now:  time.Now,
		byID: make(map[string]*session),
	}
}

// add registers a wizard and returns its session.
// A signed-in guardian holds at most one session per club, so two wizards
// never auto-save the same draft. The older one is closed.
func (s *Sessions) add(userID string, club *models.Club, w *wizard.Wizard) *session {
	sess := &session{
		id:     uuid.New().String(),
		userID: userID,
		club:   club,
		wizard: w,
	}

	var replaced []*session
	s.mu.Lock()
	if userID != "" {
		for id, other := range s.byID {
			if other.userID == userID && other.club.ID == club.ID {
				delete(s.byID, id)
				replaced = append(replaced, other)
			}
		}
	}
	sess.lastSeen = s.now()
	s.byID[sess.id] = sess
	metrics.ActiveSessions.Set(float64(len(s.byID)))
	s.mu.Unlock()

	for _, old := range replaced {
		old.close()
		slog.Info("Registration session replaced", "session_id", old.id, "user_id", userID, "club_id", club.ID)
	}
	return sess
}

// release closes the guardian's open sessions for a club, saving their
// pending edits. Call it before loading the draft for a new session so the
// new wizard starts from everything the old one held.
func (s *Sessions) release(userID, clubID string) int {
	if userID == "" {
		return 0
	}
	var released []*session
	s.mu.Lock()
	for id, sess := range s.byID {
		if sess.userID == userID && sess.club.ID == clubID {
			delete(s.byID, id)
			released = append(released, sess)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.byID)))
	s.mu.Unlock()

	for _, sess := range released {
		sess.close()
		slog.Info("Registration session replaced", "session_id", sess.id, "user_id", userID, "club_id", clubID)
	}
	return len(released)
}

// get returns the session if it belongs to userID and refreshes its TTL.
func (s *Sessions) get(id, userID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok || sess.userID != userID || s.expired(sess) {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// remove closes and forgets a session.
func (s *Sessions) remove(id, userID string) error {
	s.mu.Lock()
	sess, ok := s.byID[id]
	if !ok || sess.userID != userID {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.byID, id)
	metrics.ActiveSessions.Set(float64(len(s.byID)))
	s.mu.Unlock()

	sess.close()
	return nil
}

func (s *Sessions) expired(sess *session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl
}

// Sweep closes every expired session and returns how many were evicted.
func (s *Sessions) Sweep() int {
	var evicted []*session
	s.mu.Lock()
	for id, sess := range s.byID {
		if s.expired(sess) {
			delete(s.byID, id)
			evicted = append(evicted, sess)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.byID)))
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.close()
	}
	if len(evicted) > 0 {
		slog.Info("Evicted idle registration sessions", "count", len(evicted))
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// CloseAll saves and closes every session. Used on shutdown.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	all := s.byID
	s.byID = make(map[string]*session)
	metrics.ActiveSessions.Set(0)
	s.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
