package authoring

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("authoring: session not found")

// Manager owns the live authoring sessions. Sessions are in-memory only; a
// draft abandoned past the TTL is swept along with its in-flight uploads.
type Manager struct {
	deps Deps
	ttl  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps, ttl time.Duration) *Manager {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Manager{
		deps:     deps,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Start opens a fresh session for the user and returns it.
func (m *Manager) Start(userID string) *Session {
	s := newSession(userID, m.deps)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.deps.Logger.Info("Authoring session started",
		"session_id", s.ID,
		"user_id", userID,
	)
	return s
}

// Get returns the session if it exists and belongs to the user. Ownership
// mismatches are indistinguishable from absence.
func (m *Manager) Get(sessionID, userID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()

	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove discards a session, aborting any uploads still in flight.
func (m *Manager) Remove(sessionID, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok && s.UserID == userID {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok || s.UserID != userID {
		return ErrSessionNotFound
	}

	s.discard()
	m.deps.Logger.Info("Authoring session discarded",
		"session_id", sessionID,
		"user_id", userID,
	)
	return nil
}

// Sweep runs the idle-session janitor until the context ends. Meant to be
// launched once at startup.
func (m *Manager) Sweep(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepOnce(logger)
		}
	}
}

func (m *Manager) sweepOnce(logger *slog.Logger) {
	cutoff := m.deps.Clock().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.discard()
		logger.Info("Expired idle authoring session",
			"session_id", s.ID,
			"user_id", s.UserID,
		)
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
