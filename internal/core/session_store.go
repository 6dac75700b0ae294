package core

// session_store.go keeps sessions for frontends that serve many users.
//
// Each entry carries its own mutex so messages for one session are applied
// one at a time while different sessions proceed in parallel. Idle entries
// are removed by StartSweeper, which runs until its context is cancelled.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

type sessionEntry struct {
	mu       sync.Mutex
	session  *Session
	lastSeen time.Time
}

// SessionStore maps session IDs to sessions.
type SessionStore struct {
	maxRows int
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewSessionStore creates a store whose sessions preview at most maxRows rows
// and expire after ttl of inactivity.
func NewSessionStore(maxRows int, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		maxRows:  maxRows,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Create registers a new empty session and returns it.
func (st *SessionStore) Create() *Session {
	sess := NewSession(uuid.New().String(), st.maxRows)

	st.mu.Lock()
	st.sessions[sess.ID] = &sessionEntry{session: sess, lastSeen: st.now()}
	st.mu.Unlock()

	slog.Debug("session created", "session_id", sess.ID)
	return sess
}

func (st *SessionStore) entry(id string) (*sessionEntry, error) {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// Dispatch applies msg to the session and returns the new preview.
func (st *SessionStore) Dispatch(id string, msg Msg) (RenderedPreview, error) {
	e, err := st.entry(id)
	if err != nil {
		return RenderedPreview{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = st.now()
	return e.session.Update(msg), nil
}

// View runs fn with exclusive access to the session.
// fn must not retain the session after returning.
func (st *SessionStore) View(id string, fn func(*Session) error) error {
	e, err := st.entry(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = st.now()
	return fn(e.session)
}

// Delete removes a session. Deleting an unknown ID is not an error.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many.
func (st *SessionStore) Sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, e := range st.sessions {
		e.mu.Lock()
		idle := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper removes expired sessions every interval until ctx is done.
func (st *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	slog.Info("session sweeper started", "interval", interval, "ttl", st.ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n, "remaining", st.Len())
			}
		}
	}
}
