// Package ivr implements the IVR session state machine: session
// lifecycle, menu-option dispatch, prompt synthesis, and recording
// capture routing.
package ivr

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Menu is the caller's logical position in the call tree.
type Menu string

const (
	MenuMain    Menu = "main"
	MenuSales   Menu = "sales"
	MenuSupport Menu = "support"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is one caller's traversal through the IVR menu tree.
type Session struct {
	ID              string
	Status          Status
	CurrentMenu     Menu
	AwaitsRecording bool
	CreatedAt       time.Time
	LastActivity    time.Time
}

// sessionEntry wraps a session with its own lock so that concurrent
// requests targeting the same session are serialized without blocking
// requests for other sessions.
type sessionEntry struct {
	mu   sync.Mutex
	sess Session
}

// Store manages in-memory IVR sessions. Sessions are created on call
// start, mutated on each menu transition, and evicted after an idle
// timeout (lazily on access and by a periodic sweep).
type Store struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
	ttl     time.Duration
}

// NewStore creates an empty session store. Sessions idle longer than
// ttl are treated as expired.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
	}
}

// Create allocates a new session with a fresh random ID, positioned at
// the main menu. Allocation never fails.
func (s *Store) Create() Session {
	now := time.Now()
	sess := Session{
		ID:           uuid.NewString(),
		Status:       StatusActive,
		CurrentMenu:  MenuMain,
		CreatedAt:    now,
		LastActivity: now,
	}

	s.mu.Lock()
	s.entries[sess.ID] = &sessionEntry{sess: sess}
	s.mu.Unlock()

	return sess
}

// Get returns a copy of the session with the given ID. Returns false
// if the ID is unknown or the session has sat idle past the TTL.
func (s *Store) Get(sessionID string) (Session, bool) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return Session{}, false
	}

	entry.mu.Lock()
	sess := entry.sess
	entry.mu.Unlock()
	return sess, true
}

// Update applies mutate to the session under its per-session lock and
// stamps LastActivity. Returns ErrSessionNotFound for unknown or
// expired IDs. The mutator must not block; slow external calls belong
// outside the lock.
func (s *Store) Update(sessionID string, mutate func(*Session)) (Session, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	entry.mu.Lock()
	mutate(&entry.sess)
	entry.sess.LastActivity = time.Now()
	sess := entry.sess
	entry.mu.Unlock()
	return sess, nil
}

// lookup finds a live entry, evicting it first if expired.
func (s *Store) lookup(sessionID string) (*sessionEntry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	entry.mu.Lock()
	expired := time.Since(entry.sess.LastActivity) > s.ttl
	entry.mu.Unlock()

	if expired {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return nil, false
	}

	return entry, true
}

// Len returns the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// EvictIdle removes all sessions idle past the TTL and returns how
// many were removed.
func (s *Store) EvictIdle() int {
	now := time.Now()
	removed := 0

	s.mu.Lock()
	for id, entry := range s.entries {
		entry.mu.Lock()
		idle := now.Sub(entry.sess.LastActivity) > s.ttl
		entry.mu.Unlock()
		if idle {
			delete(s.entries, id)
			removed++
		}
	}
	s.mu.Unlock()

	return removed
}

// StartEvictionTicker runs a goroutine that periodically evicts idle
// sessions. It stops when the provided context is cancelled.
func StartEvictionTicker(ctx context.Context, store *Store, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := store.EvictIdle()
				if removed > 0 {
					slog.Debug("evicted idle ivr sessions", "removed", removed)
				}
			}
		}
	}()
}
