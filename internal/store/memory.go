// internal/store/memory.go
//
// In-memory implementation of the session Store interface.
// Active games are never written anywhere else: a restart or a reload that
// forgets the game id discards the game.
//
// Characteristics:
//   - Stores *session.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Delete, Prune and Close tear sessions down (timers stopped, subscribers released).
//   - Prune drops sessions nobody has touched for a while.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/memory-game/internal/session"
)

// ErrNotFound is returned by Get and Delete for unknown IDs.
var ErrNotFound = errors.New("not found")

// Store defines the registry of active sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *session.Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes a session and closes it.
	Delete(ctx context.Context, id string) error

	// Prune removes and closes sessions idle for at least maxIdle. Returns how many.
	Prune(now time.Time, maxIdle time.Duration) int

	// Len reports the number of active sessions.
	Len() int

	// Close closes every session and empties the store.
	Close()
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex                // guards sessions map
	sessions map[string]*session.Session // keyed by Session.ID()
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*session.Session)}
}

// Save adds or replaces the session. A replaced session is closed.
func (m *memory) Save(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	old := m.sessions[s.ID()]
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	if old != nil && old != s {
		old.Close()
	}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

func (m *memory) Prune(now time.Time, maxIdle time.Duration) int {
	var stale []*session.Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.IdleFor(now) >= maxIdle {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memory) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*session.Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
