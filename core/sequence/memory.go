package sequence

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart; use the Postgres store when persistence matters.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   map[int64]string // userID -> active session ID
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		active:   make(map[int64]string),
	}
}

// Save stores a copy of the session and maintains the per-user active index.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	cp := cloneSession(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[cp.ID] = cp
	if cp.Status == StatusActive {
		m.active[cp.UserID] = cp.ID
	} else if m.active[cp.UserID] == cp.ID {
		delete(m.active, cp.UserID)
	}
	return nil
}

// Active returns a copy of the user's active session.
func (m *MemoryStore) Active(_ context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.active[userID]
	if !ok {
		return nil, ErrNoSession
	}
	s, ok := m.sessions[id]
	if !ok || s.Status != StatusActive {
		return nil, ErrNoSession
	}
	return cloneSession(s), nil
}

// Get returns a copy of the session by ID.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return cloneSession(s), nil
}

func cloneSession(s *Session) *Session {
	cp := *s
	cp.Answers = make([]Answer, len(s.Answers))
	copy(cp.Answers, s.Answers)
	return &cp
}
