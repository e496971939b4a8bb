package auth

import "sync"

// MemoryStore is a thread-safe in-memory session store keyed by session id.
// It only guards the map; each Session guards its own token.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates a new empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Put adds or replaces a session.
func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
}

// Get retrieves a session by id.
func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session. It only removes the exact session instance so a
// late eviction cannot drop a newer session registered under the same id.
func (m *MemoryStore) Delete(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.ID()]; ok && cur == s {
		delete(m.sessions, s.ID())
		return true
	}
	return false
}

// Len returns the number of sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
