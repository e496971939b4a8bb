package auth

import (
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Session binds a server, a credential and the current token.
// The token is replaced wholesale under mu; refreshes are serialized by
// refreshSem so at most one Authenticator call is in flight per session.
type Session struct {
	id         string
	server     string
	credential Credential
	createdAt  time.Time
	// persistent marks sessions whose token lives in the Persister.
	persistent bool

	refreshSem *semaphore.Weighted

	mu          sync.RWMutex
	token       *Token
	generation  uint64
	refreshedAt time.Time
	evicted     bool
}

func newSession(id, server string, cred Credential, now time.Time) *Session {
	return &Session{
		id:         id,
		server:     server,
		credential: cred,
		createdAt:  now,
		refreshSem: semaphore.NewWeighted(1),
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// Server returns the API base URL the session is bound to.
func (s *Session) Server() string { return s.server }

// AuthMethod returns the kind of credential the session was created with.
func (s *Session) AuthMethod() CredentialKind { return s.credential.Kind() }

// Refreshable reports whether the session can re-authenticate on its own.
func (s *Session) Refreshable() bool { return s.credential.Refreshable() }

// snapshot returns the current token and its generation. ok is false when
// no token has been published yet.
func (s *Session) snapshot() (tok Token, gen uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return Token{}, s.generation, false
	}
	return *s.token, s.generation, true
}

// publish installs tok as the current token and returns its generation.
// It is a no-op on an evicted session.
func (s *Session) publish(tok Token, refreshed bool, now time.Time) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return s.generation, false
	}
	t := tok
	s.token = &t
	s.generation++
	if refreshed {
		s.refreshedAt = now
	}
	return s.generation, true
}

// markEvicted drops the token and reports whether this call did the eviction.
func (s *Session) markEvicted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return false
	}
	s.evicted = true
	s.token = nil
	return true
}

// Evicted reports whether the session has been evicted.
func (s *Session) Evicted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

// SessionStatus is a point-in-time view of a session for status output.
type SessionStatus struct {
	SessionID        string         `json:"session_id"`
	Server           string         `json:"server"`
	AuthMethod       CredentialKind `json:"auth_method"`
	Authenticated    bool           `json:"authenticated"`
	CreatedAt        time.Time      `json:"created_at"`
	ExpiresAt        *time.Time     `json:"expires_at,omitempty"`
	ExpiresIn        int64          `json:"expires_in"`
	RefreshAvailable bool           `json:"refresh_available"`
	RefreshedAt      *time.Time     `json:"refreshed_at,omitempty"`
}

func (s *Session) status(now time.Time) SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SessionStatus{
		SessionID:        s.id,
		Server:           s.server,
		AuthMethod:       s.credential.Kind(),
		CreatedAt:        s.createdAt,
		RefreshAvailable: s.credential.Refreshable() && !s.evicted,
	}
	if s.token != nil {
		st.Authenticated = s.token.Valid(now)
		if !s.token.ExpiresAt.IsZero() {
			exp := s.token.ExpiresAt
			st.ExpiresAt = &exp
			st.ExpiresIn = int64(s.token.ExpiresIn(now) / time.Second)
		}
	}
	if !s.refreshedAt.IsZero() {
		r := s.refreshedAt
		st.RefreshedAt = &r
	}
	return st
}
