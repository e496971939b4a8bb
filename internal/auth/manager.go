package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"eve/internal/transport"
	"eve/pkg/logging"
)

// Request is an API call made on behalf of a session. Path is relative to the
// session's server and may carry a query string.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Authenticator obtains tokens. Required.
	Authenticator Authenticator

	// Sender issues API requests. Required.
	Sender Sender

	// Store holds live sessions. Defaults to a new MemoryStore.
	Store *MemoryStore

	// Persister, when set, receives every new token and is cleared on
	// eviction. Used by the CLI; the proxy leaves it nil.
	Persister Persister

	// NewSessionID generates session ids. Defaults to random UUIDs.
	NewSessionID func() string

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Observer receives lifecycle events. Optional.
	Observer Observer
}

// Observer is notified of session lifecycle events. Calls happen on the
// request path and must not block.
type Observer interface {
	TokenIssued(kind CredentialKind)
	TokenRefreshed(kind CredentialKind)
	SessionEvicted(reason string)
}

type nopObserver struct{}

func (nopObserver) TokenIssued(CredentialKind)    {}
func (nopObserver) TokenRefreshed(CredentialKind) {}
func (nopObserver) SessionEvicted(string)         {}

// Manager owns the session lifecycle: it hands out valid tokens, executes
// requests with a single refresh-and-retry on 401, and evicts sessions that
// cannot be repaired.
type Manager struct {
	authn     Authenticator
	sender    Sender
	store     *MemoryStore
	persister Persister
	newID     func() string
	now       func() time.Time
	observer  Observer
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Authenticator == nil {
		return nil, errors.New("authenticator is required")
	}
	if cfg.Sender == nil {
		return nil, errors.New("sender is required")
	}
	m := &Manager{
		authn:     cfg.Authenticator,
		sender:    cfg.Sender,
		store:     cfg.Store,
		persister: cfg.Persister,
		newID:     cfg.NewSessionID,
		now:       cfg.Clock,
		observer:  cfg.Observer,
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.observer == nil {
		m.observer = nopObserver{}
	}
	return m, nil
}

// Store returns the session store.
func (m *Manager) Store() *MemoryStore {
	return m.store
}

// Authenticate creates a session by authenticating cred against server.
// A pre-issued bearer token is accepted as-is. Nothing is registered when
// authentication fails. The persisted token is never consulted: it carries
// no identity, so a new token always replaces it.
func (m *Manager) Authenticate(ctx context.Context, server string, cred Credential) (*Session, error) {
	if strings.TrimSpace(server) == "" {
		return nil, errors.New("server is required")
	}
	if err := ValidateCredential(cred); err != nil {
		return nil, err
	}

	now := m.now()
	s := newSession(m.newID(), server, cred, now)
	s.persistent = m.persister != nil && cred.Refreshable()

	switch {
	case cred.Kind() == KindBearer:
		tok := Token{
			AccessToken: cred.(PreissuedBearer).Token,
			IssuedAt:    normalizeTime(now),
			Server:      server,
		}
		if exp, ok := bearerExpiry(tok.AccessToken); ok {
			if !exp.After(tok.IssuedAt) {
				return nil, fmt.Errorf("%w: bearer token expired at %s", ErrInvalidCredential, exp.Format(TimestampLayout))
			}
			tok.ExpiresAt = exp
		}
		s.publish(tok, false, now)

	default:
		tok, err := m.authn.Authenticate(ctx, server, cred)
		if err != nil {
			return nil, err
		}
		s.publish(tok, false, now)
		m.persist(s, tok)
		m.observer.TokenIssued(cred.Kind())
	}

	m.store.Put(s)
	logging.Audit("session_created", "Session authenticated",
		"session_id", s.id, "server", server, "auth_method", string(cred.Kind()))
	return s, nil
}

// Resume opens a session from the persisted token alone. The session is not
// refreshable; once the token expires the caller must authenticate again.
func (m *Manager) Resume(server string) (*Session, error) {
	if m.persister == nil {
		return nil, ErrNoCachedToken
	}
	now := m.now()
	tok, ok := m.persister.Load(server)
	if !ok {
		return nil, ErrNoCachedToken
	}
	if !tok.Valid(now) {
		if err := m.persister.Clear(); err != nil {
			logging.Warn("Auth", "Failed to clear expired token record: %v", err)
		}
		return nil, fmt.Errorf("%w: cached token expired at %s", ErrNoCachedToken, tok.ExpiresAt.Format(TimestampLayout))
	}

	s := newSession(m.newID(), server, PreissuedBearer{Token: tok.AccessToken}, now)
	s.persistent = true
	s.publish(tok, false, now)
	m.store.Put(s)
	return s, nil
}

// Session looks up a live session.
func (m *Manager) Session(id string) (*Session, error) {
	s, ok := m.store.Get(id)
	if !ok || s.Evicted() {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetToken returns the session's token if it has not expired, otherwise
// re-authenticates once. A failed re-authentication evicts the session and
// returns *SessionExpiredError.
func (m *Manager) GetToken(ctx context.Context, s *Session) (Token, error) {
	tok, _, err := m.getToken(ctx, s)
	return tok, err
}

func (m *Manager) getToken(ctx context.Context, s *Session) (Token, uint64, error) {
	if s.Evicted() {
		return Token{}, 0, &SessionExpiredError{SessionID: s.id, Err: errSessionEvicted}
	}

	tok, gen, ok := s.snapshot()
	if ok && tok.Valid(m.now()) {
		return tok, gen, nil
	}

	if !s.credential.Refreshable() {
		m.evict(s, "token_expired")
		return Token{}, 0, &SessionExpiredError{SessionID: s.id, Err: errors.New("token expired and credential cannot be refreshed")}
	}

	tok, gen, err := m.refresh(ctx, s, gen)
	if err != nil {
		if isTransport(err) {
			return Token{}, 0, err
		}
		m.evict(s, "refresh_failed")
		return Token{}, 0, &SessionExpiredError{SessionID: s.id, Err: err}
	}
	return tok, gen, nil
}

// Refresh forces a new token for s regardless of expiry.
func (m *Manager) Refresh(ctx context.Context, s *Session) (Token, error) {
	if s.Evicted() {
		return Token{}, &SessionExpiredError{SessionID: s.id, Err: errSessionEvicted}
	}
	if !s.credential.Refreshable() {
		return Token{}, fmt.Errorf("%w: %s sessions cannot be refreshed", ErrInvalidCredential, s.credential.Kind())
	}
	_, gen, _ := s.snapshot()
	tok, _, err := m.refresh(ctx, s, gen)
	if err != nil {
		if isTransport(err) {
			return Token{}, err
		}
		m.evict(s, "refresh_failed")
		return Token{}, &SessionExpiredError{SessionID: s.id, Err: err}
	}
	return tok, nil
}

// refresh re-authenticates s unless another caller already replaced the
// token observed at generation seen. Only one refresh runs per session; the
// others wait and reuse its result.
func (m *Manager) refresh(ctx context.Context, s *Session, seen uint64) (Token, uint64, error) {
	if err := s.refreshSem.Acquire(ctx, 1); err != nil {
		return Token{}, 0, transport.Classify(err, s.server)
	}
	defer s.refreshSem.Release(1)

	if s.Evicted() {
		return Token{}, 0, errSessionEvicted
	}

	if tok, gen, ok := s.snapshot(); ok && gen != seen && tok.Valid(m.now()) {
		logging.Debug("Auth", "Session %s already refreshed by a concurrent caller", s.id)
		return tok, gen, nil
	}

	logging.Debug("Auth", "Refreshing token for session %s (%s)", s.id, s.credential.Kind())
	tok, err := m.authn.Authenticate(ctx, s.server, s.credential)
	if err != nil {
		logging.Warn("Auth", "Token refresh failed for session %s: %v", s.id, err)
		return Token{}, 0, err
	}

	gen, ok := s.publish(tok, true, m.now())
	if !ok {
		return Token{}, 0, errSessionEvicted
	}
	m.persist(s, tok)
	m.observer.TokenRefreshed(s.credential.Kind())
	logging.Audit("token_refreshed", "Session token refreshed",
		"session_id", s.id, "server", s.server, "expires", tok.ExpiresAt.Format(TimestampLayout))
	return tok, gen, nil
}

// Execute performs method on path with the session's bearer token.
// See Do.
func (m *Manager) Execute(ctx context.Context, s *Session, method, path string, body []byte) (*transport.Response, error) {
	return m.Do(ctx, s, Request{Method: method, Path: path, Body: body})
}

// Do sends req with the session's token. A 401 triggers one refresh and one
// retry for refreshable sessions; a second 401 or a failed refresh evicts the
// session with *ReauthenticationRequiredError. Every other status, including
// 4xx and 5xx, is returned unchanged with a nil error.
func (m *Manager) Do(ctx context.Context, s *Session, req Request) (*transport.Response, error) {
	tok, gen, err := m.getToken(ctx, s)
	if err != nil {
		return nil, err
	}

	resp, err := m.send(ctx, s, req, tok)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized {
		return resp, nil
	}

	if !s.credential.Refreshable() {
		m.evict(s, "unauthorized")
		return nil, &ReauthenticationRequiredError{SessionID: s.id, Status: resp.Status}
	}

	logging.Info("Auth", "Request %s %s returned 401 for session %s, refreshing token", req.Method, req.Path, s.id)
	tok, _, err = m.refresh(ctx, s, gen)
	if err != nil {
		if isTransport(err) {
			return nil, err
		}
		m.evict(s, "refresh_failed")
		return nil, &ReauthenticationRequiredError{SessionID: s.id, Err: err}
	}

	resp, err = m.send(ctx, s, req, tok)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusUnauthorized {
		m.evict(s, "unauthorized_after_refresh")
		return nil, &ReauthenticationRequiredError{SessionID: s.id, Status: resp.Status}
	}
	return resp, nil
}

func (m *Manager) send(ctx context.Context, s *Session, req Request, tok Token) (*transport.Response, error) {
	header := http.Header{}
	for k, vs := range req.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	header.Set("Authorization", "Bearer "+tok.AccessToken)
	if header.Get("Accept") == "" {
		header.Set("Accept", "application/json")
	}
	if req.Body != nil && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	return m.sender.Send(ctx, req.Method, joinURL(s.server, req.Path), header, req.Body)
}

// Logout evicts s and clears any persisted token.
func (m *Manager) Logout(s *Session) error {
	m.evict(s, "logout")
	if s.persistent {
		return m.persister.Clear()
	}
	return nil
}

// ClearPersisted removes the persisted token without a live session.
func (m *Manager) ClearPersisted() error {
	if m.persister == nil {
		return nil
	}
	return m.persister.Clear()
}

// Status reports the session's token state.
func (m *Manager) Status(s *Session) SessionStatus {
	return s.status(m.now())
}

// evict removes s from the store and clears the persisted record. Only the
// first eviction of a session has effects.
func (m *Manager) evict(s *Session, reason string) {
	if !s.markEvicted() {
		return
	}
	m.store.Delete(s)
	if s.persistent {
		if err := m.persister.Clear(); err != nil {
			logging.Warn("Auth", "Failed to clear persisted token for session %s: %v", s.id, err)
		}
	}
	m.observer.SessionEvicted(reason)
	logging.Audit("session_evicted", "Session evicted",
		"session_id", s.id, "server", s.server, "reason", reason)
}

func (m *Manager) persist(s *Session, tok Token) {
	if !s.persistent || tok.ExpiresAt.IsZero() {
		return
	}
	if err := m.persister.Save(tok); err != nil {
		logging.Warn("Auth", "Failed to persist token for %s: %v", tok.Server, err)
	}
}

func isTransport(err error) bool {
	var te *transport.TransportError
	return errors.As(err, &te)
}
