package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"eve/internal/transport"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeAuthenticator issues token-1, token-2, ... valid for lifetime.
// failFrom makes every call from that number on return err.
type fakeAuthenticator struct {
	clock    *fakeClock
	lifetime time.Duration
	delay    time.Duration
	gate     chan struct{}

	mu       sync.Mutex
	calls    int
	failFrom int
	err      error
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, server string, _ Credential) (Token, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	var err error
	if f.failFrom > 0 && n >= f.failFrom {
		err = f.err
	}
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return Token{}, ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err != nil {
		return Token{}, err
	}
	issued := f.clock.Now()
	return NewToken(fmt.Sprintf("token-%d", n), server, issued, issued.Add(f.lifetime))
}

func (f *fakeAuthenticator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAuthenticator) FailFrom(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFrom = n
	f.err = err
}

// fakeAPI answers 200 for accepted bearer tokens, 401 otherwise.
type fakeAPI struct {
	*httptest.Server
	hits     atomic.Int64
	mu       sync.Mutex
	accepted map[string]bool
	status   int
}

func newFakeAPI(t *testing.T, accepted ...string) *fakeAPI {
	t.Helper()
	api := &fakeAPI{accepted: map[string]bool{}}
	for _, tok := range accepted {
		api.accepted[tok] = true
	}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.hits.Add(1)
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		api.mu.Lock()
		ok, status := api.accepted[tok], api.status
		api.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) respondWith(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
}

type managerFixture struct {
	clock   *fakeClock
	authn   *fakeAuthenticator
	store   *FileStore
	manager *Manager
}

func newManagerFixture(t *testing.T, persist bool) *managerFixture {
	t.Helper()
	clock := newFakeClock()
	f := &managerFixture{
		clock: clock,
		authn: &fakeAuthenticator{clock: clock, lifetime: time.Hour},
	}
	cfg := ManagerConfig{
		Authenticator: f.authn,
		Sender:        transport.New(transport.Config{Timeout: 2 * time.Second}),
		Clock:         clock.Now,
	}
	if persist {
		f.store = newTestFileStore(t)
		cfg.Persister = f.store
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)
	f.manager = m
	return f
}

var userCred = UsernamePassword{Username: "admin", Password: "secret"}

func TestNewManager_RequiresCollaborators(t *testing.T) {
	_, err := NewManager(ManagerConfig{Sender: transport.New(transport.Config{})})
	assert.Error(t, err)
	_, err = NewManager(ManagerConfig{Authenticator: &fakeAuthenticator{}})
	assert.Error(t, err)
}

func TestManager_AuthenticatePersistsToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"abc","expires":"2099-01-01T00:00:00Z"}`))
	}))
	defer tokenSrv.Close()

	store := newTestFileStore(t)
	exec := transport.New(transport.Config{Timeout: 2 * time.Second})
	m, err := NewManager(ManagerConfig{
		Authenticator: NewHTTPAuthenticator(HTTPAuthenticatorConfig{Executor: exec}),
		Sender:        exec,
		Persister:     store,
	})
	require.NoError(t, err)

	s, err := m.Authenticate(context.Background(), tokenSrv.URL, userCred)
	require.NoError(t, err)

	tok, err := m.GetToken(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"token": "abc"`)
	assert.Contains(t, string(data), `"expires": "2099-01-01T00:00:00Z"`)
}

func TestManager_AuthenticateFailureRegistersNothing(t *testing.T) {
	f := newManagerFixture(t, true)
	f.authn.FailFrom(1, &AuthError{Status: http.StatusUnauthorized})

	_, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", userCred)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, f.manager.Store().Len())
	_, ok := f.store.Load("https://mdm.example.com")
	assert.False(t, ok)
}

func TestManager_AuthenticateRejectsInvalidCredential(t *testing.T) {
	f := newManagerFixture(t, false)
	_, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", UsernamePassword{Username: "admin"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Equal(t, 0, f.authn.Calls())
}

func TestManager_AuthenticateReplacesCachedToken(t *testing.T) {
	f := newManagerFixture(t, true)
	// A valid token left behind by another identity on the same server.
	cached := mustToken(t, "other-identity", "https://mdm.example.com", f.clock.Now().Add(30*time.Minute))
	require.NoError(t, f.store.Save(cached))

	s, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", userCred)
	require.NoError(t, err)
	tok, err := f.manager.GetToken(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok.AccessToken)
	assert.Equal(t, 1, f.authn.Calls())

	saved, ok := f.store.Load("https://mdm.example.com")
	require.True(t, ok)
	assert.Equal(t, "token-1", saved.AccessToken)

	resumed, err := f.manager.Resume("https://mdm.example.com")
	require.NoError(t, err)
	tok, err = f.manager.GetToken(context.Background(), resumed)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok.AccessToken)
}

func TestManager_GetTokenReauthenticatesWhenExpired(t *testing.T) {
	f := newManagerFixture(t, true)
	s, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", userCred)
	require.NoError(t, err)

	tok, err := f.manager.GetToken(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok.AccessToken)

	f.clock.Advance(time.Hour)

	tok, err = f.manager.GetToken(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok.AccessToken)
	assert.Equal(t, 2, f.authn.Calls())

	saved, ok := f.store.Load("https://mdm.example.com")
	require.True(t, ok)
	assert.Equal(t, "token-2", saved.AccessToken)
	assert.Equal(t, tok.ExpiresAt, saved.ExpiresAt)

	st := f.manager.Status(s)
	assert.True(t, st.Authenticated)
	assert.NotNil(t, st.RefreshedAt)
	assert.Equal(t, int64(3600), st.ExpiresIn)
	assert.WithinDuration(t, f.clock.Now().Add(-time.Hour), st.CreatedAt, time.Second)
}

func TestManager_ConcurrentStaleCallersShareOneRefresh(t *testing.T) {
	f := newManagerFixture(t, false)
	f.authn.delay = 50 * time.Millisecond
	s, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", userCred)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	const callers = 20
	tokens := make([]Token, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			tok, err := f.manager.GetToken(context.Background(), s)
			tokens[i] = tok
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 2, f.authn.Calls())
	for _, tok := range tokens {
		assert.Equal(t, "token-2", tok.AccessToken)
		assert.Equal(t, tokens[0].IssuedAt, tok.IssuedAt)
	}
}

func TestManager_RefreshAuthFailureEvicts(t *testing.T) {
	f := newManagerFixture(t, true)
	s, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", userCred)
	require.NoError(t, err)
	f.authn.FailFrom(2, &AuthError{Status: http.StatusForbidden})
	f.clock.Advance(time.Hour)

	_, err = f.manager.GetToken(context.Background(), s)
	var expired *SessionExpiredError
	require.ErrorAs(t, err, &expired)
	assert.True(t, IsReauthRequired(err))
	assert.True(t, s.Evicted())

	_, err = f.manager.Session(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = os.Stat(f.store.Path())
	assert.True(t, os.IsNotExist(err))

	_, err = f.manager.GetToken(context.Background(), s)
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, 2, f.authn.Calls())
}

func TestManager_RefreshTransportFailureKeepsSession(t *testing.T) {
	f := newManagerFixture(t, true)
	s, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", userCred)
	require.NoError(t, err)
	f.authn.FailFrom(2, &transport.TransportError{URL: "https://mdm.example.com", Kind: transport.KindNetwork, Err: errors.New("connection refused")})
	f.clock.Advance(time.Hour)

	_, err = f.manager.GetToken(context.Background(), s)
	var te *transport.TransportError
	require.ErrorAs(t, err, &te)
	assert.False(t, IsReauthRequired(err))
	assert.False(t, s.Evicted())
	assert.Equal(t, 1, f.manager.Store().Len())
	_, statErr := os.Stat(f.store.Path())
	assert.NoError(t, statErr)
}

func TestManager_ExecuteRefreshesOnceOn401(t *testing.T) {
	api := newFakeAPI(t, "token-2")
	f := newManagerFixture(t, true)
	s, err := f.manager.Authenticate(context.Background(), api.URL, userCred)
	require.NoError(t, err)

	resp, err := f.manager.Execute(context.Background(), s, http.MethodGet, "/JSSResource/computers", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"path":"/JSSResource/computers"}`, string(resp.Body))
	assert.Equal(t, int64(2), api.hits.Load())
	assert.Equal(t, 2, f.authn.Calls())

	saved, ok := f.store.Load(api.URL)
	require.True(t, ok)
	assert.Equal(t, "token-2", saved.AccessToken)
}

func TestManager_ExecuteSecond401Evicts(t *testing.T) {
	api := newFakeAPI(t)
	f := newManagerFixture(t, true)
	s, err := f.manager.Authenticate(context.Background(), api.URL, userCred)
	require.NoError(t, err)

	_, err = f.manager.Execute(context.Background(), s, http.MethodGet, "/api/v1/scripts", nil)
	var reauth *ReauthenticationRequiredError
	require.ErrorAs(t, err, &reauth)
	assert.Equal(t, http.StatusUnauthorized, reauth.Status)
	assert.Equal(t, int64(2), api.hits.Load())
	assert.Equal(t, 2, f.authn.Calls())
	assert.True(t, s.Evicted())
	_, statErr := os.Stat(f.store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_ExecuteRefreshRejectedEvicts(t *testing.T) {
	api := newFakeAPI(t)
	f := newManagerFixture(t, true)
	s, err := f.manager.Authenticate(context.Background(), api.URL, userCred)
	require.NoError(t, err)
	f.authn.FailFrom(2, &AuthError{Status: http.StatusForbidden})

	_, err = f.manager.Execute(context.Background(), s, http.MethodGet, "/api/v1/scripts", nil)
	var reauth *ReauthenticationRequiredError
	require.ErrorAs(t, err, &reauth)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusForbidden, ae.Status)
	assert.Equal(t, int64(1), api.hits.Load())
	assert.True(t, s.Evicted())
	_, statErr := os.Stat(f.store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_ExecutePassesThroughErrorStatuses(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			api := newFakeAPI(t, "token-1")
			api.respondWith(status)
			f := newManagerFixture(t, false)
			s, err := f.manager.Authenticate(context.Background(), api.URL, userCred)
			require.NoError(t, err)

			resp, err := f.manager.Execute(context.Background(), s, http.MethodGet, "/api/v1/policies/9", nil)
			require.NoError(t, err)
			assert.Equal(t, status, resp.Status)
			assert.Equal(t, 1, f.authn.Calls())
			assert.False(t, s.Evicted())

			var reqErr *RequestError
			require.ErrorAs(t, CheckResponse(http.MethodGet, "/api/v1/policies/9", resp), &reqErr)
			assert.Equal(t, status, reqErr.Status)
		})
	}
}

func TestManager_ExecuteBearer401Evicts(t *testing.T) {
	api := newFakeAPI(t)
	f := newManagerFixture(t, true)
	require.NoError(t, f.store.Save(mustToken(t, "unrelated", api.URL, f.clock.Now().Add(time.Hour))))

	s, err := f.manager.Authenticate(context.Background(), api.URL, PreissuedBearer{Token: "expired-elsewhere"})
	require.NoError(t, err)
	assert.False(t, s.Refreshable())

	_, err = f.manager.Execute(context.Background(), s, http.MethodGet, "/api/v1/scripts", nil)
	var reauth *ReauthenticationRequiredError
	require.ErrorAs(t, err, &reauth)
	assert.Equal(t, 0, f.authn.Calls())
	assert.Equal(t, int64(1), api.hits.Load())
	assert.True(t, s.Evicted())

	// A bearer session never owned the persisted record.
	_, ok := f.store.Load(api.URL)
	assert.True(t, ok)
}

func TestManager_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	api := newFakeAPI(t, "token-2")
	f := newManagerFixture(t, false)
	f.authn.delay = 20 * time.Millisecond
	s, err := f.manager.Authenticate(context.Background(), api.URL, userCred)
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			resp, err := f.manager.Execute(context.Background(), s, http.MethodGet, "/api/v1/computers-inventory", nil)
			if err != nil {
				return err
			}
			if resp.Status != http.StatusOK {
				return fmt.Errorf("status %d", resp.Status)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 2, f.authn.Calls())
}

func TestManager_RefreshWaitHonoursContext(t *testing.T) {
	f := newManagerFixture(t, false)
	s, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", userCred)
	require.NoError(t, err)

	f.authn.gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := f.manager.Refresh(context.Background(), s)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.authn.Calls() == 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.manager.Refresh(ctx, s)
	var te *transport.TransportError
	require.ErrorAs(t, err, &te)
	assert.False(t, s.Evicted())

	close(f.authn.gate)
	require.NoError(t, <-done)
	tok, err := f.manager.GetToken(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok.AccessToken)
}

func TestManager_RefreshRejectsBearer(t *testing.T) {
	f := newManagerFixture(t, false)
	s, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", PreissuedBearer{Token: "abc"})
	require.NoError(t, err)

	_, err = f.manager.Refresh(context.Background(), s)
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.False(t, s.Evicted())
}

func TestManager_Resume(t *testing.T) {
	api := newFakeAPI(t, "cached")
	f := newManagerFixture(t, true)

	_, err := f.manager.Resume(api.URL)
	assert.ErrorIs(t, err, ErrNoCachedToken)

	require.NoError(t, f.store.Save(mustToken(t, "cached", api.URL, f.clock.Now().Add(10*time.Minute))))
	s, err := f.manager.Resume(api.URL)
	require.NoError(t, err)
	assert.Equal(t, KindBearer, s.AuthMethod())

	resp, err := f.manager.Execute(context.Background(), s, http.MethodGet, "/api/v1/buildings", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	f.clock.Advance(10 * time.Minute)
	_, err = f.manager.GetToken(context.Background(), s)
	var expired *SessionExpiredError
	require.ErrorAs(t, err, &expired)
	_, statErr := os.Stat(f.store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_ResumeExpiredClearsRecord(t *testing.T) {
	f := newManagerFixture(t, true)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.store.Path()), 0700))
	require.NoError(t, os.WriteFile(f.store.Path(),
		[]byte(`{"token":"old","expires":"2025-06-01T09:00:00Z","server":"https://mdm.example.com"}`), 0600))

	_, err := f.manager.Resume("https://mdm.example.com")
	assert.ErrorIs(t, err, ErrNoCachedToken)
	_, statErr := os.Stat(f.store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_Logout(t *testing.T) {
	f := newManagerFixture(t, true)
	s, err := f.manager.Authenticate(context.Background(), "https://mdm.example.com", userCred)
	require.NoError(t, err)
	_, ok := f.store.Load("https://mdm.example.com")
	require.True(t, ok)

	require.NoError(t, f.manager.Logout(s))
	assert.True(t, s.Evicted())
	assert.Equal(t, 0, f.manager.Store().Len())
	_, ok = f.store.Load("https://mdm.example.com")
	assert.False(t, ok)

	st := f.manager.Status(s)
	assert.False(t, st.Authenticated)
	assert.False(t, st.RefreshAvailable)
}

func TestManager_ExecuteSetsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	f := newManagerFixture(t, false)
	s, err := f.manager.Authenticate(context.Background(), srv.URL, userCred)
	require.NoError(t, err)

	resp, err := f.manager.Do(context.Background(), s, Request{
		Method: http.MethodPost,
		Path:   "JSSResource/policies/id/0",
		Header: http.Header{"Content-Type": []string{"application/xml"}},
		Body:   []byte("<policy/>"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "Bearer token-1", got.Get("Authorization"))
	assert.Equal(t, "application/xml", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}
