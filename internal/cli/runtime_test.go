package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eve/internal/auth"
	"eve/internal/config"
	"eve/internal/formatting"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case config.DefaultPasswordGrantPath:
			if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"token":"cli-token","expires":"2099-01-01T00:00:00Z"}`))
		case "/JSSResource/scripts":
			if r.Header.Get("Authorization") != "Bearer cli-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"scripts":[{"id":3,"name":"cleanup.sh"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRuntime(t *testing.T, flags CommandFlags) (*Runtime, *bytes.Buffer) {
	t.Helper()
	if flags.ConfigPath == "" {
		flags.ConfigPath = t.TempDir()
	}
	flags.Quiet = true
	var out, errOut bytes.Buffer
	rt, err := NewRuntime(flags, Streams{Out: &out, Err: &errOut})
	require.NoError(t, err)
	return rt, &out
}

func TestRuntime_LoginPersistsAndResumes(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()

	rt, _ := newTestRuntime(t, CommandFlags{ConfigPath: dir, Server: srv.URL})
	session, err := rt.Login(context.Background(), auth.UsernamePassword{Username: "admin", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL, session.Server())

	tokenPath := filepath.Join(dir, "token.json")
	info, err := os.Stat(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A later invocation without --server targets the cached server.
	next, _ := newTestRuntime(t, CommandFlags{ConfigPath: dir})
	server, err := next.Server()
	require.NoError(t, err)
	assert.Equal(t, srv.URL, server)

	resumed, err := next.Session(context.Background(), nil)
	require.NoError(t, err)
	scripts, err := next.Client(resumed).ListScripts(context.Background())
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "cleanup.sh", scripts[0].Name)
}

func TestRuntime_SessionWithoutTokenRequiresLogin(t *testing.T) {
	rt, _ := newTestRuntime(t, CommandFlags{Server: "https://mdm.example.com"})
	_, err := rt.Session(context.Background(), nil)
	var required *AuthRequiredError
	require.ErrorAs(t, err, &required)
	assert.Equal(t, "https://mdm.example.com", required.Server)
}

func TestRuntime_SessionWithCredentialAuthenticates(t *testing.T) {
	srv := newTokenServer(t)
	rt, _ := newTestRuntime(t, CommandFlags{Server: srv.URL})

	session, err := rt.Session(context.Background(), auth.UsernamePassword{Username: "admin", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, session.Refreshable())
}

func TestRuntime_LoginRejected(t *testing.T) {
	srv := newTokenServer(t)
	rt, _ := newTestRuntime(t, CommandFlags{Server: srv.URL})

	_, err := rt.Login(context.Background(), auth.UsernamePassword{Username: "admin", Password: "nope"})
	var failed *AuthFailedError
	require.ErrorAs(t, err, &failed)
	assert.Empty(t, rt.Store.CachedServer())
}

func TestRuntime_NoServer(t *testing.T) {
	rt, _ := newTestRuntime(t, CommandFlags{})
	_, err := rt.Session(context.Background(), nil)
	assert.ErrorIs(t, err, config.ErrNoServer)
}

func TestNewRuntime_Errors(t *testing.T) {
	_, err := NewRuntime(CommandFlags{ConfigPath: t.TempDir(), OutputFormat: "xml"}, Streams{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "unsupported output format")

	_, err = NewRuntime(CommandFlags{ConfigPath: t.TempDir(), LogFormat: "xml"}, Streams{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "logging.format")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unterminated"), 0600))
	_, err = NewRuntime(CommandFlags{ConfigPath: dir}, Streams{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "parse", cfgErr.ErrorType)
}

func TestRuntime_Formatter(t *testing.T) {
	rt, out := newTestRuntime(t, CommandFlags{OutputFormat: "json"})
	assert.Equal(t, formatting.FormatJSON, rt.Format())
	require.NoError(t, rt.Formatter().FormatData(map[string]string{"status": "ok"}))
	assert.JSONEq(t, `{"status":"ok"}`, out.String())
}
