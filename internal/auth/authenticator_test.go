package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eve/internal/transport"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestAuthenticator(t *testing.T) *HTTPAuthenticator {
	t.Helper()
	return NewHTTPAuthenticator(HTTPAuthenticatorConfig{
		Executor: transport.New(transport.Config{Timeout: 2 * time.Second}),
		Clock:    func() time.Time { return fixedNow },
	})
}

func TestPasswordGrant_UsernamePassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultPasswordGrantPath, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"abc","expires":"2099-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	tok, err := newTestAuthenticator(t).Authenticate(context.Background(), srv.URL, UsernamePassword{Username: "admin", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), tok.ExpiresAt)
	assert.Equal(t, fixedNow, tok.IssuedAt)
	assert.Equal(t, srv.URL, tok.Server)
}

func TestPasswordGrant_BasicAuthTokenAndFractionalExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Basic YWRtaW46c2VjcmV0", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"token":"abc","expires":"2099-01-01T00:00:00.417Z"}`))
	}))
	defer srv.Close()

	tok, err := newTestAuthenticator(t).Authenticate(context.Background(), srv.URL+"/", BasicAuthToken{Encoded: "YWRtaW46c2VjcmV0"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), tok.ExpiresAt)
}

func TestPasswordGrant_RelativeAndMissingExpiry(t *testing.T) {
	tests := []struct {
		name string
		body string
		want time.Time
	}{
		{"seconds", `{"token":"abc","expires":1800}`, fixedNow.Add(30 * time.Minute)},
		{"missing", `{"token":"abc"}`, fixedNow.Add(DefaultTokenLifetime)},
		{"null", `{"token":"abc","expires":null}`, fixedNow.Add(DefaultTokenLifetime)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tok, err := newTestAuthenticator(t).Authenticate(context.Background(), srv.URL, UsernamePassword{Username: "a", Password: "b"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok.ExpiresAt)
		})
	}
}

func TestPasswordGrant_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rejected", http.StatusUnauthorized, `{"httpStatus":401}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"malformed json", http.StatusOK, `{"token":`},
		{"no token", http.StatusOK, `{"expires":"2099-01-01T00:00:00Z"}`},
		{"bad expiry", http.StatusOK, `{"token":"abc","expires":"someday"}`},
		{"already expired", http.StatusOK, `{"token":"abc","expires":"2001-01-01T00:00:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestAuthenticator(t).Authenticate(context.Background(), srv.URL, UsernamePassword{Username: "a", Password: "b"})
			var ae *AuthError
			require.True(t, errors.As(err, &ae), "expected AuthError, got %v", err)
			assert.Equal(t, tt.status, ae.Status)
			assert.Equal(t, tt.body, ae.Body)
		})
	}
}

func TestClientCredentialsGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultClientCredentialsPath, r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "my-client", r.PostForm.Get("client_id"))
		assert.Equal(t, "my-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"oauth-abc","token_type":"Bearer","expires_in":599}`))
	}))
	defer srv.Close()

	a := NewHTTPAuthenticator(HTTPAuthenticatorConfig{Executor: transport.New(transport.Config{Timeout: 2 * time.Second})})
	before := time.Now()
	tok, err := a.Authenticate(context.Background(), srv.URL, APIClientCredentials{ClientID: "my-client", ClientSecret: "my-secret"})
	require.NoError(t, err)
	assert.Equal(t, "oauth-abc", tok.AccessToken)
	assert.WithinDuration(t, before, tok.IssuedAt, 2*time.Second)
	assert.WithinDuration(t, before.Add(599*time.Second), tok.ExpiresAt, 3*time.Second)
}

func TestClientCredentialsGrant_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	_, err := newTestAuthenticator(t).Authenticate(context.Background(), srv.URL, APIClientCredentials{ClientID: "a", ClientSecret: "b"})
	var ae *AuthError
	require.True(t, errors.As(err, &ae), "expected AuthError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Contains(t, ae.Body, "invalid_client")
}

func TestClientCredentialsGrant_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	_, err := newTestAuthenticator(t).Authenticate(context.Background(), srv.URL, APIClientCredentials{ClientID: "a", ClientSecret: "b"})
	var ae *AuthError
	assert.True(t, errors.As(err, &ae), "expected AuthError, got %v", err)
}

func TestAuthenticate_TransportFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := "http://" + l.Addr().String()
	require.NoError(t, l.Close())

	a := newTestAuthenticator(t)
	for _, cred := range []Credential{
		UsernamePassword{Username: "a", Password: "b"},
		APIClientCredentials{ClientID: "a", ClientSecret: "b"},
	} {
		_, err := a.Authenticate(context.Background(), server, cred)
		var te *transport.TransportError
		assert.True(t, errors.As(err, &te), "%s: expected TransportError, got %v", cred.Kind(), err)
	}
}

func TestAuthenticate_PreissuedBearerRejected(t *testing.T) {
	_, err := newTestAuthenticator(t).Authenticate(context.Background(), "https://mdm.example.com", PreissuedBearer{Token: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthenticate_CustomPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/custom/token", r.URL.Path)
		_, _ = w.Write([]byte(`{"token":"abc","expires":60}`))
	}))
	defer srv.Close()

	a := NewHTTPAuthenticator(HTTPAuthenticatorConfig{
		Executor:          transport.New(transport.Config{}),
		PasswordGrantPath: "custom/token",
	})
	_, err := a.Authenticate(context.Background(), srv.URL, UsernamePassword{Username: "a", Password: "b"})
	require.NoError(t, err)
}
