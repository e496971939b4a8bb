package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"eve/internal/transport"
	"eve/pkg/logging"
)

const (
	// DefaultPasswordGrantPath is the token endpoint for basic-auth logins.
	DefaultPasswordGrantPath = "/api/v1/auth/token"

	// DefaultClientCredentialsPath is the OAuth2 token endpoint.
	DefaultClientCredentialsPath = "/api/oauth/token"

	// DefaultTokenLifetime applies when a token response omits its lifetime.
	DefaultTokenLifetime = time.Hour
)

// Authenticator exchanges a Credential for a Token.
type Authenticator interface {
	Authenticate(ctx context.Context, server string, cred Credential) (Token, error)
}

// Sender is the transport capability the auth package needs.
// *transport.Executor implements it.
type Sender interface {
	Send(ctx context.Context, method, url string, header http.Header, body []byte) (*transport.Response, error)
}

// HTTPAuthenticatorConfig configures HTTPAuthenticator.
type HTTPAuthenticatorConfig struct {
	// Executor performs password-grant requests and supplies the
	// *http.Client used for the OAuth2 grant.
	Executor *transport.Executor

	PasswordGrantPath     string
	ClientCredentialsPath string

	// DefaultLifetime is used when a response carries no expiry.
	DefaultLifetime time.Duration

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// HTTPAuthenticator implements Authenticator against the remote token
// endpoints. It holds no state besides configuration and never touches a
// token store.
type HTTPAuthenticator struct {
	exec                  *transport.Executor
	passwordGrantPath     string
	clientCredentialsPath string
	defaultLifetime       time.Duration
	now                   func() time.Time
}

// NewHTTPAuthenticator creates an HTTPAuthenticator, filling defaults.
func NewHTTPAuthenticator(cfg HTTPAuthenticatorConfig) *HTTPAuthenticator {
	a := &HTTPAuthenticator{
		exec:                  cfg.Executor,
		passwordGrantPath:     cfg.PasswordGrantPath,
		clientCredentialsPath: cfg.ClientCredentialsPath,
		defaultLifetime:       cfg.DefaultLifetime,
		now:                   cfg.Clock,
	}
	if a.exec == nil {
		a.exec = transport.New(transport.Config{})
	}
	if a.passwordGrantPath == "" {
		a.passwordGrantPath = DefaultPasswordGrantPath
	}
	if a.clientCredentialsPath == "" {
		a.clientCredentialsPath = DefaultClientCredentialsPath
	}
	if a.defaultLifetime <= 0 {
		a.defaultLifetime = DefaultTokenLifetime
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Authenticate performs exactly one token request for cred.
func (a *HTTPAuthenticator) Authenticate(ctx context.Context, server string, cred Credential) (Token, error) {
	switch c := cred.(type) {
	case UsernamePassword, BasicAuthToken:
		return a.passwordGrant(ctx, server, cred)
	case APIClientCredentials:
		return a.clientCredentialsGrant(ctx, server, c)
	case PreissuedBearer:
		return Token{}, fmt.Errorf("%w: pre-issued bearer tokens cannot be exchanged", ErrInvalidCredential)
	default:
		return Token{}, fmt.Errorf("%w: unsupported credential type %T", ErrInvalidCredential, cred)
	}
}

// passwordGrantResponse is the body of a successful password-grant call.
// Expires is either a timestamp string or a lifetime in seconds.
type passwordGrantResponse struct {
	Token   string          `json:"token"`
	Expires json.RawMessage `json:"expires"`
}

func (a *HTTPAuthenticator) passwordGrant(ctx context.Context, server string, cred Credential) (Token, error) {
	authz, err := basicHeader(cred)
	if err != nil {
		return Token{}, err
	}

	header := http.Header{}
	header.Set("Authorization", authz)
	header.Set("Accept", "application/json")

	issuedAt := a.now()
	resp, err := a.exec.Send(ctx, http.MethodPost, joinURL(server, a.passwordGrantPath), header, nil)
	if err != nil {
		return Token{}, err
	}
	if !resp.OK() {
		logging.Debug("Auth", "Password grant rejected by %s: status=%d", server, resp.Status)
		return Token{}, &AuthError{Status: resp.Status, Body: string(resp.Body)}
	}

	var body passwordGrantResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return Token{}, &AuthError{Status: resp.Status, Body: string(resp.Body), Err: fmt.Errorf("malformed token response: %w", err)}
	}
	if body.Token == "" {
		return Token{}, &AuthError{Status: resp.Status, Body: string(resp.Body), Err: errors.New("token response has no token")}
	}

	expiresAt, err := a.parseExpiry(body.Expires, issuedAt)
	if err != nil {
		return Token{}, &AuthError{Status: resp.Status, Body: string(resp.Body), Err: err}
	}

	tok, err := NewToken(body.Token, server, issuedAt, expiresAt)
	if err != nil {
		return Token{}, &AuthError{Status: resp.Status, Body: string(resp.Body), Err: err}
	}
	return tok, nil
}

// parseExpiry interprets the "expires" field of a password-grant response.
func (a *HTTPAuthenticator) parseExpiry(raw json.RawMessage, issuedAt time.Time) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return issuedAt.Add(a.defaultLifetime), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseTimestamp(s)
	}

	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err == nil {
		if seconds <= 0 {
			return time.Time{}, fmt.Errorf("non-positive token lifetime %v", seconds)
		}
		return issuedAt.Add(time.Duration(seconds * float64(time.Second))), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized expires value %s", string(raw))
}

func (a *HTTPAuthenticator) clientCredentialsGrant(ctx context.Context, server string, cred APIClientCredentials) (Token, error) {
	tokenURL := joinURL(server, a.clientCredentialsPath)
	cfg := clientcredentials.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	ctx, cancel := context.WithTimeout(ctx, a.exec.Timeout())
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.exec.HTTPClient())

	issuedAt := a.now()
	ot, err := cfg.Token(ctx)
	if err != nil {
		return Token{}, classifyOAuth2Error(err, tokenURL)
	}

	var expiresAt time.Time
	switch {
	case ot.ExpiresIn > 0:
		expiresAt = issuedAt.Add(time.Duration(ot.ExpiresIn) * time.Second)
	case !ot.Expiry.IsZero():
		expiresAt = ot.Expiry
	default:
		expiresAt = issuedAt.Add(a.defaultLifetime)
	}

	tok, err := NewToken(ot.AccessToken, server, issuedAt, expiresAt)
	if err != nil {
		return Token{}, &AuthError{Status: http.StatusOK, Err: err}
	}
	return tok, nil
}

// classifyOAuth2Error separates server rejections and malformed bodies
// (AuthError) from failures to reach the server (TransportError).
func classifyOAuth2Error(err error, tokenURL string) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &AuthError{Status: status, Body: string(re.Body)}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return transport.Classify(err, tokenURL)
	}

	return &AuthError{Status: http.StatusOK, Err: err}
}

func joinURL(server, path string) string {
	return strings.TrimRight(server, "/") + "/" + strings.TrimLeft(path, "/")
}
