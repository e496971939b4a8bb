package auth

import (
	"errors"
	"fmt"
	"net/http"

	"eve/internal/transport"
)

var (
	// ErrInvalidCredential is returned when a credential fails validation.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrSessionNotFound is returned when a session id is unknown or evicted.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoCachedToken is returned when resuming without a usable cached token.
	ErrNoCachedToken = errors.New("no valid cached token")

	// errSessionEvicted marks work attempted on an evicted session.
	errSessionEvicted = errors.New("session has been evicted")
)

// AuthError reports that the server rejected a credential or returned an
// unusable token response. It is never retried.
type AuthError struct {
	// Status is the HTTP status of the token response (0 if none was read).
	Status int
	// Body is the raw response body. It may contain server hints and is not
	// included in Error().
	Body string
	// Err is the parse failure, if any.
	Err error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("authentication failed (status %d): %v", e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("authentication failed: %v", e.Err)
	default:
		return fmt.Sprintf("authentication failed: server returned %d %s", e.Status, http.StatusText(e.Status))
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// SessionExpiredError is returned by GetToken when the token is stale and the
// session could not be re-authenticated. The session has been evicted.
type SessionExpiredError struct {
	SessionID string
	Err       error
}

func (e *SessionExpiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session expired, please re-authenticate: %v", e.Err)
	}
	return "session expired, please re-authenticate"
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// ReauthenticationRequiredError is returned by Execute when a 401 could not be
// repaired by a single refresh. The session has been evicted.
type ReauthenticationRequiredError struct {
	SessionID string
	// Status is the last HTTP status seen from the API, 0 if the refresh
	// itself failed.
	Status int
	Err    error
}

func (e *ReauthenticationRequiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credentials rejected, please re-authenticate: %v", e.Err)
	}
	return "credentials rejected, please re-authenticate"
}

func (e *ReauthenticationRequiredError) Unwrap() error { return e.Err }

// RequestError describes a non-2xx, non-401 response. The core never acts on
// these; CheckResponse produces one for callers that want an error value.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: server returned %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// CheckResponse returns a *RequestError when resp is not 2xx.
func CheckResponse(method, path string, resp *transport.Response) error {
	if resp == nil || resp.OK() {
		return nil
	}
	return &RequestError{Method: method, Path: path, Status: resp.Status, Body: resp.Body}
}

// IsReauthRequired reports whether err means the caller must authenticate
// from scratch.
func IsReauthRequired(err error) bool {
	var expired *SessionExpiredError
	var reauth *ReauthenticationRequiredError
	return errors.As(err, &expired) || errors.As(err, &reauth) || errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoCachedToken)
}
