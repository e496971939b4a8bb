package cli

import (
	"errors"
	"fmt"

	"eve/internal/auth"
	"eve/internal/config"
	"eve/internal/transport"
)

// AuthRequiredError indicates there is no usable session for the server.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Server is the API the command targeted.
	Server string
	Reason error
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Authentication required for %s

To authenticate, run:
  eve auth login --server %s --username <user>`, e.Server, e.Server)
}

func (e *AuthRequiredError) Unwrap() error { return e.Reason }

// AuthExpiredError indicates the session was dropped because its token
// expired or was rejected and could not be renewed.
type AuthExpiredError struct {
	Server string
	Reason error
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf(`Credentials rejected or token expired for %s, please re-authenticate.

To re-authenticate, run:
  eve auth login --server %s`, e.Server, e.Server)
}

func (e *AuthExpiredError) Unwrap() error { return e.Reason }

// AuthFailedError indicates the server rejected the supplied credentials.
type AuthFailedError struct {
	Server string
	Reason error
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("Authentication failed for %s: %v", e.Server, e.Reason)
}

func (e *AuthFailedError) Unwrap() error { return e.Reason }

// ConnectionError indicates the server could not be reached.
type ConnectionError struct {
	Server string
	Reason *transport.TransportError
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("Cannot reach %s (%s): %v", e.Server, e.Reason.Kind, e.Reason.Err)
	switch e.Reason.Kind {
	case transport.KindTLS:
		msg += "\n\nFor lab servers with self-signed certificates, pass --insecure."
	case transport.KindTimeout:
		msg += "\n\nThe server did not answer in time; raise --timeout if it is slow."
	case transport.KindDNS:
		msg += "\n\nCheck the --server host name."
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Reason }

// Classify converts session and transport errors into the CLI error types
// above. Other errors are returned unchanged.
func Classify(err error, server string) error {
	if err == nil {
		return nil
	}
	var (
		authErr  *auth.AuthError
		transErr *transport.TransportError
		expired  *auth.SessionExpiredError
		reauth   *auth.ReauthenticationRequiredError
	)
	switch {
	case errors.As(err, &transErr):
		return &ConnectionError{Server: server, Reason: transErr}
	case errors.As(err, &expired), errors.As(err, &reauth):
		return &AuthExpiredError{Server: server, Reason: err}
	case errors.As(err, &authErr):
		return &AuthFailedError{Server: server, Reason: err}
	case errors.Is(err, auth.ErrNoCachedToken), errors.Is(err, auth.ErrSessionNotFound):
		return &AuthRequiredError{Server: server, Reason: err}
	case errors.Is(err, config.ErrNoServer):
		return fmt.Errorf("%w: pass --server or set server.host in config.yaml", err)
	}
	return err
}
