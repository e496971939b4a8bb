package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eve/internal/auth"
	"eve/internal/config"
	"eve/internal/transport"
)

func TestClassify(t *testing.T) {
	const server = "https://mdm.example.com"

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, Classify(nil, server))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		cause := &auth.AuthError{Status: http.StatusUnauthorized}
		err := Classify(fmt.Errorf("login: %w", cause), server)
		var failed *AuthFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, server, failed.Server)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("session expired", func(t *testing.T) {
		err := Classify(&auth.SessionExpiredError{SessionID: "cli"}, server)
		var expired *AuthExpiredError
		require.ErrorAs(t, err, &expired)
		assert.Contains(t, err.Error(), "please re-authenticate")
	})

	t.Run("reauthentication required", func(t *testing.T) {
		err := Classify(&auth.ReauthenticationRequiredError{SessionID: "cli", Status: 401}, server)
		var expired *AuthExpiredError
		assert.ErrorAs(t, err, &expired)
	})

	t.Run("no cached token", func(t *testing.T) {
		err := Classify(auth.ErrNoCachedToken, server)
		var required *AuthRequiredError
		require.ErrorAs(t, err, &required)
		assert.Contains(t, err.Error(), "eve auth login --server "+server)
	})

	t.Run("transport", func(t *testing.T) {
		cause := &transport.TransportError{URL: server, Kind: transport.KindTLS, Err: errors.New("x509: unknown authority")}
		err := Classify(cause, server)
		var conn *ConnectionError
		require.ErrorAs(t, err, &conn)
		assert.Contains(t, err.Error(), "--insecure")
	})

	t.Run("timeout hint", func(t *testing.T) {
		err := Classify(&transport.TransportError{URL: server, Kind: transport.KindTimeout, Err: context.DeadlineExceeded}, server)
		assert.Contains(t, err.Error(), "--timeout")
	})

	t.Run("no server", func(t *testing.T) {
		err := Classify(config.ErrNoServer, "")
		assert.ErrorIs(t, err, config.ErrNoServer)
		assert.Contains(t, err.Error(), "--server")
	})

	t.Run("passthrough", func(t *testing.T) {
		cause := &auth.RequestError{Method: "GET", Path: "/x", Status: http.StatusNotFound}
		assert.Same(t, cause, Classify(cause, server))
	})
}
