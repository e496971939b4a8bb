package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"eve/internal/auth"
	"eve/internal/config"
	"eve/internal/resources"
	"eve/internal/transport"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing session", errMissingSession, http.StatusUnauthorized},
		{"unknown session", fmt.Errorf("lookup: %w", auth.ErrSessionNotFound), http.StatusUnauthorized},
		{"auth rejected", &auth.AuthError{Status: http.StatusUnauthorized}, http.StatusUnauthorized},
		{"session expired", &auth.SessionExpiredError{SessionID: "s"}, http.StatusUnauthorized},
		{"no cached token", auth.ErrNoCachedToken, http.StatusUnauthorized},
		{"reauth required", &auth.ReauthenticationRequiredError{SessionID: "s", Status: 401}, http.StatusUnauthorized},
		{"network", &transport.TransportError{Kind: transport.KindNetwork, Err: errors.New("refused")}, http.StatusBadGateway},
		{"timeout", &transport.TransportError{Kind: transport.KindTimeout, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"upstream status", &auth.RequestError{Method: "GET", Path: "/x", Status: http.StatusConflict}, http.StatusConflict},
		{"unsupported", fmt.Errorf("%w: create groups", resources.ErrUnsupported), http.StatusMethodNotAllowed},
		{"invalid id", fmt.Errorf("%w: abc", resources.ErrInvalidID), http.StatusBadRequest},
		{"invalid credential", fmt.Errorf("%w: username required", auth.ErrInvalidCredential), http.StatusBadRequest},
		{"no server", config.ErrNoServer, http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: printers", errNotFound), http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
