package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"eve/internal/auth"
	"eve/internal/config"
	"eve/internal/resources"
	"eve/internal/transport"
	"eve/pkg/logging"
)

// SessionHeader carries the proxy session id.
const SessionHeader = "X-Session-ID"

// maxBodyBytes bounds request bodies read by the proxy.
const maxBodyBytes = 10 << 20

var (
	// errBadRequest marks malformed client input.
	errBadRequest = errors.New("bad request")

	// errMissingSession is returned when X-Session-ID is absent.
	errMissingSession = errors.New("session id required")

	// errNotFound marks unknown resource kinds.
	errNotFound = errors.New("not found")
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusFor maps an error to the HTTP status the proxy answers with.
func StatusFor(err error) int {
	var (
		authErr  *auth.AuthError
		reqErr   *auth.RequestError
		transErr *transport.TransportError
		maxBytes *http.MaxBytesError
	)
	switch {
	case errors.Is(err, errMissingSession),
		auth.IsReauthRequired(err),
		errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &transErr):
		if transErr.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &reqErr):
		return reqErr.Status
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, resources.ErrUnsupported):
		return http.StatusMethodNotAllowed
	case errors.Is(err, errBadRequest),
		errors.Is(err, auth.ErrInvalidCredential),
		errors.Is(err, resources.ErrInvalidID),
		errors.Is(err, config.ErrNoServer):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and answers with its mapped status. Upstream bodies
// of rejected requests are passed along as details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	resp := errorResponse{Error: err.Error()}

	var (
		authErr *auth.AuthError
		reqErr  *auth.RequestError
	)
	switch {
	case errors.As(err, &reqErr):
		resp.Details = string(reqErr.Body)
	case errors.As(err, &authErr):
		resp.Details = authErr.Body
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal server error"
	}

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

// readBody returns the request body, nil when empty.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if body == nil {
		return fmt.Errorf("%w: request body is required", errBadRequest)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
