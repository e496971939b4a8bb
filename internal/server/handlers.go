package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"eve/internal/auth"
	"eve/internal/config"
	"eve/pkg/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authenticateRequest struct {
	URL          string `json:"url"`
	AuthMethod   string `json:"auth_method"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	BasicAuth    string `json:"basic_auth"`
	Token        string `json:"token"`
}

// credential builds the credential named by auth_method. An empty method
// means API client credentials.
func (req authenticateRequest) credential() (auth.Credential, error) {
	switch auth.CredentialKind(strings.ToLower(strings.TrimSpace(req.AuthMethod))) {
	case "", auth.KindClientCredential:
		return auth.APIClientCredentials{ClientID: req.ClientID, ClientSecret: req.ClientSecret}, nil
	case auth.KindUsernamePassword:
		return auth.UsernamePassword{Username: req.Username, Password: req.Password}, nil
	case auth.KindBasicAuth:
		return auth.BasicAuthToken{Encoded: req.BasicAuth}, nil
	case auth.KindBearer:
		return auth.PreissuedBearer{Token: req.Token}, nil
	default:
		return nil, fmt.Errorf("%w: unknown auth_method %q", errBadRequest, req.AuthMethod)
	}
}

type authenticateResponse struct {
	Success    bool                `json:"success"`
	SessionID  string              `json:"session_id"`
	AuthMethod auth.CredentialKind `json:"auth_method"`
	ExpiresAt  *time.Time          `json:"expires_at,omitempty"`
	ExpiresIn  int64               `json:"expires_in,omitempty"`
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, r, fmt.Errorf("%w: url is required", errBadRequest))
		return
	}
	server, err := config.ResolveServer(req.URL, 0, "")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	cred, err := req.credential()
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := s.manager.Authenticate(r.Context(), server, cred)
	if err != nil {
		logging.Audit("proxy_auth_failed", "Proxy authentication failed",
			"server", server, "auth_method", string(cred.Kind()), "client", clientIP(r))
		writeError(w, r, err)
		return
	}

	st := s.manager.Status(session)
	writeJSON(w, http.StatusOK, authenticateResponse{
		Success:    true,
		SessionID:  session.ID(),
		AuthMethod: session.AuthMethod(),
		ExpiresAt:  st.ExpiresAt,
		ExpiresIn:  st.ExpiresIn,
	})
}

// session resolves the X-Session-ID header.
func (s *Server) session(r *http.Request) (*auth.Session, error) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		return nil, errMissingSession
	}
	return s.manager.Session(id)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.manager.Logout(session); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleTokenStatus(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Status(session))
}

// handleTokenRefresh forces a new token for the session and answers with its
// status. A failed refresh evicts the session.
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.manager.Refresh(r.Context(), session); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Status(session))
}

const passthroughPrefix = "/api/jamf"

// forwardedHeaders are copied from the client request to the remote call.
var forwardedHeaders = []string{"Content-Type", "Accept"}

// handlePassthrough forwards the request to {server}/{path} with the
// session's token and relays the remote status and body unchanged.
func (s *Server) handlePassthrough(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The escaped form keeps %2F, %3F and %23 inside segments intact.
	path := strings.TrimPrefix(r.URL.EscapedPath(), passthroughPrefix)
	if path == "" {
		path = "/"
	}
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	header := http.Header{}
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	resp, err := s.manager.Do(r.Context(), session, auth.Request{
		Method: r.Method,
		Path:   path,
		Header: header,
		Body:   body,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
