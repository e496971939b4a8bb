package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"eve/internal/resources"
)

type kindInfo struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description"`
	Format      string   `json:"format,omitempty"`
	Operations  []string `json:"operations"`
}

func (s *Server) handleListKinds(w http.ResponseWriter, _ *http.Request) {
	var out []kindInfo
	for _, k := range resources.Kinds() {
		out = append(out, kindInfo{
			Name:        k.Name,
			Aliases:     k.Aliases,
			Description: k.Description,
			Format:      k.Format,
			Operations:  k.Operations(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// client returns a resource client bound to the request's session.
func (s *Server) client(r *http.Request) (*resources.Client, error) {
	session, err := s.session(r)
	if err != nil {
		return nil, err
	}
	return resources.New(resources.SessionDoer{Manager: s.manager, Session: session}), nil
}

// kindAndClient resolves the {kind} path value and the session client.
func (s *Server) kindAndClient(r *http.Request) (resources.Kind, *resources.Client, error) {
	kind, err := resources.LookupKind(r.PathValue("kind"))
	if err != nil {
		return resources.Kind{}, nil, fmt.Errorf("%w: %v", errNotFound, err)
	}
	c, err := s.client(r)
	if err != nil {
		return resources.Kind{}, nil, err
	}
	return kind, c, nil
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	kind, c, err := s.kindAndClient(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if kind.List == nil {
		writeError(w, r, kind.Unsupported("list"))
		return
	}
	items, err := kind.List(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []resources.Summary{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	kind, c, err := s.kindAndClient(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if kind.Get == nil {
		writeError(w, r, kind.Unsupported("get"))
		return
	}
	body, err := kind.Get(r.Context(), c, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDocument(w, http.StatusOK, body)
}

// resourcePayload is the create/update body for xml and script kinds.
// json kinds take the request body as the resource definition itself.
type resourcePayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	XML     string `json:"xml"`
}

func readInput(w http.ResponseWriter, r *http.Request, kind resources.Kind) (resources.Input, error) {
	body, err := readBody(w, r)
	if err != nil {
		return resources.Input{}, err
	}
	if body == nil {
		return resources.Input{}, fmt.Errorf("%w: request body is required", errBadRequest)
	}
	if kind.Format == "json" {
		if !json.Valid(body) {
			return resources.Input{}, fmt.Errorf("%w: body is not valid JSON", errBadRequest)
		}
		return resources.Input{Body: body}, nil
	}

	var p resourcePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return resources.Input{}, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	content := p.Content
	if content == "" {
		content = p.XML
	}
	if content == "" {
		return resources.Input{}, fmt.Errorf("%w: content is required", errBadRequest)
	}
	if kind.Format == "script" && p.Name == "" {
		return resources.Input{}, fmt.Errorf("%w: name is required", errBadRequest)
	}
	return resources.Input{Name: p.Name, Body: []byte(content)}, nil
}

type mutationResponse struct {
	Success bool `json:"success"`
	Result  any  `json:"result,omitempty"`
}

func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	kind, c, err := s.kindAndClient(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if kind.Create == nil {
		writeError(w, r, kind.Unsupported("create"))
		return
	}
	in, err := readInput(w, r, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := kind.Create(r.Context(), c, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mutationResponse{Success: true, Result: result(out)})
}

func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	kind, c, err := s.kindAndClient(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if kind.Update == nil {
		writeError(w, r, kind.Unsupported("update"))
		return
	}
	in, err := readInput(w, r, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := kind.Update(r.Context(), c, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, Result: result(out)})
}

func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	kind, c, err := s.kindAndClient(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if kind.Delete == nil {
		writeError(w, r, kind.Unsupported("delete"))
		return
	}
	if err := kind.Delete(r.Context(), c, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true})
}

func (s *Server) handleRotateCredentials(w http.ResponseWriter, r *http.Request) {
	c, err := s.client(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	creds, err := c.RotateClientCredentials(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleSearchComputers(w http.ResponseWriter, r *http.Request) {
	c, err := s.client(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := c.SearchComputers(r.Context(), r.PathValue("term"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []resources.Summary{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleComputerByUDID(w http.ResponseWriter, r *http.Request) {
	c, err := s.client(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := c.GetComputerByUDID(r.Context(), r.PathValue("udid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDocument(w, http.StatusOK, body)
}

// result embeds JSON responses as-is and anything else as a string.
func result(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// writeDocument relays a remote document with a content type guessed from
// its first byte.
func writeDocument(w http.ResponseWriter, status int, body []byte) {
	trimmed := bytes.TrimSpace(body)
	switch {
	case json.Valid(trimmed):
		w.Header().Set("Content-Type", "application/json")
	case bytes.HasPrefix(trimmed, []byte("<")):
		w.Header().Set("Content-Type", "application/xml")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
