package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"eve/internal/auth"
	"eve/internal/transport"
)

const (
	contentJSON = "application/json"
	contentXML  = "application/xml"
)

// ErrInvalidID is returned for empty or malformed resource ids.
var ErrInvalidID = errors.New("invalid resource id")

// Doer executes an authorized API call relative to the server root.
type Doer interface {
	Do(ctx context.Context, method, path string, header http.Header, body []byte) (*transport.Response, error)
}

// SessionDoer binds a session to its manager so requests refresh and retry
// through the session lifecycle.
type SessionDoer struct {
	Manager *auth.Manager
	Session *auth.Session
}

// Do implements Doer.
func (d SessionDoer) Do(ctx context.Context, method, path string, header http.Header, body []byte) (*transport.Response, error) {
	return d.Manager.Do(ctx, d.Session, auth.Request{Method: method, Path: path, Header: header, Body: body})
}

// Client groups the resource wrappers.
type Client struct {
	doer Doer
}

// New creates a Client.
func New(d Doer) *Client {
	return &Client{doer: d}
}

// Raw performs an arbitrary call and returns the response without checking
// its status.
func (c *Client) Raw(ctx context.Context, method, path string, header http.Header, body []byte) (*transport.Response, error) {
	return c.doer.Do(ctx, method, path, header, body)
}

func (c *Client) call(ctx context.Context, method, path, accept, contentType string, body []byte) ([]byte, error) {
	header := http.Header{}
	header.Set("Accept", accept)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	resp, err := c.doer.Do(ctx, method, path, header, body)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckResponse(method, path, resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.call(ctx, http.MethodGet, path, contentJSON, "", nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("GET %s: response is not JSON", path)
	}
	return json.RawMessage(body), nil
}

func (c *Client) decode(ctx context.Context, path string, out any) error {
	body, err := c.getJSON(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: failed to decode response: %w", path, err)
	}
	return nil
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.call(ctx, http.MethodDelete, path, contentJSON, "", nil)
	return err
}

// numericID validates ids for JSSResource endpoints.
func numericID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", fmt.Errorf("%w: %q is not a number", ErrInvalidID, id)
	}
	return id, nil
}

// pathID validates ids for the versioned API and escapes them.
func pathID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidID)
	}
	return url.PathEscape(id), nil
}

// Summary is a list row.
type Summary struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// FlexID accepts ids encoded as JSON numbers or strings.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}
