package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	apiRolesPath   = "/api/v1/api-roles"
	apiClientsPath = "/api/v1/api-integrations"
)

// pagedResponse is the list envelope of the versioned API.
type pagedResponse struct {
	TotalCount int `json:"totalCount"`
	Results    []struct {
		ID          FlexID `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"results"`
}

func (p pagedResponse) summaries() []Summary {
	out := make([]Summary, 0, len(p.Results))
	for _, r := range p.Results {
		out = append(out, Summary{ID: r.ID, Name: r.DisplayName})
	}
	return out
}

// ClientCredentials is a freshly issued API client secret. The secret is
// only returned once by the server.
type ClientCredentials struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

func (c ClientCredentials) String() string {
	return fmt.Sprintf("ClientCredentials{ClientID: %s, ClientSecret: [REDACTED]}", c.ClientID)
}

func (c *Client) listPaged(ctx context.Context, path string) ([]Summary, error) {
	var resp pagedResponse
	if err := c.decode(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.summaries(), nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s %s: request body is not valid JSON", method, path)
	}
	out, err := c.call(ctx, method, path, contentJSON, contentJSON, body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

// ListAPIRoles returns API role ids and display names.
func (c *Client) ListAPIRoles(ctx context.Context) ([]Summary, error) {
	return c.listPaged(ctx, apiRolesPath)
}

// GetAPIRole returns one API role.
func (c *Client) GetAPIRole(ctx context.Context, id string) (json.RawMessage, error) {
	id, err := pathID(id)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, apiRolesPath+"/"+id)
}

// CreateAPIRole creates a role from its JSON definition.
func (c *Client) CreateAPIRole(ctx context.Context, body []byte) (json.RawMessage, error) {
	return c.sendJSON(ctx, http.MethodPost, apiRolesPath, body)
}

// UpdateAPIRole replaces a role definition.
func (c *Client) UpdateAPIRole(ctx context.Context, id string, body []byte) (json.RawMessage, error) {
	id, err := pathID(id)
	if err != nil {
		return nil, err
	}
	return c.sendJSON(ctx, http.MethodPut, apiRolesPath+"/"+id, body)
}

// DeleteAPIRole removes a role.
func (c *Client) DeleteAPIRole(ctx context.Context, id string) error {
	id, err := pathID(id)
	if err != nil {
		return err
	}
	return c.delete(ctx, apiRolesPath+"/"+id)
}

// ListAPIClients returns API client ids and display names.
func (c *Client) ListAPIClients(ctx context.Context) ([]Summary, error) {
	return c.listPaged(ctx, apiClientsPath)
}

// GetAPIClient returns one API client.
func (c *Client) GetAPIClient(ctx context.Context, id string) (json.RawMessage, error) {
	id, err := pathID(id)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, apiClientsPath+"/"+id)
}

// CreateAPIClient creates an API client from its JSON definition.
func (c *Client) CreateAPIClient(ctx context.Context, body []byte) (json.RawMessage, error) {
	return c.sendJSON(ctx, http.MethodPost, apiClientsPath, body)
}

// UpdateAPIClient replaces an API client definition.
func (c *Client) UpdateAPIClient(ctx context.Context, id string, body []byte) (json.RawMessage, error) {
	id, err := pathID(id)
	if err != nil {
		return nil, err
	}
	return c.sendJSON(ctx, http.MethodPut, apiClientsPath+"/"+id, body)
}

// DeleteAPIClient removes an API client.
func (c *Client) DeleteAPIClient(ctx context.Context, id string) error {
	id, err := pathID(id)
	if err != nil {
		return err
	}
	return c.delete(ctx, apiClientsPath+"/"+id)
}

// RotateClientCredentials issues a new secret for an API client. Previous
// secrets stop working.
func (c *Client) RotateClientCredentials(ctx context.Context, id string) (ClientCredentials, error) {
	id, err := pathID(id)
	if err != nil {
		return ClientCredentials{}, err
	}
	path := apiClientsPath + "/" + id + "/client-credentials"
	body, err := c.call(ctx, http.MethodPost, path, contentJSON, "", nil)
	if err != nil {
		return ClientCredentials{}, err
	}
	var creds ClientCredentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return ClientCredentials{}, fmt.Errorf("POST %s: failed to decode credentials: %w", path, err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return ClientCredentials{}, fmt.Errorf("POST %s: response has no credentials", path)
	}
	return creds, nil
}
