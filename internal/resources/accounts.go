package resources

import (
	"context"
	"encoding/json"
	"net/http"
)

type accountsResponse struct {
	Accounts struct {
		Users  []Summary `json:"users"`
		Groups []Summary `json:"groups"`
	} `json:"accounts"`
}

// ListAccounts returns the user accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]Summary, error) {
	var resp accountsResponse
	if err := c.decode(ctx, "/JSSResource/accounts", &resp); err != nil {
		return nil, err
	}
	return resp.Accounts.Users, nil
}

// ListGroups returns the account groups.
func (c *Client) ListGroups(ctx context.Context) ([]Summary, error) {
	var resp accountsResponse
	if err := c.decode(ctx, "/JSSResource/accounts", &resp); err != nil {
		return nil, err
	}
	return resp.Accounts.Groups, nil
}

// GetAccount returns one user account.
func (c *Client) GetAccount(ctx context.Context, id string) (json.RawMessage, error) {
	id, err := numericID(id)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, "/JSSResource/accounts/userid/"+id)
}

// GetGroup returns one account group.
func (c *Client) GetGroup(ctx context.Context, id string) (json.RawMessage, error) {
	id, err := numericID(id)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, "/JSSResource/accounts/groupid/"+id)
}

// CreateAccount creates a user account from its XML definition.
func (c *Client) CreateAccount(ctx context.Context, xmlBody []byte) ([]byte, error) {
	return c.call(ctx, http.MethodPost, "/JSSResource/accounts/userid/0", contentJSON, contentXML, xmlBody)
}

// DeleteAccount removes a user account.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	id, err := numericID(id)
	if err != nil {
		return err
	}
	return c.delete(ctx, "/JSSResource/accounts/userid/"+id)
}
