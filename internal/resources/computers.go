package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ListComputers returns every computer record.
func (c *Client) ListComputers(ctx context.Context) ([]Summary, error) {
	var resp struct {
		Computers []Summary `json:"computers"`
	}
	if err := c.decode(ctx, "/JSSResource/computers", &resp); err != nil {
		return nil, err
	}
	return resp.Computers, nil
}

// SearchComputers matches term anywhere in name, serial, udid and the other
// fields the server indexes.
func (c *Client) SearchComputers(ctx context.Context, term string) ([]Summary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidID)
	}
	if !strings.HasPrefix(term, "*") {
		term = "*" + term
	}
	if !strings.HasSuffix(term, "*") {
		term += "*"
	}

	var resp struct {
		Computers []Summary `json:"computers"`
	}
	if err := c.decode(ctx, "/JSSResource/computers/match/"+url.PathEscape(term), &resp); err != nil {
		return nil, err
	}
	return resp.Computers, nil
}

// GetComputer returns a computer by numeric id.
func (c *Client) GetComputer(ctx context.Context, id string) (json.RawMessage, error) {
	id, err := numericID(id)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, "/JSSResource/computers/id/"+id)
}

// GetComputerByUDID returns a computer by hardware udid.
func (c *Client) GetComputerByUDID(ctx context.Context, udid string) (json.RawMessage, error) {
	udid, err := pathID(udid)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, "/JSSResource/computers/udid/"+udid)
}
