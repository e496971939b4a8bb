package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListPolicies returns policy ids and names.
func (c *Client) ListPolicies(ctx context.Context) ([]Summary, error) {
	var resp struct {
		Policies []Summary `json:"policies"`
	}
	if err := c.decode(ctx, "/JSSResource/policies", &resp); err != nil {
		return nil, err
	}
	return resp.Policies, nil
}

// GetPolicy returns a policy as JSON.
func (c *Client) GetPolicy(ctx context.Context, id string) (json.RawMessage, error) {
	id, err := numericID(id)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, "/JSSResource/policies/id/"+id)
}

// GetPolicyXML returns a policy in its XML form, suitable for editing and
// passing back to UpdatePolicyXML.
func (c *Client) GetPolicyXML(ctx context.Context, id string) ([]byte, error) {
	id, err := numericID(id)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, http.MethodGet, "/JSSResource/policies/id/"+id, contentXML, "", nil)
}

// CreatePolicyXML creates a policy. The server answers with the new id in XML.
func (c *Client) CreatePolicyXML(ctx context.Context, xmlBody []byte) ([]byte, error) {
	if len(xmlBody) == 0 {
		return nil, fmt.Errorf("policy XML is required")
	}
	return c.call(ctx, http.MethodPost, "/JSSResource/policies/id/0", contentXML, contentXML, xmlBody)
}

// UpdatePolicyXML replaces a policy definition.
func (c *Client) UpdatePolicyXML(ctx context.Context, id string, xmlBody []byte) ([]byte, error) {
	id, err := numericID(id)
	if err != nil {
		return nil, err
	}
	if len(xmlBody) == 0 {
		return nil, fmt.Errorf("policy XML is required")
	}
	return c.call(ctx, http.MethodPut, "/JSSResource/policies/id/"+id, contentXML, contentXML, xmlBody)
}

// DeletePolicy removes a policy.
func (c *Client) DeletePolicy(ctx context.Context, id string) error {
	id, err := numericID(id)
	if err != nil {
		return err
	}
	return c.delete(ctx, "/JSSResource/policies/id/"+id)
}
