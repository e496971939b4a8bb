package resources

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
)

// scriptDocument is the XML body accepted by the scripts endpoint.
type scriptDocument struct {
	XMLName        xml.Name `xml:"script"`
	Name           string   `xml:"name"`
	Category       string   `xml:"category"`
	Priority       string   `xml:"priority"`
	ContentEncoded string   `xml:"script_contents_encoded"`
}

// EncodeScript builds the XML document for a script named name. The
// contents are base64 encoded so shell metacharacters survive the trip.
func EncodeScript(name string, contents []byte) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("script name is required")
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("script contents are required")
	}
	return xml.MarshalIndent(scriptDocument{
		Name:           name,
		Category:       "None",
		Priority:       "Before",
		ContentEncoded: base64.StdEncoding.EncodeToString(contents),
	}, "", "\t")
}

// ListScripts returns script ids and names.
func (c *Client) ListScripts(ctx context.Context) ([]Summary, error) {
	var resp struct {
		Scripts []Summary `json:"scripts"`
	}
	if err := c.decode(ctx, "/JSSResource/scripts", &resp); err != nil {
		return nil, err
	}
	return resp.Scripts, nil
}

// GetScript returns a script as JSON.
func (c *Client) GetScript(ctx context.Context, id string) (json.RawMessage, error) {
	id, err := numericID(id)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, "/JSSResource/scripts/id/"+id)
}

// CreateScript uploads a new script.
func (c *Client) CreateScript(ctx context.Context, name string, contents []byte) ([]byte, error) {
	doc, err := EncodeScript(name, contents)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, http.MethodPost, "/JSSResource/scripts/id/0", contentXML, contentXML, doc)
}

// UpdateScript replaces the name and contents of an existing script.
func (c *Client) UpdateScript(ctx context.Context, id, name string, contents []byte) ([]byte, error) {
	id, err := numericID(id)
	if err != nil {
		return nil, err
	}
	doc, err := EncodeScript(name, contents)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, http.MethodPut, "/JSSResource/scripts/id/"+id, contentXML, contentXML, doc)
}

// DeleteScript removes a script.
func (c *Client) DeleteScript(ctx context.Context, id string) error {
	id, err := numericID(id)
	if err != nil {
		return err
	}
	return c.delete(ctx, "/JSSResource/scripts/id/"+id)
}
