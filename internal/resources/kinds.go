package resources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupported is returned when a kind does not support an operation.
var ErrUnsupported = errors.New("operation not supported for this kind")

// Input carries a create or update payload. Body is the resource definition
// in the kind's Format; for scripts Body is the script itself and Name its
// display name.
type Input struct {
	Name string
	Body []byte
}

// Kind describes one resource type. Nil operations are unsupported.
type Kind struct {
	Name        string
	Aliases     []string
	Description string
	// Format of create/update bodies: "json", "xml" or "script".
	Format string

	List   func(ctx context.Context, c *Client) ([]Summary, error)
	Get    func(ctx context.Context, c *Client, id string) ([]byte, error)
	Create func(ctx context.Context, c *Client, in Input) ([]byte, error)
	Update func(ctx context.Context, c *Client, id string, in Input) ([]byte, error)
	Delete func(ctx context.Context, c *Client, id string) error
}

var kinds = []Kind{
	{
		Name:        "accounts",
		Aliases:     []string{"account", "users", "user"},
		Description: "User accounts",
		Format:      "xml",
		List: func(ctx context.Context, c *Client) ([]Summary, error) {
			return c.ListAccounts(ctx)
		},
		Get: func(ctx context.Context, c *Client, id string) ([]byte, error) {
			return c.GetAccount(ctx, id)
		},
		Create: func(ctx context.Context, c *Client, in Input) ([]byte, error) {
			return c.CreateAccount(ctx, in.Body)
		},
		Delete: func(ctx context.Context, c *Client, id string) error {
			return c.DeleteAccount(ctx, id)
		},
	},
	{
		Name:        "groups",
		Aliases:     []string{"group"},
		Description: "Account groups",
		List: func(ctx context.Context, c *Client) ([]Summary, error) {
			return c.ListGroups(ctx)
		},
		Get: func(ctx context.Context, c *Client, id string) ([]byte, error) {
			return c.GetGroup(ctx, id)
		},
	},
	{
		Name:        "computers",
		Aliases:     []string{"computer"},
		Description: "Computer inventory records",
		List: func(ctx context.Context, c *Client) ([]Summary, error) {
			return c.ListComputers(ctx)
		},
		Get: func(ctx context.Context, c *Client, id string) ([]byte, error) {
			return c.GetComputer(ctx, id)
		},
	},
	{
		Name:        "policies",
		Aliases:     []string{"policy"},
		Description: "Policies (XML definitions)",
		Format:      "xml",
		List: func(ctx context.Context, c *Client) ([]Summary, error) {
			return c.ListPolicies(ctx)
		},
		Get: func(ctx context.Context, c *Client, id string) ([]byte, error) {
			return c.GetPolicy(ctx, id)
		},
		Create: func(ctx context.Context, c *Client, in Input) ([]byte, error) {
			return c.CreatePolicyXML(ctx, in.Body)
		},
		Update: func(ctx context.Context, c *Client, id string, in Input) ([]byte, error) {
			return c.UpdatePolicyXML(ctx, id, in.Body)
		},
		Delete: func(ctx context.Context, c *Client, id string) error {
			return c.DeletePolicy(ctx, id)
		},
	},
	{
		Name:        "scripts",
		Aliases:     []string{"script"},
		Description: "Scripts",
		Format:      "script",
		List: func(ctx context.Context, c *Client) ([]Summary, error) {
			return c.ListScripts(ctx)
		},
		Get: func(ctx context.Context, c *Client, id string) ([]byte, error) {
			return c.GetScript(ctx, id)
		},
		Create: func(ctx context.Context, c *Client, in Input) ([]byte, error) {
			return c.CreateScript(ctx, in.Name, in.Body)
		},
		Update: func(ctx context.Context, c *Client, id string, in Input) ([]byte, error) {
			return c.UpdateScript(ctx, id, in.Name, in.Body)
		},
		Delete: func(ctx context.Context, c *Client, id string) error {
			return c.DeleteScript(ctx, id)
		},
	},
	{
		Name:        "api-roles",
		Aliases:     []string{"api-role", "roles"},
		Description: "API roles",
		Format:      "json",
		List: func(ctx context.Context, c *Client) ([]Summary, error) {
			return c.ListAPIRoles(ctx)
		},
		Get: func(ctx context.Context, c *Client, id string) ([]byte, error) {
			return c.GetAPIRole(ctx, id)
		},
		Create: func(ctx context.Context, c *Client, in Input) ([]byte, error) {
			return c.CreateAPIRole(ctx, in.Body)
		},
		Update: func(ctx context.Context, c *Client, id string, in Input) ([]byte, error) {
			return c.UpdateAPIRole(ctx, id, in.Body)
		},
		Delete: func(ctx context.Context, c *Client, id string) error {
			return c.DeleteAPIRole(ctx, id)
		},
	},
	{
		Name:        "api-clients",
		Aliases:     []string{"api-client", "api-integrations"},
		Description: "API clients",
		Format:      "json",
		List: func(ctx context.Context, c *Client) ([]Summary, error) {
			return c.ListAPIClients(ctx)
		},
		Get: func(ctx context.Context, c *Client, id string) ([]byte, error) {
			return c.GetAPIClient(ctx, id)
		},
		Create: func(ctx context.Context, c *Client, in Input) ([]byte, error) {
			return c.CreateAPIClient(ctx, in.Body)
		},
		Update: func(ctx context.Context, c *Client, id string, in Input) ([]byte, error) {
			return c.UpdateAPIClient(ctx, id, in.Body)
		},
		Delete: func(ctx context.Context, c *Client, id string) error {
			return c.DeleteAPIClient(ctx, id)
		},
	},
}

// Kinds returns every resource kind ordered by name.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// KindNames returns the canonical kind names.
func KindNames() []string {
	var names []string
	for _, k := range Kinds() {
		names = append(names, k.Name)
	}
	return names
}

// LookupKind finds a kind by name or alias, case-insensitively.
func LookupKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range kinds {
		if k.Name == name {
			return k, nil
		}
		for _, a := range k.Aliases {
			if a == name {
				return k, nil
			}
		}
	}
	return Kind{}, fmt.Errorf("unknown resource kind %q (known: %s)", name, strings.Join(KindNames(), ", "))
}

// Unsupported wraps ErrUnsupported with the kind and operation.
func (k Kind) Unsupported(op string) error {
	return fmt.Errorf("%w: %s %s", ErrUnsupported, op, k.Name)
}

// Operations lists the operations k supports, in list/get/create/update/delete
// order.
func (k Kind) Operations() []string {
	var ops []string
	if k.List != nil {
		ops = append(ops, "list")
	}
	if k.Get != nil {
		ops = append(ops, "get")
	}
	if k.Create != nil {
		ops = append(ops, "create")
	}
	if k.Update != nil {
		ops = append(ops, "update")
	}
	if k.Delete != nil {
		ops = append(ops, "delete")
	}
	return ops
}
