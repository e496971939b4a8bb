package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var (
	requestData    string
	requestFile    string
	requestHeaders []string
	requestRaw     bool
)

// requestCmd sends an arbitrary authenticated request, like the proxy's
// passthrough route.
var requestCmd = &cobra.Command{
	Use:   "request METHOD PATH",
	Short: "Send an authenticated request to any API path",
	Long: `Send an authenticated request to the API server and print the response.

The token is attached and refreshed as needed. Paths are relative to the
server root, for example /JSSResource/buildings or /api/v1/departments.`,
	Example: `  eve request GET /api/v1/departments
  eve request POST /api/v1/departments -d '{"name":"Design"}'
  eve request PUT /JSSResource/buildings/id/3 -f building.xml -H "Content-Type: application/xml"`,
	Args: cobra.ExactArgs(2),
	RunE: runRequest,
}

func runRequest(cmd *cobra.Command, args []string) error {
	method := strings.ToUpper(args[0])
	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	header := http.Header{}
	for _, h := range requestHeaders {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("invalid header %q: expected \"Name: value\"", h)
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	body, err := readPayload(cmd, requestFile, requestData)
	if err != nil {
		return err
	}
	if len(body) > 0 && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	if header.Get("Accept") == "" {
		header.Set("Accept", "application/json")
	}

	rt, session, err := openSession(cmd)
	if err != nil {
		return err
	}
	resp, err := rt.Client(session).Raw(cmd.Context(), method, path, header, body)
	if err != nil {
		return rt.Fail(session, err)
	}

	if requestRaw {
		_, err := cmd.OutOrStdout().Write(resp.Body)
		if err == nil && resp.Status >= 300 {
			err = fmt.Errorf("%s %s returned status %d", method, path, resp.Status)
		}
		return err
	}
	if len(resp.Body) > 0 {
		if err := rt.Formatter().FormatDocument(resp.Body); err != nil {
			return err
		}
	}
	if resp.Status >= 300 {
		return fmt.Errorf("%s %s returned status %d", method, path, resp.Status)
	}
	return nil
}

func init() {
	requestCmd.Flags().StringVarP(&requestData, "data", "d", "", "Request body")
	requestCmd.Flags().StringVarP(&requestFile, "file", "f", "", "Read the request body from a file, or - for stdin")
	requestCmd.Flags().StringArrayVarP(&requestHeaders, "header", "H", nil, "Extra request header (repeatable)")
	requestCmd.Flags().BoolVar(&requestRaw, "raw", false, "Print the response body unformatted")
	registerSessionFlags(requestCmd)
	rootCmd.AddCommand(requestCmd)
}
