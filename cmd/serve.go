package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"eve/internal/app"
)

var (
	// serveListen overrides proxy.listenAddress from config.yaml
	serveListen string
	serveWatch  bool
)

// serveCmd starts the local proxy.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local authenticating proxy",
	Long: `Starts an HTTP proxy that a browser UI or script can use to call the API
server without handling tokens itself.

Clients authenticate with POST /api/authenticate and receive a session id.
Later calls carry it in the X-Session-ID header; the proxy attaches the
session's token and refreshes it when it expires. Sessions are kept in
memory only and are lost when the proxy stops.

Routes:
  GET  /health
  GET  /metrics
  POST /api/authenticate
  POST /api/logout
  GET  /api/token/status
  *    /api/jamf/{path}             passthrough to the API server
  GET  /api/resources               supported kinds
  *    /api/resources/{kind}[/{id}] list, get, create, update, delete

Configuration is read from <config-path>/config.yaml (section "proxy").`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := app.NewConfig(globalFlags.Debug, globalFlags.ConfigPath, serveListen)
	cfg.Overrides = globalFlags.Apply
	cfg.WatchConfig = serveWatch
	cfg.Banner = !globalFlags.Quiet
	cfg.Out = cmd.OutOrStdout()
	cfg.LogOutput = cmd.ErrOrStderr()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config, localhost:8003)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch-config", true, "Reload logging settings when config.yaml changes")
	rootCmd.AddCommand(serveCmd)
}
