// Package app bootstraps the `eve serve` proxy.
//
// Bootstrapping happens in two phases. NewApplication loads config.yaml,
// initialises logging and builds the services: the HTTP executor, the
// authenticator, a session manager that keeps sessions in memory only, the
// Prometheus metrics and the proxy server. Run then serves until the
// context is cancelled or the process receives SIGINT or SIGTERM.
//
//	cfg := app.NewConfig(false, "/home/me/.config/eve", "127.0.0.1:9000")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Proxy sessions are never written to the CLI token file; each browser
// session authenticates through POST /api/authenticate.
package app
