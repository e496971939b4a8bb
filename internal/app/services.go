package app

import (
	"fmt"

	"eve/internal/auth"
	"eve/internal/config"
	"eve/internal/server"
	"eve/internal/transport"
	"eve/pkg/logging"
)

// Services holds the components the proxy is built from.
type Services struct {
	Executor      *transport.Executor
	Authenticator *auth.HTTPAuthenticator
	Manager       *auth.Manager
	Metrics       *server.Metrics
	Server        *server.Server

	// ListenAddress is the resolved proxy listen address.
	ListenAddress string
}

// InitializeServices wires the proxy from cfg. The manager reports token and
// eviction events to the metrics, and has no persister: proxy sessions live
// only in memory.
func InitializeServices(cfg config.EveConfig) (*Services, error) {
	exec := transport.New(transport.Config{
		Timeout:   cfg.Server.Timeout,
		Insecure:  cfg.Server.InsecureSkipVerify,
		UserAgent: cfg.Server.UserAgent,
	})
	authn := auth.NewHTTPAuthenticator(auth.HTTPAuthenticatorConfig{
		Executor:              exec,
		PasswordGrantPath:     cfg.Auth.PasswordGrantPath,
		ClientCredentialsPath: cfg.Auth.ClientCredentialsPath,
		DefaultLifetime:       cfg.Auth.DefaultTokenLifetime,
	})

	metrics := server.NewMetrics()
	manager, err := auth.NewManager(auth.ManagerConfig{
		Authenticator: authn,
		Sender:        exec,
		Observer:      metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	srv, err := server.New(server.Config{
		ListenAddress: cfg.Proxy.ListenAddress,
		AuthRateLimit: cfg.Proxy.AuthRateLimit,
		AuthBurst:     cfg.Proxy.AuthBurst,
		ReadTimeout:   cfg.Proxy.ReadTimeout,
		WriteTimeout:  cfg.Proxy.WriteTimeout,
	}, manager, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy server: %w", err)
	}

	if cfg.Server.InsecureSkipVerify {
		logging.Warn("Bootstrap", "TLS certificate verification is disabled for upstream requests")
	}
	if cfg.Proxy.AuthRateLimit <= 0 {
		logging.Warn("Bootstrap", "Authentication rate limiting is disabled")
	}

	return &Services{
		Executor:      exec,
		Authenticator: authn,
		Manager:       manager,
		Metrics:       metrics,
		Server:        srv,
		ListenAddress: cfg.Proxy.ListenAddress,
	}, nil
}
