package config

import "time"

const (
	// DefaultPasswordGrantPath is the token endpoint for basic-auth logins.
	DefaultPasswordGrantPath = "/api/v1/auth/token"

	// DefaultClientCredentialsPath is the OAuth2 client-credentials endpoint.
	DefaultClientCredentialsPath = "/api/oauth/token"

	// DefaultListenAddress is where `eve serve` listens.
	DefaultListenAddress = "localhost:8003"

	// DefaultTimeout bounds every outbound request.
	DefaultTimeout = 30 * time.Second
)

// GetDefaultConfig returns the default configuration for eve.
// No server is configured by default.
func GetDefaultConfig() EveConfig {
	return EveConfig{
		Server: ServerConfig{
			Timeout: DefaultTimeout,
		},
		Auth: AuthConfig{
			PasswordGrantPath:     DefaultPasswordGrantPath,
			ClientCredentialsPath: DefaultClientCredentialsPath,
			DefaultTokenLifetime:  time.Hour,
		},
		Proxy: ProxyConfig{
			ListenAddress: DefaultListenAddress,
			AuthRateLimit: 1,
			AuthBurst:     5,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
