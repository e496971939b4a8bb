package config

import "time"

// EveConfig is the top-level configuration structure for eve.
type EveConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the remote device-management API.
type ServerConfig struct {
	Host               string        `yaml:"host,omitempty"`               // API host, with or without scheme
	Port               int           `yaml:"port,omitempty"`               // Optional port appended to Host
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify,omitempty"` // Disable TLS verification (self-signed lab servers only)
	Timeout            time.Duration `yaml:"timeout,omitempty"`            // Per-request timeout (default: 30s)
	UserAgent          string        `yaml:"userAgent,omitempty"`
}

// AuthConfig holds token endpoint paths and token caching settings.
type AuthConfig struct {
	PasswordGrantPath     string        `yaml:"passwordGrantPath,omitempty"`
	ClientCredentialsPath string        `yaml:"clientCredentialsPath,omitempty"`
	DefaultTokenLifetime  time.Duration `yaml:"defaultTokenLifetime,omitempty"` // Used when a token response has no expiry
	TokenFile             string        `yaml:"tokenFile,omitempty"`            // Persisted token record (default: ~/.config/eve/token.json)
}

// ProxyConfig configures `eve serve`.
type ProxyConfig struct {
	ListenAddress string `yaml:"listenAddress,omitempty"` // default: localhost:8003
	// AuthRateLimit is the sustained number of /api/authenticate calls per
	// second allowed from one client address.
	AuthRateLimit float64       `yaml:"authRateLimit,omitempty"`
	AuthBurst     int           `yaml:"authBurst,omitempty"`
	ReadTimeout   time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout  time.Duration `yaml:"writeTimeout,omitempty"`
}

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}
