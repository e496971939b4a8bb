package cli

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"eve/internal/auth"
	"eve/internal/config"
)

// Environment variables read as flag defaults.
const (
	EnvServer       = "EVE_SERVER"
	EnvPassword     = "EVE_PASSWORD"
	EnvClientSecret = "EVE_CLIENT_SECRET"
	EnvBearerToken  = "EVE_BEARER_TOKEN"
)

// CommandFlags holds the global flag values shared by every eve command.
type CommandFlags struct {
	// Server is the API host or URL; overrides server.host from config.yaml
	Server string
	// Port is appended to Server when set
	Port int
	// Insecure disables TLS certificate verification
	Insecure bool
	// Timeout bounds each outbound request; zero keeps the configured value
	Timeout time.Duration
	// ConfigPath is the directory holding config.yaml and the token record
	ConfigPath string
	// TokenFile overrides the persisted token location
	TokenFile string
	// Debug enables debug logging
	Debug bool
	// LogFormat selects text or json log lines
	LogFormat string
	// OutputFormat specifies the desired output format (table, json, yaml, console)
	OutputFormat string
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
}

// RegisterGlobalFlags registers the persistent flags on the root command.
//
// The registered flags are:
//   - --server/-s: API server (env: EVE_SERVER)
//   - --port: API port
//   - --insecure: Skip TLS verification
//   - --timeout: Per-request timeout
//   - --config-path: Configuration directory
//   - --token-file: Persisted token location
//   - --debug: Enable debug logging
//   - --log-format: Log line format (text, json)
//   - --output/-o: Output format (table, json, yaml, console)
//   - --quiet/-q: Suppress non-essential output
func RegisterGlobalFlags(cmd *cobra.Command, flags *CommandFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.Server, "server", "s", os.Getenv(EnvServer), "API server host or URL (env: "+EnvServer+")")
	pf.IntVar(&flags.Port, "port", 0, "API server port")
	pf.BoolVar(&flags.Insecure, "insecure", false, "Skip TLS certificate verification")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "Per-request timeout (default from config, 30s)")
	pf.StringVar(&flags.ConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	pf.StringVar(&flags.TokenFile, "token-file", "", "Persisted token file (default <config-path>/token.json)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&flags.LogFormat, "log-format", "", "Log format: text or json (default from config)")
	pf.StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table, json, yaml, console)")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
}

// Apply overlays the flag values on cfg.
func (f *CommandFlags) Apply(cfg *config.EveConfig) {
	if f.Server != "" {
		cfg.Server.Host = f.Server
		cfg.Server.Port = f.Port
	} else if f.Port != 0 {
		cfg.Server.Port = f.Port
	}
	if f.Insecure {
		cfg.Server.InsecureSkipVerify = true
	}
	if f.Timeout > 0 {
		cfg.Server.Timeout = f.Timeout
	}
	if f.TokenFile != "" {
		cfg.Auth.TokenFile = f.TokenFile
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFormat != "" {
		cfg.Logging.Format = f.LogFormat
	}
}

// CredentialFlags holds the credential flags of commands that authenticate.
type CredentialFlags struct {
	Username     string
	Password     string
	BasicAuth    string
	ClientID     string
	ClientSecret string
	BearerToken  string
}

// errAmbiguousCredential is returned when flags for several methods are set.
var errAmbiguousCredential = errors.New("credential flags for more than one authentication method were given")

// RegisterCredentialFlags registers the credential flags on cmd.
func RegisterCredentialFlags(cmd *cobra.Command, flags *CredentialFlags) {
	f := cmd.Flags()
	f.StringVarP(&flags.Username, "username", "u", "", "Username for the password grant")
	f.StringVarP(&flags.Password, "password", "p", os.Getenv(EnvPassword), "Password (env: "+EnvPassword+"; prompted when omitted)")
	f.StringVar(&flags.BasicAuth, "basic-auth", "", "Pre-encoded base64(user:password)")
	f.StringVar(&flags.ClientID, "client-id", "", "API client id for the client-credentials grant")
	f.StringVar(&flags.ClientSecret, "client-secret", os.Getenv(EnvClientSecret), "API client secret (env: "+EnvClientSecret+")")
	f.StringVar(&flags.BearerToken, "bearer-token", os.Getenv(EnvBearerToken), "Pre-issued bearer token (env: "+EnvBearerToken+")")
}

// Credential builds the credential described by the flags. It returns nil
// when no credential flag was given. A username without a password is
// completed through prompt when prompt is not nil.
func (f CredentialFlags) Credential(prompt Prompter) (auth.Credential, error) {
	var creds []auth.Credential
	if f.Username != "" {
		password := f.Password
		if password == "" && prompt != nil {
			p, err := prompt.Password("Password for " + f.Username + ": ")
			if err != nil {
				return nil, err
			}
			password = p
		}
		creds = append(creds, auth.UsernamePassword{Username: f.Username, Password: password})
	}
	if f.BasicAuth != "" {
		creds = append(creds, auth.BasicAuthToken{Encoded: f.BasicAuth})
	}
	if f.ClientID != "" {
		creds = append(creds, auth.APIClientCredentials{ClientID: f.ClientID, ClientSecret: f.ClientSecret})
	}
	if f.BearerToken != "" {
		creds = append(creds, auth.PreissuedBearer{Token: f.BearerToken})
	}

	switch len(creds) {
	case 0:
		return nil, nil
	case 1:
		if err := auth.ValidateCredential(creds[0]); err != nil {
			return nil, err
		}
		return creds[0], nil
	default:
		return nil, errAmbiguousCredential
	}
}
