package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"

	"eve/internal/auth"
	"eve/internal/config"
	"eve/internal/formatting"
	"eve/internal/resources"
	"eve/internal/transport"
	"eve/pkg/logging"
)

// Streams are the command's output streams.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

// Runtime is the per-invocation state shared by CLI commands: the resolved
// configuration, the HTTP executor and the session manager backed by the
// persisted token record.
type Runtime struct {
	Config     config.EveConfig
	ConfigPath string

	Executor      *transport.Executor
	Authenticator *auth.HTTPAuthenticator
	Store         *auth.FileStore
	Manager       *auth.Manager

	flags   CommandFlags
	streams Streams
	format  formatting.OutputFormat
}

// NewRuntime loads config.yaml from flags.ConfigPath, applies the flag
// overrides, initialises logging and builds the session manager.
func NewRuntime(flags CommandFlags, streams Streams) (*Runtime, error) {
	if streams.Out == nil {
		streams.Out = os.Stdout
	}
	if streams.Err == nil {
		streams.Err = os.Stderr
	}

	configPath := flags.ConfigPath
	if configPath == "" {
		p, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	flags.Apply(&cfg)
	if errs := config.Validate(cfg); errs.HasErrors() {
		return nil, fmt.Errorf("invalid settings: %w", errs)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.Format(cfg.Logging.Format), streams.Err)

	format, err := formatting.ParseFormat(flags.OutputFormat)
	if err != nil {
		return nil, err
	}

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
	store, err := auth.NewFileStore(config.TokenFilePath(cfg, configPath))
	if err != nil {
		return nil, err
	}
	manager, err := auth.NewManager(auth.ManagerConfig{
		Authenticator: authn,
		Sender:        exec,
		Persister:     store,
		NewSessionID:  func() string { return "cli" },
	})
	if err != nil {
		return nil, err
	}

	if cfg.Server.InsecureSkipVerify {
		logging.Warn("CLI", "TLS certificate verification is disabled")
	}

	return &Runtime{
		Config:        cfg,
		ConfigPath:    configPath,
		Executor:      exec,
		Authenticator: authn,
		Store:         store,
		Manager:       manager,
		flags:         flags,
		streams:       streams,
		format:        format,
	}, nil
}

// Server resolves the target API: an explicit host (flag or config) wins,
// then the server of the persisted token record.
func (r *Runtime) Server() (string, error) {
	return config.ResolveServer(r.Config.Server.Host, r.Config.Server.Port, r.Store.CachedServer())
}

// Login authenticates from scratch with cred and persists the token.
func (r *Runtime) Login(ctx context.Context, cred auth.Credential) (*auth.Session, error) {
	server, err := r.Server()
	if err != nil {
		return nil, Classify(err, "")
	}

	var s *spinner.Spinner
	if !r.flags.Quiet && cred.Kind() != auth.KindBearer {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.streams.Err))
		s.Suffix = " Authenticating to " + server + "..."
		s.Start()
	}

	session, err := r.Manager.Authenticate(ctx, server, cred)

	if s != nil {
		if err != nil {
			s.FinalMSG = text.FgRed.Sprint("Authentication failed") + "\n"
		}
		s.Stop()
	}
	if err != nil {
		return nil, Classify(err, server)
	}
	return session, nil
}

// Session opens a session for a command. With a credential the command
// authenticates as that identity and replaces the persisted token; without
// one the persisted token is the only option.
func (r *Runtime) Session(ctx context.Context, cred auth.Credential) (*auth.Session, error) {
	server, err := r.Server()
	if err != nil {
		return nil, Classify(err, "")
	}

	var session *auth.Session
	if cred != nil {
		session, err = r.Manager.Authenticate(ctx, server, cred)
	} else {
		session, err = r.Manager.Resume(server)
	}
	if err != nil {
		return nil, Classify(err, server)
	}
	return session, nil
}

// Client returns a resource client bound to session.
func (r *Runtime) Client(session *auth.Session) *resources.Client {
	return resources.New(resources.SessionDoer{Manager: r.Manager, Session: session})
}

// Fail converts err for display and exit code selection.
func (r *Runtime) Fail(session *auth.Session, err error) error {
	server := ""
	if session != nil {
		server = session.Server()
	}
	return Classify(err, server)
}

// Formatter returns the formatter for the selected --output format.
func (r *Runtime) Formatter() formatting.Formatter {
	return formatting.New(formatting.Options{
		Format: r.format,
		Quiet:  r.flags.Quiet,
		Color:  r.format == formatting.FormatTable,
		Out:    r.streams.Out,
	})
}

// Format is the selected --output format.
func (r *Runtime) Format() formatting.OutputFormat {
	return r.format
}

// Printf writes a progress or confirmation message to stderr unless
// --quiet was given.
func (r *Runtime) Printf(format string, args ...any) {
	if r.flags.Quiet {
		return
	}
	fmt.Fprintf(r.streams.Err, format, args...)
}

// Out is the command's standard output.
func (r *Runtime) Out() io.Writer {
	return r.streams.Out
}
