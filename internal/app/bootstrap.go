package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/common-nighthawk/go-figure"

	"eve/internal/config"
	"eve/pkg/logging"
)

// Application is the bootstrapped proxy.
type Application struct {
	config   *Config
	services *Services

	// mu guards config.EveConfig.Logging across reloads
	mu sync.Mutex
}

// NewApplication loads configuration, initialises logging and builds the
// proxy services. cfg.ListenAddress and cfg.Debug override config.yaml.
func NewApplication(cfg *Config) (*Application, error) {
	eveCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load eve configuration from %s: %w", cfg.ConfigPath, err)
	}
	if cfg.Overrides != nil {
		cfg.Overrides(&eveCfg)
	}
	if cfg.ListenAddress != "" {
		eveCfg.Proxy.ListenAddress = cfg.ListenAddress
	}
	if cfg.Debug {
		eveCfg.Logging.Level = "debug"
	}
	if errs := config.Validate(eveCfg); errs.HasErrors() {
		return nil, fmt.Errorf("invalid settings: %w", errs)
	}

	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	logging.Init(logging.ParseLevel(eveCfg.Logging.Level), logging.Format(eveCfg.Logging.Format), logOutput)
	logging.Info("Bootstrap", "Loaded configuration from %s", cfg.ConfigPath)

	cfg.EveConfig = &eveCfg

	services, err := InitializeServices(eveCfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, err
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the wired components.
func (a *Application) Services() *Services {
	return a.services
}

// Run listens on the configured address and serves until ctx is cancelled
// or the process is interrupted.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.services.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.services.ListenAddress, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.config.WatchConfig {
		watcher := newConfigWatcher(a.config.ConfigPath, 0, a.applyLogging)
		if err := watcher.Start(ctx); err != nil {
			logging.Warn("Bootstrap", "Config reload disabled: %v", err)
		}
	}

	a.printBanner(ln.Addr().String())
	return a.services.Server.Serve(ctx, ln)
}

// applyLogging switches to the logging settings of a reloaded config.yaml.
func (a *Application) applyLogging(cfg config.EveConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.config.EveConfig.Logging
	if a.config.Debug {
		cfg.Logging.Level = "debug"
	}
	if cfg.Logging == current {
		return
	}
	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.Format(cfg.Logging.Format), a.logOutput())
	a.config.EveConfig.Logging = cfg.Logging
	logging.Info("Bootstrap", "Reloaded logging settings: level=%s format=%s", cfg.Logging.Level, cfg.Logging.Format)
}

func (a *Application) logOutput() io.Writer {
	if a.config.LogOutput != nil {
		return a.config.LogOutput
	}
	return os.Stderr
}

func (a *Application) printBanner(addr string) {
	if !a.config.Banner || a.config.Out == nil {
		return
	}
	fmt.Fprintln(a.config.Out, figure.NewFigure("eve", "cybermedium", true).String())
	fmt.Fprintf(a.config.Out, "Proxy listening on http://%s (Ctrl+C to stop)\n\n", addr)
}
