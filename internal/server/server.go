package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"eve/internal/auth"
	"eve/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
	// DefaultShutdownTimeout bounds the graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures the proxy listener.
type Config struct {
	ListenAddress string
	// AuthRateLimit is the sustained /api/authenticate rate per client
	// address in requests per second. Zero disables limiting.
	AuthRateLimit float64
	AuthBurst     int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// Server is the proxy HTTP server.
type Server struct {
	cfg     Config
	manager *auth.Manager
	metrics *Metrics
	limiter *ipLimiter
	ids     *requestIDs
	handler http.Handler
}

// New builds the proxy around manager. metrics may be nil, in which case a
// private registry is created; pass the same Metrics used as the manager's
// Observer to get token counters on /metrics.
func New(cfg Config, manager *auth.Manager, metrics *Metrics) (*Server, error) {
	if manager == nil {
		return nil, errors.New("session manager is required")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	metrics.trackSessions(manager.Store())

	s := &Server{
		cfg:     cfg,
		manager: manager,
		metrics: metrics,
		limiter: newIPLimiter(cfg.AuthRateLimit, cfg.AuthBurst),
		ids:     newRequestIDs(),
	}
	s.handler = s.instrument(recoverPanics(s.routes()))
	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /api/authenticate", s.limiter.wrap(s.handleAuthenticate))
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/token/status", s.handleTokenStatus)
	mux.HandleFunc("POST /api/token/refresh", s.handleTokenRefresh)

	mux.HandleFunc(passthroughPrefix+"/{path...}", s.handlePassthrough)

	mux.HandleFunc("GET /api/resources", s.handleListKinds)
	mux.HandleFunc("GET /api/resources/{kind}", s.handleListResources)
	mux.HandleFunc("POST /api/resources/{kind}", s.handleCreateResource)
	mux.HandleFunc("GET /api/resources/{kind}/{id}", s.handleGetResource)
	mux.HandleFunc("PUT /api/resources/{kind}/{id}", s.handleUpdateResource)
	mux.HandleFunc("DELETE /api/resources/{kind}/{id}", s.handleDeleteResource)
	mux.HandleFunc("POST /api/resources/api-clients/{id}/client-credentials", s.handleRotateCredentials)
	mux.HandleFunc("GET /api/computers/search/{term}", s.handleSearchComputers)
	mux.HandleFunc("GET /api/computers/udid/{udid}", s.handleComputerByUDID)

	return mux
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	logging.Info("Proxy", "Listening on http://%s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("proxy server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info("Proxy", "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down proxy server: %w", err)
	}
	<-errCh
	return nil
}
