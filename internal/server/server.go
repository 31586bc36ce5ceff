// ABOUTME: Server orchestrator that wires the store, auth service, dataset, and web UI
// ABOUTME: Manages the HTTP server, the expired-session sweeper, and shutdown

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/2389/salesboard/internal/auth"
	"github.com/2389/salesboard/internal/config"
	"github.com/2389/salesboard/internal/sales"
	"github.com/2389/salesboard/internal/store"
	"github.com/2389/salesboard/internal/webui"
)

// Server owns every long-lived component of a running dashboard.
type Server struct {
	config     *config.Config
	store      store.Store
	auth       *auth.Service
	loader     *sales.Loader
	ui         *webui.UI
	httpServer *http.Server
	logger     *slog.Logger

	// sweeper lifecycle
	stopSweep context.CancelFunc
	sweepWG   sync.WaitGroup

	// dataset reload on SIGHUP
	stopReload context.CancelFunc
	reloadWG   sync.WaitGroup
}

// AuthOptions maps configuration onto auth service options.
func AuthOptions(cfg *config.Config, logger *slog.Logger) auth.Options {
	return auth.Options{
		Iterations:           cfg.Auth.PBKDF2Iterations,
		SessionTTL:           cfg.Auth.SessionDuration,
		RestoreLatestSession: cfg.Auth.RestoreLatestSession,
		Logger:               logger.With("component", "auth"),
	}
}

// UIOptions maps configuration onto web UI settings.
func UIOptions(cfg *config.Config) webui.Config {
	return webui.Config{
		PreviewRows:      cfg.UI.PreviewRows,
		TopProducts:      cfg.UI.TopProducts,
		MaxLoginFailures: cfg.UI.MaxLoginFailures,
		FailureWindow:    cfg.UI.FailureWindow,
	}
}

// initStore opens the configured credential/session store.
func initStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.Location())
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
	}
	return s, nil
}

// New builds a Server from cfg. Nothing listens until Run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	src, err := sales.SourceFor(ctx, cfg.Data.SalesCSV, cfg.Data.S3)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("resolving sales data source: %w", err)
	}

	return newWithStore(cfg, st, sales.NewLoader(src), logger)
}

// newWithStore assembles the server around an already-open store.
func newWithStore(cfg *config.Config, st store.Store, loader *sales.Loader, logger *slog.Logger) (*Server, error) {
	svc := auth.NewService(st, st, AuthOptions(cfg, logger))

	ui, err := webui.New(svc, loader, UIOptions(cfg))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("creating web UI: %w", err)
	}

	srv := &Server{
		config: cfg,
		store:  st,
		auth:   svc,
		loader: loader,
		ui:     ui,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /ready", srv.handleReady)
	ui.RegisterRoutes(mux)

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           webui.LogRequests(logger.With("component", "http"), mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Auth.RestoreLatestSession {
		logger.Warn("restore_latest_session is enabled: any visitor may adopt the most recent session")
	}

	return srv, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// startServers starts the HTTP server in a goroutine, returning its error channel.
func (s *Server) startServers(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// startSweeper deletes expired sessions every cfg.Auth.SweepInterval.
// A non-positive interval leaves cleanup to lazy deletion on validate.
func (s *Server) startSweeper() {
	interval := s.config.Auth.SweepInterval
	if interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopSweep = cancel
	s.sweepWG.Add(1)

	go func() {
		defer s.sweepWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepOnce(ctx)
			}
		}
	}()
}

func (s *Server) sweepOnce(ctx context.Context) {
	n, err := s.auth.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", "count", n)
	}
}

// ReloadDataset rereads the sales data source. On failure the pages keep
// serving the previously loaded dataset.
func (s *Server) ReloadDataset(ctx context.Context) error {
	ds, err := s.loader.Reload(ctx)
	if err != nil {
		s.logger.Error("dataset reload failed", "error", err)
		return fmt.Errorf("reloading dataset: %w", err)
	}
	s.logger.Info("dataset reloaded", "source", ds.Source, "rows", ds.Len())
	return nil
}

// startReloader reloads the dataset whenever the process receives SIGHUP.
func (s *Server) startReloader() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	s.stopReload = cancel
	s.reloadWG.Add(1)

	go func() {
		defer s.reloadWG.Done()
		defer signal.Stop(sigCh)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				_ = s.ReloadDataset(ctx)
			}
		}
	}()
}

// waitForShutdownSignal waits for context cancellation or server error.
func (s *Server) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		return err
	}
}

// Run starts serving and blocks until ctx is canceled or the server fails.
// Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting salesboard", "http_addr", s.config.Server.HTTPAddr)

	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := s.startServers(ln)
	s.startSweeper()
	s.startReloader()
	serverErr := s.waitForShutdownSignal(ctx, errCh)

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context since the run
// context is already canceled.
func (s *Server) gracefulShutdown() error {
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and the sweeper, then closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down salesboard")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))

	if s.stopSweep != nil {
		s.stopSweep()
		s.sweepWG.Wait()
	}
	if s.stopReload != nil {
		s.stopReload()
		s.reloadWG.Wait()
	}
	s.ui.Close()

	errs = appendCloseError(errs, "store close", s.store.Close())

	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the process is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the store answers and the dataset loads.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness: store unreachable", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unreachable"))
		return
	}

	ds, err := s.loader.Dataset(r.Context())
	if err != nil {
		s.logger.Warn("readiness: dataset unavailable", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("dataset unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d sales)", ds.Len())
}
