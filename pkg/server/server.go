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

	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/gateway/handlers"
	"primeia/videogate/pkg/gateway/middleware"
	"primeia/videogate/pkg/security/auth"
	"primeia/videogate/pkg/security/certs"
	"primeia/videogate/pkg/telemetry/health"
	"primeia/videogate/pkg/telemetry/metrics"
	"primeia/videogate/pkg/telemetry/tracing"
)

// Route names used as metric labels.
const (
	RouteUpload        = "upload"
	RouteVideos        = "videos"
	RouteRetentionRuns = "retention_runs"
	RouteNotFound      = "not_found"
)

// Dependencies are the collaborators the route table is built from.
type Dependencies struct {
	// Store receives uploads. Required.
	Store handlers.VideoStore

	// History backs the retention runs endpoint. Nil when the ledger is
	// disabled.
	History handlers.RunHistory

	// Schedule reports the next sweep. Nil when retention is disabled.
	Schedule handlers.NextRunner

	// Health serves /health and /ready. A checker with no checks is used
	// when nil.
	Health  *health.Checker
	Version health.VersionInfo

	// Metrics records HTTP and upload metrics and serves the scrape
	// endpoint. Optional.
	Metrics *metrics.Collector

	// Tracer records a span per API and video request. Optional.
	Tracer *tracing.Tracer

	// TokenVerifier checks bearer tokens when security.token is enabled.
	TokenVerifier auth.TokenVerifier

	Logger *slog.Logger
}

// Server is the videogate HTTP server.
type Server struct {
	config       *config.Config
	deps         Dependencies
	logger       *slog.Logger
	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server. It fails when token authentication is enabled
// without a verifier.
func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server requires a video store")
	}
	if cfg.Security.Token.Enabled && deps.TokenVerifier == nil {
		return nil, errors.New("token authentication is enabled but no verifier is configured")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Health == nil {
		deps.Health = health.New(0)
	}

	return &Server{
		config:       cfg,
		deps:         deps,
		logger:       deps.Logger.With("component", "server"),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start listens on the configured address and blocks until ctx is done, a
// termination signal arrives, Stop is called or the server fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	srvCfg := s.config.Server
	s.httpServer = &http.Server{
		Addr:           srvCfg.ListenAddress,
		Handler:        s.setupRoutes(),
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		IdleTimeout:    srvCfg.IdleTimeout,
		MaxHeaderBytes: srvCfg.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	var reloader *certs.Reloader
	if srvCfg.TLS.Enabled {
		var err error
		reloader, err = s.configureTLS()
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		s.httpServer.TLSConfig = reloader.TLSConfig()
	}

	ln, err := net.Listen("tcp", srvCfg.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", srvCfg.ListenAddress, err)
	}
	s.listener = ln
	s.isRunning = true
	s.mu.Unlock()

	if reloader != nil {
		watchCtx, stopWatch := context.WithCancel(ctx)
		defer stopWatch()
		go func() {
			if err := reloader.Watch(watchCtx); err != nil {
				s.logger.Error("certificate reloading disabled", "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", ln.Addr().String(),
			"tls_enabled", srvCfg.TLS.Enabled,
		)

		var err error
		if srvCfg.TLS.Enabled {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown gracefully shuts down the server, waiting at most
// server.shutdown_timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		timeout := s.config.Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// setupRoutes builds the route table and the global middleware chain:
// Recovery(Logging(RequestID(CORS(mux)))).
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	var recorder middleware.HTTPRecorder
	if s.deps.Metrics != nil {
		recorder = s.deps.Metrics
	}
	authn := s.authMiddleware()

	// observe traces and counts a route under its fixed name.
	observe := func(route string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return middleware.Chain(next,
				middleware.Tracing(route, s.deps.Tracer),
				middleware.Metrics(route, recorder),
			)
		}
	}

	var limiter func(http.Handler) http.Handler
	if rl := s.config.Upload.RateLimit; rl.Enabled {
		opts := []middleware.RateLimiterOption{}
		if s.deps.Metrics != nil {
			opts = append(opts, middleware.WithOnLimited(s.deps.Metrics.RecordRateLimited))
		}
		limiter = middleware.NewRateLimiter(rl, opts...).Middleware
	}

	var uploadRecorder handlers.UploadRecorder
	if s.deps.Metrics != nil {
		uploadRecorder = s.deps.Metrics
	}
	upload := handlers.NewUploadHandler(
		s.deps.Store,
		handlers.UploadConfigFrom(s.config),
		uploadRecorder,
		s.deps.Logger,
	)
	mux.Handle("/api/v1/upload-video", middleware.Chain(upload,
		observe(RouteUpload),
		limiter,
		authn,
	))

	runs := handlers.NewRetentionRunsHandler(
		s.deps.History,
		s.deps.Schedule,
		s.config.Retention.Window,
		s.config.Ledger.HistoryLimit,
		s.deps.Logger,
	)
	mux.Handle("/api/v1/retention/runs", middleware.Chain(runs,
		observe(RouteRetentionRuns),
		authn,
	))

	mux.Handle("/api/", observe(RouteNotFound)(handlers.NotFound()))

	prefix := s.config.Storage.URLPrefix
	videos := handlers.NewVideoServer(s.config.Storage.Directory, prefix)
	mux.Handle(prefix+"/", observe(RouteVideos)(videos))

	health.Register(mux, s.deps.Health, s.deps.Version)

	if m := s.deps.Metrics; m != nil && s.config.Telemetry.Metrics.Enabled {
		mux.Handle(s.config.Telemetry.Metrics.Path, m.Handler())
	}

	return middleware.Chain(mux,
		middleware.Recovery(s.deps.Logger),
		middleware.Logging(s.deps.Logger),
		middleware.RequestID,
		middleware.CORS(s.config.Server.CORS),
	)
}

// authMiddleware combines the enabled authentication schemes. API key
// authentication runs first.
func (s *Server) authMiddleware() func(http.Handler) http.Handler {
	sec := s.config.Security
	var chain []func(http.Handler) http.Handler

	if sec.APIKey.Enabled {
		validator := auth.NewAPIKeyValidatorFromConfig(sec.APIKey)
		chain = append(chain, auth.NewAPIKeyMiddleware(
			validator,
			auth.SourcesFromConfig(sec.APIKey.Sources),
			s.deps.Logger,
		).Handle)
	}
	if sec.Token.Enabled {
		chain = append(chain, auth.NewTokenMiddleware(s.deps.TokenVerifier, s.deps.Logger).Require)
	}

	if len(chain) == 0 {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return middleware.Chain(next, chain...)
	}
}

// configureTLS loads the certificate pair into a reloader that serves the
// current certificate to every handshake.
func (s *Server) configureTLS() (*certs.Reloader, error) {
	tlsCfg := s.config.Server.TLS
	if tlsCfg.CertFile == "" {
		return nil, fmt.Errorf("TLS cert file not specified")
	}
	if tlsCfg.KeyFile == "" {
		return nil, fmt.Errorf("TLS key file not specified")
	}

	if _, err := os.Stat(tlsCfg.CertFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("TLS cert file not found: %s", tlsCfg.CertFile)
	}
	if _, err := os.Stat(tlsCfg.KeyFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("TLS key file not found: %s", tlsCfg.KeyFile)
	}

	return certs.NewReloader(tlsCfg.CertFile, tlsCfg.KeyFile, s.logger)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
