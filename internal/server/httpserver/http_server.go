// Package httpserver assembles the autopage HTTP API.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	derrors "git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/logfields"
	handlers "git.home.luguber.info/inful/autopage/internal/server/handlers"
	smw "git.home.luguber.info/inful/autopage/internal/server/middleware"
)

const readHeaderTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Addr   string
	Wiki   handlers.Wiki
	Events handlers.EventLog
	// Provenance adds created_from to page responses when set.
	Provenance handlers.ProvenanceLookup
	// Metrics is served at MetricsPath when both are set.
	Metrics     http.Handler
	MetricsPath string
	Logger      *slog.Logger
}

// Server serves the page API, the audit log, health and metrics.
type Server struct {
	opts         Options
	logger       *slog.Logger
	errorAdapter *derrors.HTTPErrorAdapter
	httpServer   *http.Server
	addr         net.Addr

	pageHandlers       *handlers.PageHandlers
	eventHandlers      *handlers.EventHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs a server. It does not listen until Start.
func New(opts Options) (*Server, error) {
	if opts.Wiki == nil {
		return nil, derrors.ConfigError("http server requires a wiki").Build()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:               opts,
		logger:             logger,
		errorAdapter:       derrors.NewHTTPErrorAdapter(logger),
		pageHandlers:       handlers.NewPageHandlers(opts.Wiki, opts.Provenance, logger),
		monitoringHandlers: handlers.NewMonitoringHandlers(time.Now(), logger),
	}
	if opts.Events != nil {
		s.eventHandlers = handlers.NewEventHandlers(opts.Events, opts.Wiki, logger)
	}
	s.mchain = smw.Chain(logger, s.errorAdapter)
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pages/{title}", s.pageHandlers.HandleGet)
	mux.HandleFunc("PUT /pages/{title}", s.pageHandlers.HandlePut)
	mux.HandleFunc("GET /pages/{title}/history", s.pageHandlers.HandleHistory)
	mux.HandleFunc("GET /health", s.monitoringHandlers.HandleHealthCheck)
	if s.eventHandlers != nil {
		mux.HandleFunc("GET /events", s.eventHandlers.HandleList)
	}
	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		mux.Handle("GET "+s.opts.MetricsPath, s.opts.Metrics)
	}
	return s.mchain(mux)
}

// Start binds the listen address and serves in the background. Binding
// happens synchronously so address errors surface to the caller.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "http startup failed").WithContext("addr", s.opts.Addr).Build()
	}
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", logfields.Error(err))
		}
	}()
	s.logger.Info("HTTP server started", slog.String("addr", s.addr.String()))
	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() net.Addr { return s.addr }

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "http server shutdown").Build()
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
