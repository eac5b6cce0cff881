package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"italiancorner/mydata_core/internal/infrastructure/config"
	httperrors "italiancorner/mydata_core/internal/infrastructure/http"
	"italiancorner/mydata_core/internal/infrastructure/http/middleware"
)

// APIPrefix is where the versioned API is mounted.
const APIPrefix = "/api/v1"

// RouteRegistrar is implemented by the HTTP handlers of each API area.
type RouteRegistrar interface {
	Routes(r chi.Router)
}

// Server is the HTTP entry point of the invoicing service.
type Server struct {
	log             *slog.Logger
	httpServer      *http.Server
	auth            *middleware.JWTAuthenticator
	shutdownTimeout time.Duration
}

// Options configures New. Nil route registrars are skipped.
type Options struct {
	Config        config.AppConfig
	Logger        *slog.Logger
	HealthHandler http.Handler
	// Auth protects the API routes when set. /health stays public.
	Auth *middleware.JWTAuthenticator

	Branches    RouteRegistrar
	Invoices    RouteRegistrar
	Submissions RouteRegistrar
	History     RouteRegistrar
	Customers   RouteRegistrar
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}
	log := opts.Logger

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusNotFound, "Not found", []string{"no route matches the request"}, log)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", []string{req.Method + " is not supported on this route"}, log)
	})

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	r.Route(APIPrefix, func(api chi.Router) {
		if opts.Auth != nil {
			api.Use(opts.Auth.Middleware)
		}
		for _, registrar := range []RouteRegistrar{
			opts.Branches,
			opts.Invoices,
			opts.Submissions,
			opts.History,
			opts.Customers,
		} {
			if registrar != nil {
				registrar.Routes(api)
			}
		}
	})

	httpCfg := opts.Config.HTTP
	srv := &http.Server{
		Addr:              httpCfg.Address(),
		Handler:           r,
		ReadTimeout:       httpCfg.ReadTimeout,
		ReadHeaderTimeout: httpCfg.ReadTimeout,
		WriteTimeout:      httpCfg.WriteTimeout,
		IdleTimeout:       httpCfg.IdleTimeout,
	}

	return &Server{
		log:             log,
		httpServer:      srv,
		auth:            opts.Auth,
		shutdownTimeout: httpCfg.ShutdownTimeout,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server")
		shutdownCtx := context.Background()
		if s.shutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.shutdownTimeout)
			defer cancel()
		}
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

// Close releases the authenticator's background refresh.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}
