// Package api serves the monitor status, version, live events and
// Prometheus metrics over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/scalerwatch/internal/events"
	"github.com/smazurov/scalerwatch/internal/logging"
	"github.com/smazurov/scalerwatch/internal/monitor"
	"github.com/smazurov/scalerwatch/internal/version"
)

// StatusFunc returns the current monitor snapshot.
type StatusFunc func() monitor.Status

// Options configure the API server.
type Options struct {
	AuthUsername string
	AuthPassword string
	Status       StatusFunc
	Bus          *events.Bus
	// Capture enables POST /api/capture when set.
	Capture CaptureFunc
	// PrometheusHandler is mounted at /metrics when set.
	PrometheusHandler http.Handler
}

// Server is the HTTP surface of scalerwatch.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	options    Options
	logger     *slog.Logger
	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer builds the router. Nothing listens until Start.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("scalerwatch API", version.Version)
	config.Info.Description = "Scaler framebuffer change monitor"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	s := &Server{
		api:     humago.New(mux, config),
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	s.api.UseMiddleware(NewCORSMiddleware(corsConfig))
	s.api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		s.api.UseMiddleware(basicAuthMiddleware(s.api, opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	s.registerRoutes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// API returns the Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Start listens on addr and serves until Stop. It returns nil after Stop.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("API server listening", "addr", ln.Addr().String())
	s.logger.Info("OpenAPI documentation available", "url", "http://"+ln.Addr().String()+"/docs")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes the listener and every open connection, including SSE streams.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("Stopping API server")
	return srv.Close()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Report whether the monitor loop is running",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*HealthResponse, error) {
		st := s.status()
		body := HealthData{Status: "ok", State: st.State, Stale: st.Stale}
		if st.State != monitor.StateRunning.String() {
			body.Status = "degraded"
		}
		return &HealthResponse{Body: body}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Monitor status",
		Description: "Latest header, sample and change state of the monitored frame",
		Tags:        []string{"monitor"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*StatusResponse, error) {
		return &StatusResponse{Body: s.status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*VersionResponse, error) {
		return &VersionResponse{Body: version.Get()}, nil
	})

	s.registerCaptureRoutes()
	s.registerSSERoutes()
}

func (s *Server) status() monitor.Status {
	if s.options.Status == nil {
		return monitor.Status{State: monitor.StateUninitialized.String()}
	}
	return s.options.Status()
}

// withAuth returns the security requirement for basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
