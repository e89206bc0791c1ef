// Package server exposes the triage service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ppiankov/podtriage/internal/monitor"
	"github.com/ppiankov/podtriage/internal/result"
	"github.com/ppiankov/podtriage/internal/triage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "podtriage"

const maxBodyBytes = 1 << 20

// Triager handles one triage request. *triage.Service implements it.
type Triager interface {
	Handle(ctx context.Context, req triage.Request) (result.Response, error)
}

// MonitorStatus reports the cluster connection of an in-process pod
// monitor. *monitor.Watcher implements it.
type MonitorStatus interface {
	Status() (monitor.ConnectionStatus, string)
}

// Config holds server settings.
type Config struct {
	Addr            string
	Version         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Monitor is set when the pod monitor runs in the same process; its
	// connection state is then part of /health.
	Monitor MonitorStatus
}

// Server is the HTTP front door.
type Server struct {
	cfg     Config
	triager Triager
	logger  *zap.Logger
	router  *mux.Router
	http    *http.Server
}

// New builds the router and the underlying http.Server.
func New(cfg Config, triager Triager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// summarization alone may take up to the LLM timeout
		cfg.WriteTimeout = 120 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{cfg: cfg, triager: triager, logger: logger}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID, s.accessLog, s.recoverPanic)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/summarize-pod", s.handleSummarizePod).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
