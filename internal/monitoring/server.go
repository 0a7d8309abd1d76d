// internal/monitoring/server.go
package monitoring

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/valpere/ratdriver/internal/utils"
)

// NewRouter exposes /health and /metrics. Either manager may be nil.
func NewRouter(health *HealthManager, metrics *MetricsManager) *mux.Router {
	r := mux.NewRouter()
	if health != nil {
		r.HandleFunc("/health", health.HealthHandler()).Methods(http.MethodGet)
	}
	if metrics != nil {
		r.Handle("/metrics", metrics.MetricsHandler()).Methods(http.MethodGet)
	}
	return r
}

// Server serves the monitoring router until its context is cancelled
type Server struct {
	srv    *http.Server
	logger utils.Logger
}

// NewServer creates a monitoring server listening on address
func NewServer(address string, handler http.Handler, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Server{
		srv: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Serve listens on the configured address and blocks until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln and shuts down gracefully when ctx is done.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.WithField("address", ln.Addr().String()).Info("monitoring server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
