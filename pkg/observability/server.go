package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Server serves the daemon's operational endpoints: Prometheus metrics and
// the health probes.
type Server struct {
	srv *http.Server
}

// NewServer builds the server on the given port with all endpoints routed.
func NewServer(port int) *Server {
	return &Server{srv: &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}}
}

// Routes returns the endpoint mux. Exposed separately so a host embedding
// the daemon can mount the endpoints on its own listener.
func Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/health", HealthHandler())
	mux.HandleFunc("/health/live", LivenessHandler())
	mux.HandleFunc("/health/ready", ReadinessHandler())
	return mux
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops the server, waiting for in-flight requests up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
