package diagnostics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the scheduler's own HTTP surface: /healthz, /metrics, and the
// websocket transition stream at /debug/stream.
type Server struct {
	httpServer *http.Server
	hub        *Hub
}

func NewServer(addr string, hub *Hub) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", HealthzHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/stream", hub.HandleStream)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		hub: hub,
	}
}

// Run starts the hub loop and HTTP server and blocks until ctx is
// cancelled, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	stopHub := make(chan struct{})
	go s.hub.Run(stopHub)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		close(stopHub)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		close(stopHub)
		return err
	}
}
