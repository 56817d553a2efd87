// Package api builds the grid's HTTP/JSON surface: a gorilla/mux
// router exposing the coordinator's routes over the Grid facade, HTTP
// Basic auth per route, request logging and panic recovery middleware,
// and graceful shutdown.
package api

import (
	"context"
	"net"
	"net/http"

	"github.com/sritchie73/bad-boyz-cluster/pkg/config"
	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
	"github.com/sritchie73/bad-boyz-cluster/pkg/jobstore"
	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
	"github.com/sritchie73/bad-boyz-cluster/pkg/metrics"
	"github.com/sritchie73/bad-boyz-cluster/pkg/scheduler"
)

// Server wraps the public API HTTP listener.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the API server bound to addr. store and sched may
// be nil (tests exercising handlers that don't need them), but a
// production grid serve wires both.
func NewServer(addr string, cfg config.Config, g *grid.Grid, store *jobstore.Store, sched *scheduler.Scheduler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: newRouter(cfg, g, store, sched),
		},
	}
}

// Start binds the listener and serves in a background goroutine,
// registering the "api" health component once bound so /healthz
// reports ready.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	metrics.RegisterComponent("api", true, "serving")
	srvLogger := log.WithComponent("api")
	srvLogger.Info().Str("addr", s.httpServer.Addr).Msg("api server listening")

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			srvLogger.Error().Err(err).Msg("api server stopped unexpectedly")
		}
	}()
	return nil
}

// Shutdown gracefully drains in-flight requests before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
