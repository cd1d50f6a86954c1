// pkg/api/server.go

package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP listener for the API.
type Server struct {
	server   *http.Server
	listener net.Listener
}

// NewServer binds addr. Use port 0 to pick a free port.
func NewServer(addr string, handler http.Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, cerr.WithHint(cerr.Wrapf(err, "listen on %s", addr), "is another process using the port? set server.addr")
	}
	return &Server{
		listener: ln,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr is the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	log := otelzap.Ctx(ctx)
	// In-flight requests keep running through graceful shutdown.
	base := context.WithoutCancel(ctx)
	s.server.BaseContext = func(net.Listener) context.Context { return base }

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server listening", zap.String("addr", s.Addr()))
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return cerr.Wrap(err, "serve API")
	case <-ctx.Done():
	}

	log.Info("Stopping API server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return cerr.Wrap(err, "shutdown API server")
	}
	return nil
}
