package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bts "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
)

// Server wraps a Wish SSH server that serves the course finder.
type Server struct {
	server *ssh.Server
	logger *log.Logger
}

// New creates a new SSH server listening on addr. The host key is created at
// hostKeyPath on first start.
func New(addr, hostKeyPath string, source LinkSource, opts HandlerOptions, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	s, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bts.Middleware(NewHandler(source, opts, logger)),
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create ssh server: %w", err)
	}

	return &Server{server: s, logger: logger}, nil
}

// ListenAndServe starts the SSH server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("ssh listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on l. It returns nil after Shutdown.
func (s *Server) Serve(l net.Listener) error {
	if err := s.server.Serve(l); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for open sessions until
// ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Close stops the SSH server.
func (s *Server) Close() error {
	return s.server.Close()
}
