package distmr

import (
	"fmt"
	"net"
	"net/rpc"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Server wraps a Coordinator with the Unix-domain-socket RPC listener that
// exposes RequestTask/SubmitTask to workers, keeping transport separate
// from the registered handler.
type Server struct {
	addr     string
	listener net.Listener
	rpc      *rpc.Server
	shutdown chan struct{}
}

// NewServer creates a Server bound to addr (a Unix-domain socket path) that
// will serve c's RequestTask and SubmitTask methods.
func NewServer(addr string, c *Coordinator) (*Server, error) {
	if addr == "" {
		return nil, fmt.Errorf("distmr: coordinator address cannot be empty")
	}

	srv := rpc.NewServer()
	if err := srv.RegisterName("Coordinator", c); err != nil {
		return nil, fmt.Errorf("distmr: register coordinator: %w", err)
	}

	return &Server{
		addr:     addr,
		rpc:      srv,
		shutdown: make(chan struct{}),
	}, nil
}

// Start creates the listener and begins accepting connections in the
// background. Call Stop to shut it down.
func (s *Server) Start() error {
	os.Remove(s.addr)

	if dir := filepath.Dir(s.addr); dir != "" {
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return fmt.Errorf("distmr: create socket directory %s: %w", dir, err)
		}
	}

	l, err := net.Listen("unix", s.addr)
	if err != nil {
		return fmt.Errorf("distmr: listen on %s: %w", s.addr, err)
	}
	s.listener = l

	logrus.WithField("addr", s.addr).Info("coordinator listening")
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		select {
		case <-s.shutdown:
			return
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				logrus.WithError(err).Warn("coordinator accept error")
				return
			}
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the listener and the socket file.
func (s *Server) Stop() error {
	close(s.shutdown)
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	os.Remove(s.addr)
	return err
}
