package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// ErrNotListening is returned by Serve when Listen has not succeeded.
var ErrNotListening = errors.New("httpserver: not listening")

// Cause classifies why a listener could not bind.
type Cause string

const (
	CauseAddrInUse        Cause = "address in use"
	CausePermissionDenied Cause = "permission denied"
	CauseOther            Cause = "other"
)

// BindError reports a failed bind.
type BindError struct {
	Listener string
	Addr     string
	Cause    Cause
	Err      error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("httpserver: %s listener: bind %s: %s: %v", e.Listener, e.Addr, e.Cause, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// IsAddrInUse reports whether err is a bind failure because the address is
// already taken.
func IsAddrInUse(err error) bool {
	var be *BindError
	return errors.As(err, &be) && be.Cause == CauseAddrInUse
}

// Server is a named HTTP or HTTPS server.
type Server struct {
	name       string
	httpServer *http.Server
	tlsConfig  *tls.Config

	mu       sync.Mutex
	ln       net.Listener
	serving  bool
	shutdown bool
}

// Option configures a Server.
type Option func(*Server)

// WithTLSConfig makes the server speak TLS with cfg.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = cfg
	}
}

// WithErrorLog routes net/http's internal errors (TLS handshake failures,
// accept errors) to logger.
func WithErrorLog(logger *slog.Logger) Option {
	return func(s *Server) {
		s.httpServer.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
	}
}

// New creates a server named name that will listen on addr.
func New(name, addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		name: name,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tlsConfig != nil {
		s.httpServer.TLSConfig = s.tlsConfig
	}
	return s
}

// Name returns the listener name.
func (s *Server) Name() string {
	return s.name
}

// TLS reports whether the server speaks TLS.
func (s *Server) TLS() bool {
	return s.tlsConfig != nil
}

// Listen binds the configured address. On failure it returns a *BindError.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return &BindError{
			Listener: s.name,
			Addr:     s.httpServer.Addr,
			Cause:    classify(err),
			Err:      err,
		}
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen succeeds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until Shutdown. A clean shutdown returns nil,
// including one that happened before Serve was called.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln, down := s.ln, s.shutdown
	s.serving = ln != nil && !down
	s.mu.Unlock()

	if down {
		return nil
	}
	if ln == nil {
		return ErrNotListening
	}

	var err error
	if s.tlsConfig != nil {
		// Certificates come from TLSConfig.
		err = s.httpServer.ServeTLS(ln, "", "")
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	// A bound listener that never reached Serve is not tracked by
	// http.Server, so close it here.
	if s.ln != nil && !s.serving {
		s.ln.Close()
	}
	s.shutdown = true
	s.mu.Unlock()

	return s.httpServer.Shutdown(ctx)
}
