package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"gsj_gateway/internal/config"
)

// Server owns the gateway's HTTP listener.
type Server struct {
	httpServer *http.Server
}

const (
	maxHeaderBytes = 1 << 20 // 1 MB

	defaultReadHeaderTimeout = 10 * time.Second
	// A cold request may wait for a browser login.
	defaultWriteTimeout = 90 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

func withDefaults(t config.ServerConfig) config.ServerConfig {
	if t.ReadHeaderTimeout <= 0 {
		t.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if t.WriteTimeout <= 0 {
		t.WriteTimeout = defaultWriteTimeout
	}
	if t.IdleTimeout <= 0 {
		t.IdleTimeout = defaultIdleTimeout
	}
	return t
}

// New prepares a server for port ("8080" or ":8080"). Zero timeouts fall back
// to defaults.
func New(port string, handler http.Handler, timeouts config.ServerConfig) *Server {
	timeouts = withDefaults(timeouts)
	return &Server{httpServer: &http.Server{
		Addr:              normalizeAddr(port),
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: timeouts.ReadHeaderTimeout,
		WriteTimeout:      timeouts.WriteTimeout,
		IdleTimeout:       timeouts.IdleTimeout,
	}}
}

func normalizeAddr(port string) string {
	if port == "" || strings.HasPrefix(port, ":") || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// Run listens on the configured address and serves until Shutdown.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
