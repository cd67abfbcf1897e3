package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// CallbackServer is a short-lived local HTTP server that receives the OAuth redirect.
type CallbackServer struct {
	srv    *http.Server
	addr   string
	errors chan error
	logger *log.Logger
}

// Listen binds addr and serves handler in the background.
//
// Binding happens before Listen returns, so a port already in use is reported here rather than later.
func Listen(addr string, handler http.Handler, logger *log.Logger) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &CallbackServer{
		srv:    &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		addr:   ln.Addr().String(),
		errors: make(chan error, 1),
		logger: logger,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errors <- err
		}
		close(s.errors)
	}()
	return s, nil
}

// Addr returns the address the server is bound to.
func (s *CallbackServer) Addr() string {
	return s.addr
}

// Errors delivers a serve failure, if any, and is closed when the server stops.
func (s *CallbackServer) Errors() <-chan error {
	return s.errors
}

// Shutdown stops the server, waiting at most five seconds for in-flight requests.
func (s *CallbackServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil && s.logger != nil {
		s.logger.Warn("error shutting down callback server", "error", err)
	}
}
