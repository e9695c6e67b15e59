// Package httpserver starts and stops an *http.Server from lifecycle hooks.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrAlreadyRunning is returned by Start on a Handle that is serving.
var ErrAlreadyRunning = errors.New("httpserver: server is already running")

// DefaultKeepAlivePeriod is the TCP keep-alive period of accepted connections.
const DefaultKeepAlivePeriod = 3 * time.Minute

// HandleOption customizes a Handle.
type HandleOption func(*Handle)

// ListenFunc changes how the Handle opens its listener.
func ListenFunc(f func(network, address string) (net.Listener, error)) HandleOption {
	return func(h *Handle) { h.listen = f }
}

// KeepAlivePeriod sets the keep-alive period used by the default listener.
// Zero or less disables keep-alive.
func KeepAlivePeriod(d time.Duration) HandleOption {
	return func(h *Handle) { h.keepAlive = d }
}

// dialerFunc swaps the dialer used to probe the server. Tests only.
func dialerFunc(f func() dialer) HandleOption {
	return func(h *Handle) { h.newDialer = f }
}

// Handle owns a running *http.Server. Once a server is given to a Handle it
// must only be started and stopped through it. A Handle is not safe for
// concurrent use.
type Handle struct {
	srv *http.Server

	listen    func(network, address string) (net.Listener, error)
	keepAlive time.Duration
	newDialer func() dialer

	// Set while serving.
	ln    net.Listener
	errCh chan error
}

// NewHandle wraps srv.
func NewHandle(srv *http.Server, opts ...HandleOption) *Handle {
	h := &Handle{
		srv:       srv,
		keepAlive: DefaultKeepAlivePeriod,
		newDialer: func() dialer { return new(net.Dialer) },
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.listen == nil {
		h.listen = h.defaultListen
	}
	return h
}

func (h *Handle) defaultListen(network, address string) (net.Listener, error) {
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	// Server.Serve, unlike ListenAndServe, does not enable keep-alive.
	if tcp, ok := ln.(*net.TCPListener); ok && h.keepAlive > 0 {
		return keepAliveListener{TCPListener: tcp, period: h.keepAlive}, nil
	}
	return ln, nil
}

// Addr is the address the server listens on, or nil before Start.
func (h *Handle) Addr() net.Addr {
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

// Start listens on Server.Addr (":0" when empty), serves in a new goroutine
// and returns once the server answers connections or ctx is done. It can be
// used directly as an fx OnStart hook.
func (h *Handle) Start(ctx context.Context) error {
	if h.ln != nil {
		return ErrAlreadyRunning
	}

	addr := h.srv.Addr
	if addr == "" {
		addr = ":0"
	}
	ln, err := h.listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %q: %w", addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.srv.Serve(ln)
		close(errCh)
	}()

	// Shutdown called before Serve has marked the server as running returns
	// immediately and leaves Serve running, so wait until requests are
	// actually being read.
	if err := waitUntilAvailable(ctx, h.newDialer(), ln.Addr().String()); err != nil {
		select {
		case serveErr := <-errCh:
			return fmt.Errorf("starting HTTP server: %w", serveErr)
		default:
			ln.Close()
			return err
		}
	}

	h.ln = ln
	h.errCh = errCh
	return nil
}

// Shutdown gracefully stops the server, waiting until it has stopped or ctx
// is done.
func (h *Handle) Shutdown(ctx context.Context) error {
	if err := h.srv.Shutdown(ctx); err != nil {
		return err
	}
	if h.errCh != nil {
		if err := <-h.errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	h.ln = nil
	h.errCh = nil
	return nil
}
