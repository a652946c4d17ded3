package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = DefaultReadTimeout
	DefaultShutdownTimeout = 30 * time.Second
)

// ShutdownHook runs after the HTTP server has stopped accepting requests.
type ShutdownHook func(ctx context.Context) error

// Server wraps http.Server with signal-driven graceful shutdown.
type Server struct {
	*http.Server

	listener        net.Listener
	signalChan      chan os.Signal
	shutdownChan    chan struct{}
	shutdownOnce    sync.Once
	shutdownTimeout time.Duration
	hooks           []ShutdownHook
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		signalChan:      make(chan os.Signal, 1),
		shutdownChan:    make(chan struct{}),
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// OnShutdown registers hooks executed in order once the HTTP server is down.
func (srv *Server) OnShutdown(hooks ...ShutdownHook) *Server {
	srv.hooks = append(srv.hooks, hooks...)
	return srv
}

// Listen binds the listener without serving, so callers can learn the bound address.
func (srv *Server) Listen() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.Listen error: %w", err)
	}
	srv.listener = ln
	return nil
}

// ListenerAddr returns the bound listener address, or nil before Listen.
func (srv *Server) ListenerAddr() net.Addr {
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

// ListenAndServe starts serving on tcp and blocks until shutdown completes.
func (srv *Server) ListenAndServe() error {
	if srv.listener == nil {
		if err := srv.Listen(); err != nil {
			return err
		}
	}
	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(srv.signalChan)
	go srv.handleSignals()

	err := srv.Server.Serve(srv.listener)
	if !errors.Is(err, http.ErrServerClosed) {
		// serve failed on its own; still run hooks so background work stops
		srv.Shutdown()
		<-srv.shutdownChan
		return err
	}
	<-srv.shutdownChan
	return nil
}

func (srv *Server) handleSignals() {
	select {
	case sig := <-srv.signalChan:
		Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
		srv.Shutdown()
	case <-srv.shutdownChan:
	}
}

// Shutdown stops the HTTP server and then runs shutdown hooks. It is safe to call more than once.
func (srv *Server) Shutdown() {
	srv.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), srv.shutdownTimeout)
		defer cancel()
		if err := srv.Server.Shutdown(ctx); err != nil {
			Sugar.Errorf("HTTP server shutdown error: %v", err)
		} else {
			Sugar.Info("HTTP server shutdown success")
		}
		for _, hook := range srv.hooks {
			if err := hook(ctx); err != nil {
				Sugar.Errorf("shutdown hook error: %v", err)
			}
		}
		close(srv.shutdownChan)
	})
}

// GraceServer starts an HTTP server with graceful capabilities.
func GraceServer(addr string, handler http.Handler, hooks ...ShutdownHook) error {
	return NewServer(addr, handler, DefaultReadTimeout, DefaultWriteTimeout).OnShutdown(hooks...).ListenAndServe()
}
