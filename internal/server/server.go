// Package server exposes the service over HTTP as a JSON API, with a
// websocket change feed per group.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/service"
)

type Server struct {
	svc  *service.Service
	mux  *http.ServeMux
	addr string
}

func New(svc *service.Service, addr string) *Server {
	if addr == "" {
		addr = constants.DefaultServerAddr
	}
	s := &Server{svc: svc, mux: http.NewServeMux(), addr: addr}
	s.routes()
	return s
}

// Handler returns the API with request logging applied.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully. Open
// websocket streams are ended by closing the broker's subscriptions.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		// Hijacked websocket connections are not tracked by Shutdown.
		closeBroker(s.svc)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown failed, closing connections", "error", err)
			return srv.Close()
		}
		logger.Info("API stopped")
		return nil
	})
	return g.Wait()
}

func closeBroker(svc *service.Service) {
	switch b := svc.Broker().(type) {
	case interface{ Close() }:
		b.Close()
	case interface{ Close() error }:
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close event broker", "error", err)
		}
	}
}
