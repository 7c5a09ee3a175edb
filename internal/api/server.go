// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package api provides the operational HTTP API for the bridge: health,
// connector status, connect/disconnect control, and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/commentbridge/internal/connector"
	"github.com/tomtom215/commentbridge/internal/logging"
)

// Config holds the ops API listen settings.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Server is the operational HTTP server. It implements suture.Service.
type Server struct {
	cfg      Config
	registry *connector.Registry
	watchdog *connector.Watchdog
	started  time.Time
}

// NewServer creates the ops API server over a connector registry. The
// watchdog is armed on every connect issued through the API and disarmed on
// disconnect.
func NewServer(cfg Config, registry *connector.Registry, watchdog *connector.Watchdog) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Server{
		cfg:      cfg,
		registry: registry,
		watchdog: watchdog,
		started:  time.Now(),
	}
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.Timeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/connectors", s.handleConnectors)
		r.Post("/connectors/{name}/connect", s.handleConnect)
		r.Post("/connectors/{name}/disconnect", s.handleDisconnect)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Serve runs the HTTP server until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("ops api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ops api: %w", err)
	}
}
