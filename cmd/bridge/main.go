// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package main is the entry point for the CommentBridge server.
//
// CommentBridge ingests live audience comments from heterogeneous sources
// (WebSocket JSON feeds, a legacy binary/HTTP speech-announcer protocol,
// line-delimited JSON TCP feeds) and publishes them as canonical comment
// events on an internal bus, optionally fanned out to NATS.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered sources (env > file > defaults)
//  2. Logging: global zerolog logger
//  3. Event bus: in-process Watermill pub/sub
//  4. Connectors: registered under their canonical names
//  5. Supervisor tree: watchdog, optional NATS forwarder, ops HTTP API
//
// # Configuration
//
// Environment variables use the BRIDGE_ prefix, e.g. BRIDGE_SERVER_PORT,
// BRIDGE_LEGACY_FEED_URL, BRIDGE_ANNOUNCER_LISTEN. A config.yaml in the
// working directory or /etc/commentbridge/ is picked up automatically;
// CONFIG_PATH overrides the search.
//
// # Signal handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: connectors disconnect,
// supervised services stop, and unstopped services are reported.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/commentbridge/internal/api"
	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/config"
	"github.com/tomtom215/commentbridge/internal/connector"
	"github.com/tomtom215/commentbridge/internal/connector/announcer"
	"github.com/tomtom215/commentbridge/internal/connector/stream"
	"github.com/tomtom215/commentbridge/internal/connector/tcpjson"
	"github.com/tomtom215/commentbridge/internal/logging"
	"github.com/tomtom215/commentbridge/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "commentbridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("starting commentbridge")

	b := bus.New(bus.Config{BufferSize: cfg.Bus.BufferSize}, logging.NewWatermillAdapter())
	defer func() { _ = b.Close() }()

	registry, err := buildRegistry(b, cfg)
	if err != nil {
		return err
	}
	defer registry.DisconnectAll()

	watchdog := connector.NewWatchdog(b, registry, cfg.Watchdog.Window, nil)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(watchdog)

	if cfg.NATS.Enabled {
		forwarder, err := bus.NewForwarder(b, bus.ForwarderConfig{
			URL:           cfg.NATS.URL,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
		}, logging.NewWatermillAdapter())
		if err != nil {
			return fmt.Errorf("nats forwarder: %w", err)
		}
		tree.AddMessagingService(forwarder)
		logging.Info().Str("url", cfg.NATS.URL).Msg("nats fan-out enabled")
	}

	tree.AddAPIService(api.NewServer(api.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		Timeout: cfg.Server.Timeout,
	}, registry, watchdog))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)

	// Connectors enabled in config are launched once the tree is up; the
	// watchdog enforces the connect window the same way it does for
	// API-driven connects.
	startConfigured(registry, watchdog, cfg)

	err = <-errCh
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop cleanly")
		}
	}

	logging.Info().Msg("commentbridge stopped")
	return nil
}

// buildRegistry composes every connector under its canonical name.
func buildRegistry(b *bus.Bus, cfg *config.Config) (*connector.Registry, error) {
	registry := connector.NewRegistry()

	legacy := stream.NewLegacyFeed(b)
	if fc := cfg.Connectors.LegacyFeed; fc.BackoffInitial > 0 || fc.BackoffMax > 0 {
		legacy = stream.New(b, stream.Options{
			Name:           "legacy_feed",
			Placeholder:    "viewer",
			AutoReconnect:  true,
			BackoffInitial: fc.BackoffInitial,
			BackoffMax:     fc.BackoffMax,
		})
	}

	connectors := []connector.Connector{
		legacy,
		stream.NewManual(b),
		stream.NewSecondaryFeed(b),
		stream.NewPlaceholder(b, "future_feed"),
		tcpjson.New(b, tcpjson.Config{
			ConnectTimeout: cfg.Connectors.TCPClient.ConnectTimeout,
			ReadTimeout:    cfg.Connectors.TCPClient.ReadTimeout,
		}),
		announcer.New(b, announcer.Config{
			MaxTextLen:     cfg.Connectors.Announcer.MaxTextLen,
			MaxHeaderBytes: cfg.Connectors.Announcer.MaxHeaderBytes,
			MaxConns:       cfg.Connectors.Announcer.MaxConns,
			Placeholder:    cfg.Connectors.Announcer.Placeholder,
		}),
	}

	for _, c := range connectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// startConfigured connects every connector enabled in the config file.
func startConfigured(registry *connector.Registry, watchdog *connector.Watchdog, cfg *config.Config) {
	type startup struct {
		name    string
		enabled bool
		target  string
	}

	for _, s := range []startup{
		{"legacy_feed", cfg.Connectors.LegacyFeed.Enabled, cfg.Connectors.LegacyFeed.URL},
		{"manual", cfg.Connectors.Manual.Enabled, cfg.Connectors.Manual.URL},
		{"secondary_feed", cfg.Connectors.SecondaryFeed.Enabled, cfg.Connectors.SecondaryFeed.URL},
		{"tcp_client", cfg.Connectors.TCPClient.Enabled, cfg.Connectors.TCPClient.Target},
		{"binary_http_server", cfg.Connectors.Announcer.Enabled, cfg.Connectors.Announcer.Listen},
	} {
		if !s.enabled {
			continue
		}
		c, ok := registry.Get(s.name)
		if !ok {
			continue
		}
		watchdog.Arm(s.name)
		if !c.Connect(s.target) {
			watchdog.Disarm(s.name)
			logging.Error().Str("connector", s.name).Str("target", s.target).
				Msg("startup connect rejected")
		}
	}
}
