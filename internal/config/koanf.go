// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package config loads the bridge configuration from layered sources with
// Koanf v2. Precedence: environment variables over the optional YAML config
// file over built-in defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/commentbridge/config.yaml",
	"/etc/commentbridge/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces the bridge's environment variables so unrelated
// variables never leak into the config tree.
const envPrefix = "BRIDGE_"

// defaultConfig returns the built-in defaults. These are applied first, then
// overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8710,
			Timeout: 30 * time.Second,
		},
		Bus: BusConfig{
			BufferSize: 256,
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
		},
		Connectors: ConnectorsConfig{
			LegacyFeed: FeedConfig{
				Enabled:        false,
				URL:            "",
				BackoffInitial: time.Second,
				BackoffMax:     10 * time.Second,
			},
			Manual: FeedConfig{
				Enabled: false,
				URL:     "",
			},
			SecondaryFeed: FeedConfig{
				Enabled: false,
				URL:     "",
			},
			TCPClient: TCPClientConfig{
				Enabled:        false,
				Target:         "",
				ConnectTimeout: 5 * time.Second,
				ReadTimeout:    60 * time.Second,
			},
			Announcer: AnnouncerConfig{
				Enabled:        false,
				Listen:         "0.0.0.0:50001",
				MaxTextLen:     10000,
				MaxHeaderBytes: 8192,
				MaxConns:       0,
				Placeholder:    "viewer",
			},
		},
		Watchdog: WatchdogConfig{
			Window: 4 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, the optional config file, and
// BRIDGE_-prefixed environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// BRIDGE_SERVER_PORT -> server.port, BRIDGE_CONNECTORS_LEGACY_FEED_URL
	// -> connectors.legacy_feed.url, and so on.
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps a BRIDGE_ environment variable name to its koanf
// path. Multi-word section names cannot be derived mechanically from
// underscores, so the known keys are listed explicitly; unknown keys are
// dropped.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		"server_host":    "server.host",
		"server_port":    "server.port",
		"server_timeout": "server.timeout",

		"bus_buffer_size": "bus.buffer_size",

		"nats_enabled":        "nats.enabled",
		"nats_url":            "nats.url",
		"nats_max_reconnects": "nats.max_reconnects",
		"nats_reconnect_wait": "nats.reconnect_wait",

		"legacy_feed_enabled":         "connectors.legacy_feed.enabled",
		"legacy_feed_url":             "connectors.legacy_feed.url",
		"legacy_feed_backoff_initial": "connectors.legacy_feed.backoff_initial",
		"legacy_feed_backoff_max":     "connectors.legacy_feed.backoff_max",

		"manual_enabled": "connectors.manual.enabled",
		"manual_url":     "connectors.manual.url",

		"secondary_feed_enabled": "connectors.secondary_feed.enabled",
		"secondary_feed_url":     "connectors.secondary_feed.url",

		"tcp_client_enabled":         "connectors.tcp_client.enabled",
		"tcp_client_target":          "connectors.tcp_client.target",
		"tcp_client_connect_timeout": "connectors.tcp_client.connect_timeout",
		"tcp_client_read_timeout":    "connectors.tcp_client.read_timeout",

		"announcer_enabled":          "connectors.announcer.enabled",
		"announcer_listen":           "connectors.announcer.listen",
		"announcer_max_text_len":     "connectors.announcer.max_text_len",
		"announcer_max_header_bytes": "connectors.announcer.max_header_bytes",
		"announcer_max_conns":        "connectors.announcer.max_conns",
		"announcer_placeholder":      "connectors.announcer.placeholder",

		"watchdog_window": "watchdog.window",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
