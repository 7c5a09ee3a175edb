// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete bridge configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Bus        BusConfig        `koanf:"bus"`
	NATS       NATSConfig       `koanf:"nats"`
	Connectors ConnectorsConfig `koanf:"connectors"`
	Watchdog   WatchdogConfig   `koanf:"watchdog"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig configures the operational HTTP API.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`
}

// BusConfig configures the in-process event bus.
type BusConfig struct {
	BufferSize int64 `koanf:"buffer_size" validate:"min=1"`
}

// NATSConfig configures the optional fan-out of bus traffic to an external
// NATS server. Disabled by default; the bridge is self-contained without it.
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url" validate:"required_if=Enabled true"`
	MaxReconnects int           `koanf:"max_reconnects" validate:"min=0"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" validate:"min=0"`
}

// ConnectorsConfig holds per-connector settings. Each connector can be
// enabled at startup with a target, or left disabled and driven through the
// API at runtime.
type ConnectorsConfig struct {
	LegacyFeed    FeedConfig      `koanf:"legacy_feed"`
	Manual        FeedConfig      `koanf:"manual"`
	SecondaryFeed FeedConfig      `koanf:"secondary_feed"`
	TCPClient     TCPClientConfig `koanf:"tcp_client"`
	Announcer     AnnouncerConfig `koanf:"announcer"`
}

// FeedConfig configures one WebSocket feed connector.
type FeedConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url" validate:"required_if=Enabled true"`
	BackoffInitial time.Duration `koanf:"backoff_initial" validate:"min=0"`
	BackoffMax     time.Duration `koanf:"backoff_max" validate:"min=0"`
}

// TCPClientConfig configures the line-JSON TCP client connector.
type TCPClientConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Target         string        `koanf:"target" validate:"required_if=Enabled true,omitempty,hostname_port"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"min=0"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"min=0"`
}

// AnnouncerConfig configures the binary/HTTP announcer server connector.
type AnnouncerConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Listen         string `koanf:"listen" validate:"required_if=Enabled true,omitempty,hostname_port"`
	MaxTextLen     int    `koanf:"max_text_len" validate:"min=0"`
	MaxHeaderBytes int    `koanf:"max_header_bytes" validate:"min=0"`
	MaxConns       int64  `koanf:"max_conns" validate:"min=0"`
	Placeholder    string `koanf:"placeholder"`
}

// WatchdogConfig configures the connection supervisor.
type WatchdogConfig struct {
	Window time.Duration `koanf:"window" validate:"min=100ms"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration. Struct tags cover field-level bounds;
// cross-field rules are checked by hand afterwards.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	for name, f := range map[string]FeedConfig{
		"legacy_feed":    c.Connectors.LegacyFeed,
		"manual":         c.Connectors.Manual,
		"secondary_feed": c.Connectors.SecondaryFeed,
	} {
		if f.BackoffInitial > 0 && f.BackoffMax > 0 && f.BackoffInitial > f.BackoffMax {
			return fmt.Errorf("connectors.%s: backoff_initial exceeds backoff_max", name)
		}
	}

	if c.Connectors.TCPClient.Enabled &&
		c.Connectors.TCPClient.ConnectTimeout > c.Connectors.TCPClient.ReadTimeout &&
		c.Connectors.TCPClient.ReadTimeout > 0 {
		return fmt.Errorf("connectors.tcp_client: connect_timeout exceeds read_timeout")
	}

	return nil
}
