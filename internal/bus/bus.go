// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/tomtom215/commentbridge/internal/metrics"
)

// Config holds event bus configuration.
type Config struct {
	// BufferSize is the per-subscriber output channel buffer.
	// Default: 256
	BufferSize int64
}

// DefaultConfig returns production-ready bus defaults.
func DefaultConfig() Config {
	return Config{BufferSize: 256}
}

// Bus is the in-process event bus shared by all connectors and consumers.
// Messages on one topic are delivered to subscribers in publish order.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New creates the event bus.
func New(cfg Config, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish sends a payload on the given topic. It never blocks on slow
// subscribers beyond their channel buffer and returns an error only when the
// bus is closed or the underlying Pub/Sub rejects the message.
func (b *Bus) Publish(topic string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus is closed")
	}
	b.mu.RUnlock()

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.RecordBusPublish(topic)
	return nil
}

// Subscribe returns a channel of messages for the topic. The subscription is
// closed when ctx is canceled or the bus is closed. Subscribers must Ack
// every message to keep ordered delivery flowing.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down, closing all subscriber channels. Idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}
