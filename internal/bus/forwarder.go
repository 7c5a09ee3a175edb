// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/commentbridge/internal/event"
)

// ForwarderConfig holds NATS fan-out configuration.
type ForwarderConfig struct {
	// URL is the NATS server URL, e.g. nats://127.0.0.1:4222.
	URL string

	// MaxReconnects bounds reconnection attempts after a lost connection.
	// Default: 10
	MaxReconnects int

	// ReconnectWait is the delay between reconnection attempts.
	// Default: 2s
	ReconnectWait time.Duration

	// Topics lists the bus topics to forward. Default: comment and status.
	Topics []string
}

// DefaultForwarderConfig returns production-ready fan-out defaults.
func DefaultForwarderConfig() ForwarderConfig {
	return ForwarderConfig{
		URL:           "nats://127.0.0.1:4222",
		MaxReconnects: 10,
		ReconnectWait: 2 * time.Second,
		Topics:        []string{event.TopicComment, event.TopicStatus},
	}
}

// Forwarder re-publishes selected bus topics to NATS for out-of-process
// consumers. It implements suture.Service via Serve.
type Forwarder struct {
	bus     *Bus
	cfg     ForwarderConfig
	logger  watermill.LoggerAdapter
	pub     message.Publisher
	breaker *gobreaker.CircuitBreaker[any]
}

// NewForwarder creates a NATS forwarder on top of the in-process bus.
// The publish path is wrapped in a circuit breaker so a dead NATS server
// degrades to dropped fan-out instead of goroutine pile-up.
func NewForwarder(b *Bus, cfg ForwarderConfig, logger watermill.LoggerAdapter) (*Forwarder, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if len(cfg.Topics) == 0 {
		cfg.Topics = []string{event.TopicComment, event.TopicStatus}
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name: "nats-forwarder",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	})

	return &Forwarder{bus: b, cfg: cfg, logger: logger, pub: pub, breaker: breaker}, nil
}

// Serve consumes the configured topics until ctx is canceled. A failed
// forward is logged and acked; fan-out is best-effort by contract.
func (f *Forwarder) Serve(ctx context.Context) error {
	for _, topic := range f.cfg.Topics {
		msgs, err := f.bus.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		go f.pump(ctx, topic, msgs)
	}

	<-ctx.Done()
	if err := f.pub.Close(); err != nil {
		f.logger.Error("close nats publisher", err, nil)
	}
	return ctx.Err()
}

func (f *Forwarder) pump(ctx context.Context, topic string, msgs <-chan *message.Message) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			_, err := f.breaker.Execute(func() (any, error) {
				return nil, f.pub.Publish(topic, msg)
			})
			if err != nil {
				f.logger.Error("forward to NATS", err, watermill.LogFields{"topic": topic})
			}
			msg.Ack()
		case <-ctx.Done():
			return
		}
	}
}
