// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/event"
	"github.com/tomtom215/commentbridge/internal/logging"
	"github.com/tomtom215/commentbridge/internal/metrics"
)

// DefaultWatchdogWindow is how long a caller waits for "connected" status
// before forcing a disconnect. Inherited default, configurable.
const DefaultWatchdogWindow = 4 * time.Second

// Watchdog is the caller-side connection supervisor. After Connect is invoked
// on a connector, Arm starts a countdown; if no "connected" status is
// observed on the bus before it expires, the watchdog forces Disconnect and
// notifies the caller so its toggle state can be reset.
//
// The timeout is advisory and external to the connector's own lifecycle: a
// connector that connects after expiry still emits its status event, which
// the caller is free to ignore.
type Watchdog struct {
	bus      *bus.Bus
	registry *Registry
	window   time.Duration
	onExpire func(name string)

	mu        sync.Mutex
	deadlines map[string]time.Time
}

// NewWatchdog creates a watchdog over the given registry. onExpire may be nil
// when no caller toggle needs resetting.
func NewWatchdog(b *bus.Bus, registry *Registry, window time.Duration, onExpire func(string)) *Watchdog {
	if window <= 0 {
		window = DefaultWatchdogWindow
	}
	return &Watchdog{
		bus:       b,
		registry:  registry,
		window:    window,
		onExpire:  onExpire,
		deadlines: make(map[string]time.Time),
	}
}

// Arm starts the countdown for a connector. Arm before invoking Connect so a
// connector that confirms synchronously cannot race its own countdown.
func (w *Watchdog) Arm(name string) {
	w.mu.Lock()
	w.deadlines[name] = time.Now().Add(w.window)
	w.mu.Unlock()
}

// Disarm cancels the countdown, e.g. when the caller disconnects manually.
func (w *Watchdog) Disarm(name string) {
	w.mu.Lock()
	delete(w.deadlines, name)
	w.mu.Unlock()
}

// Armed reports whether a countdown is pending for the connector.
func (w *Watchdog) Armed(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.deadlines[name]
	return ok
}

// Serve observes status events and enforces deadlines until ctx is canceled.
// It implements suture.Service.
func (w *Watchdog) Serve(ctx context.Context) error {
	msgs, err := w.bus.Subscribe(ctx, event.TopicStatus)
	if err != nil {
		return fmt.Errorf("subscribe status: %w", err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			status, err := event.UnmarshalConnectionStatus(msg.Payload)
			msg.Ack()
			if err != nil {
				logging.Warn().Err(err).Msg("watchdog: bad status payload")
				continue
			}
			if status.State == event.StateConnected {
				w.Disarm(status.Connector)
			}

		case <-ticker.C:
			w.expire(time.Now())

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// expire forces a disconnect for every connector whose deadline has passed.
func (w *Watchdog) expire(now time.Time) {
	w.mu.Lock()
	var expired []string
	for name, deadline := range w.deadlines {
		if now.After(deadline) {
			expired = append(expired, name)
			delete(w.deadlines, name)
		}
	}
	w.mu.Unlock()

	for _, name := range expired {
		c, ok := w.registry.Get(name)
		if ok && c.IsConnected() {
			// The confirming status event can be missed entirely: a
			// connector that binds inline publishes it before this service
			// has subscribed, and a caller may Arm after the event already
			// went by. The connector's live state wins over a missed event.
			logging.Debug().Str("connector", name).
				Msg("deadline passed but connector is connected, disarming")
			continue
		}

		logging.Warn().Str("connector", name).Dur("window", w.window).
			Msg("no connected status within window, forcing disconnect")
		metrics.RecordWatchdogExpiration(name)

		if ok {
			c.Disconnect()
		}
		if w.onExpire != nil {
			w.onExpire(name)
		}
	}
}
