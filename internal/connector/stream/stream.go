// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package stream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/connector"
	"github.com/tomtom215/commentbridge/internal/event"
	"github.com/tomtom215/commentbridge/internal/metrics"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	workerExitWait          = 5 * time.Second
)

// Options configures a stream connector instance.
type Options struct {
	// Name is the canonical connector identifier.
	Name string

	// Placeholder is the user name applied when the payload names none.
	Placeholder string

	// AutoReconnect re-enters the session loop with exponential backoff
	// after a close or error, until Disconnect.
	AutoReconnect bool

	// BackoffInitial and BackoffMax bound the reconnect policy.
	// Zero selects the defaults.
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// HandshakeTimeout bounds the WebSocket dial. Default: 10s.
	HandshakeTimeout time.Duration
}

// Connector is a persistent-socket JSON feed source over WebSocket.
type Connector struct {
	*connector.Base
	opts Options

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	conn    *websocket.Conn
}

// New creates a stream connector. See NewLegacyFeed, NewManual, and
// NewSecondaryFeed for the standard instances.
func New(b *bus.Bus, opts Options) *Connector {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.Placeholder == "" {
		opts.Placeholder = "viewer"
	}
	return &Connector{
		Base: connector.NewBase(opts.Name, b),
		opts: opts,
	}
}

// NewLegacyFeed creates the long-lived browser-overlay feed connector with
// automatic reconnection.
func NewLegacyFeed(b *bus.Bus) *Connector {
	return New(b, Options{
		Name:          "legacy_feed",
		Placeholder:   "viewer",
		AutoReconnect: true,
	})
}

// NewManual creates the ad-hoc user-supplied feed connector. No automatic
// reconnection: closing is terminal until the caller connects again.
func NewManual(b *bus.Bus) *Connector {
	return New(b, Options{Name: "manual", Placeholder: "anonymous"})
}

// NewSecondaryFeed creates the secondary feed connector. Same behavior as the
// manual connector under a distinct identity.
func NewSecondaryFeed(b *bus.Bus) *Connector {
	return New(b, Options{Name: "secondary_feed", Placeholder: "guest"})
}

// Connect launches the worker against the given WebSocket URL. Returns false
// when a worker is already running.
func (c *Connector) Connect(target string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.EmitLog("warn", "connect ignored, worker already running")
		return false
	}

	c.SetTarget(target)
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.worker(c.stop, c.done)
	c.EmitLog("info", "connecting to "+target)
	return true
}

// Disconnect stops the worker, closing the socket to unblock any pending
// read, and waits bounded for the worker to exit.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stop)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	done := c.done
	c.mu.Unlock()

	select {
	case <-done:
	case <-time.After(workerExitWait):
		c.EmitLog("warn", "worker did not exit within wait bound")
	}
}

// worker owns the whole connect→disconnect lifespan: one session for the
// manual/secondary connectors, a backoff-governed session loop for the
// legacy feed. All failures resolve to status/log events; nothing panics out.
func (c *Connector) worker(stop, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			c.EmitLog("error", "worker panic recovered")
			c.EmitStatus(event.StateError, "internal worker failure")
			c.EmitStatus(event.StateDisconnected, "")
		}
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	policy := connector.NewReconnectPolicy(c.opts.BackoffInitial, c.opts.BackoffMax)

	for {
		c.session(stop, policy)

		if !c.opts.AutoReconnect || stopped(stop) {
			return
		}

		delay := policy.Next()
		metrics.RecordReconnectAttempt(c.Name())
		c.EmitLog("info", "reconnecting in "+delay.String())

		select {
		case <-time.After(delay):
		case <-stop:
			return
		}
	}
}

// session dials the target and pumps messages until close, error, or stop.
func (c *Connector) session(stop chan struct{}, policy *connector.ReconnectPolicy) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}

	conn, _, err := dialer.Dial(c.Target(), nil)
	if err != nil {
		c.EmitStatus(event.StateError, "connect failed: "+err.Error())
		c.EmitStatus(event.StateDisconnected, "")
		return
	}

	c.mu.Lock()
	// Disconnect may have raced the dial; close immediately instead of
	// leaving an orphan socket.
	if stopped(stop) {
		c.mu.Unlock()
		_ = conn.Close()
		c.EmitStatus(event.StateDisconnected, "")
		return
	}
	c.conn = conn
	c.mu.Unlock()

	c.EmitStatus(event.StateConnected, "")
	policy.Reset()

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if stopped(stop) || isNormalClose(err) {
				c.EmitStatus(event.StateDisconnected, "")
			} else {
				c.EmitStatus(event.StateError, err.Error())
				c.EmitStatus(event.StateDisconnected, "")
			}
			return
		}
		if len(payload) == 0 {
			continue
		}
		c.EmitComment(parsePayload(payload, c.opts.Placeholder))
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

func stopped(stop chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
