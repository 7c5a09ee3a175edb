// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package tcpjson implements the outbound line-delimited JSON TCP connector.
//
// The wire format is a strict contract: one JSON object per line with a
// required "comment" (or "text") field. Undecodable lines are skipped, not
// passed through; EOF ends the session cleanly.
package tcpjson

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/connector"
	"github.com/tomtom215/commentbridge/internal/event"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultReadTimeout    = 60 * time.Second
	workerExitWait        = 5 * time.Second
)

// Config holds the client connector's socket timeouts. The short connect
// timeout surfaces a dead target fast; the longer read timeout detects
// silent peer death on an established session.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultConfig returns the standard timeouts.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: defaultConnectTimeout,
		ReadTimeout:    defaultReadTimeout,
	}
}

// Connector reads newline-delimited JSON comment objects from a TCP server.
type Connector struct {
	*connector.Base
	cfg Config

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	conn    net.Conn
}

// New creates the TCP client connector.
func New(b *bus.Bus, cfg Config) *Connector {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	return &Connector{
		Base: connector.NewBase("tcp_client", b),
		cfg:  cfg,
	}
}

// Connect launches the worker against a host:port target. A target that does
// not parse as host:port fails the launch immediately.
func (c *Connector) Connect(target string) bool {
	if _, _, err := net.SplitHostPort(target); err != nil {
		c.EmitLog("error", "invalid target "+target+": "+err.Error())
		return false
	}

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

	conn, err := net.DialTimeout("tcp", c.Target(), c.cfg.ConnectTimeout)
	if err != nil {
		c.EmitStatus(event.StateError, classifyDialError(err, c.cfg.ConnectTimeout))
		c.EmitStatus(event.StateDisconnected, "")
		return
	}

	c.mu.Lock()
	if stopped(stop) {
		c.mu.Unlock()
		_ = conn.Close()
		c.EmitStatus(event.StateDisconnected, "")
		return
	}
	c.conn = conn
	c.mu.Unlock()

	c.EmitStatus(event.StateConnected, "")

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()
	}()

	reader := bufio.NewReader(conn)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			c.EmitStatus(event.StateError, "set read deadline: "+err.Error())
			c.EmitStatus(event.StateDisconnected, "")
			return
		}

		line, err := reader.ReadString('\n')
		if line != "" {
			c.handleLine(line)
		}
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
			// Clean end of session.
			c.EmitStatus(event.StateDisconnected, "")
		case stopped(stop):
			c.EmitStatus(event.StateDisconnected, "")
		default:
			c.EmitStatus(event.StateError, classifyReadError(err, c.cfg.ReadTimeout))
			c.EmitStatus(event.StateDisconnected, "")
		}
		return
	}
}

// handleLine decodes one line and publishes it. Malformed lines are logged
// and skipped; the session keeps reading.
func (c *Connector) handleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		c.EmitLog("warn", "skipping undecodable line: "+err.Error())
		return
	}

	msg := asString(data["comment"])
	if msg == "" {
		msg = asString(data["text"])
	}
	if msg == "" {
		c.EmitLog("warn", "skipping line without comment/text field")
		return
	}

	author := asString(data["author"])
	if author == "" {
		author = "unknown"
	}
	platform := asString(data["platform"])
	if platform == "" {
		platform = "tcp"
	}

	c.EmitComment(&event.CommentEvent{
		Platform: platform,
		UserID:   asString(data["user_id"]),
		UserName: author,
		Message:  msg,
		Raw:      data,
	})
}

// classifyDialError maps dial failures to the three human-readable
// categories the status consumers distinguish.
func classifyDialError(err error, timeout time.Duration) string {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("connection timeout after %s", timeout)
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	default:
		return "connection failed: " + err.Error()
	}
}

func classifyReadError(err error, timeout time.Duration) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("read timeout after %s, peer silent", timeout)
	}
	return "read failed: " + err.Error()
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64, int, int64, bool:
		return fmt.Sprint(s)
	default:
		return ""
	}
}

func stopped(stop chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
