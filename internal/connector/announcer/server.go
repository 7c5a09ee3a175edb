// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package announcer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/connector"
	"github.com/tomtom215/commentbridge/internal/event"
	"github.com/tomtom215/commentbridge/internal/metrics"
)

const (
	defaultPlaceholder = "viewer"
	workerExitWait     = 5 * time.Second
	peekTimeout        = 10 * time.Second
)

// Config tunes the announcer server's protection limits.
type Config struct {
	// MaxTextLen bounds the declared text length of a modern binary frame.
	MaxTextLen int
	// MaxHeaderBytes caps the embedded HTTP request head.
	MaxHeaderBytes int
	// MaxConns bounds concurrent handler goroutines. Zero means unbounded.
	MaxConns int64
	// Placeholder is the user name attached to events from this source,
	// which carries no identity of its own.
	Placeholder string
}

// DefaultConfig returns the standard protection limits.
func DefaultConfig() Config {
	return Config{
		MaxTextLen:     DefaultMaxTextLen,
		MaxHeaderBytes: DefaultMaxHeaderBytes,
		Placeholder:    defaultPlaceholder,
	}
}

// Server listens on a TCP port and speaks both the binary frame protocol and
// the embedded HTTP sub-protocol, sniffed per connection.
type Server struct {
	*connector.Base
	cfg Config
	sem *semaphore.Weighted

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	done     chan struct{}
	listener net.Listener
	conns    map[net.Conn]struct{}
	handlers sync.WaitGroup
}

// New creates the announcer server connector.
func New(b *bus.Bus, cfg Config) *Server {
	if cfg.MaxTextLen <= 0 {
		cfg.MaxTextLen = DefaultMaxTextLen
	}
	if cfg.MaxHeaderBytes <= 0 {
		cfg.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = defaultPlaceholder
	}
	s := &Server{
		Base:  connector.NewBase("binary_http_server", b),
		cfg:   cfg,
		conns: make(map[net.Conn]struct{}),
	}
	if cfg.MaxConns > 0 {
		s.sem = semaphore.NewWeighted(cfg.MaxConns)
	}
	return s
}

// Connect binds the listen address and launches the accept loop. Unlike the
// client connectors the bind happens inline, so a port conflict fails the
// launch immediately.
func (s *Server) Connect(target string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.EmitLog("warn", "connect ignored, listener already running")
		return false
	}

	ln, err := net.Listen("tcp", target)
	if err != nil {
		s.EmitLog("error", "listen "+target+": "+err.Error())
		s.EmitStatus(event.StateError, "listen failed: "+err.Error())
		s.EmitStatus(event.StateDisconnected, "")
		return false
	}

	s.SetTarget(target)
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.listener = ln

	go s.acceptLoop(ln, s.stop, s.done)
	s.EmitLog("info", "listening on "+target)
	s.EmitStatus(event.StateConnected, "")
	return true
}

// Disconnect closes the listener and every live connection, then waits
// bounded for the accept loop and handlers to drain.
func (s *Server) Disconnect() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	_ = s.listener.Close()
	for conn := range s.conns {
		_ = conn.Close()
	}
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-time.After(workerExitWait):
		s.EmitLog("warn", "accept loop did not exit within wait bound")
	}
}

func (s *Server) acceptLoop(ln net.Listener, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			s.EmitLog("error", "accept loop panic recovered")
			s.EmitStatus(event.StateError, "internal listener failure")
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		drained := make(chan struct{})
		go func() {
			s.handlers.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(workerExitWait):
			s.EmitLog("warn", "handlers did not drain within wait bound")
		}
		s.EmitStatus(event.StateDisconnected, "")
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if stopped(stop) || errors.Is(err, net.ErrClosed) {
				return
			}
			s.EmitLog("error", "accept: "+err.Error())
			s.EmitStatus(event.StateError, "accept failed: "+err.Error())
			return
		}

		if s.sem != nil {
			if err := s.sem.Acquire(context.Background(), 1); err != nil {
				_ = conn.Close()
				continue
			}
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			_ = conn.Close()
			if s.sem != nil {
				s.sem.Release(1)
			}
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.handlers.Add(1)
		metrics.ServerConnectionsActive.Inc()
		go s.handleConn(conn)
	}
}

// handleConn sniffs the first bytes and dispatches to the HTTP or binary
// handler. One goroutine per connection; a panic or decode fault here takes
// down only this connection.
func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.EmitLog("error", "connection handler panic recovered")
		}
		_ = conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		if s.sem != nil {
			s.sem.Release(1)
		}
		metrics.ServerConnectionsActive.Dec()
		s.handlers.Done()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(peekTimeout))
	br := bufio.NewReader(conn)
	head, err := br.Peek(4)
	if err != nil && len(head) == 0 {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	if isHTTP(head) {
		s.handleHTTP(conn, br)
		return
	}
	s.handleBinary(conn, br)
}

func isHTTP(head []byte) bool {
	return string(head) == "GET " || string(head) == "POST"
}

// handleBinary decodes frames until the peer closes or a frame is
// undecodable. The stream cannot be realigned after a corrupt length field,
// so any decode error ends this connection.
func (s *Server) handleBinary(conn net.Conn, br *bufio.Reader) {
	for {
		p, variant, err := readFrame(br, conn, s.cfg.MaxTextLen)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				// Clean end of stream.
			case errors.Is(err, ErrOversizedText):
				metrics.RecordFrameRejected("oversized_length")
				s.EmitLog("warn", "closing connection: "+err.Error())
			default:
				metrics.RecordFrameRejected("malformed_header")
				s.EmitLog("warn", "closing connection: "+err.Error())
			}
			return
		}

		metrics.RecordFrameDecoded(variant)
		// Empty-text frames are valid control traffic; EmitComment drops
		// them and the connection keeps reading.
		s.EmitComment(&event.CommentEvent{
			UserName: s.cfg.Placeholder,
			Message:  p.Text,
			Raw:      p.raw(variant),
		})
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
