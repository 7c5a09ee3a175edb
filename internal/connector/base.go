// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package connector

import (
	"sync"
	"sync/atomic"

	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/event"
	"github.com/tomtom215/commentbridge/internal/logging"
	"github.com/tomtom215/commentbridge/internal/metrics"
)

// Base carries the identity and emit helpers shared by all connector
// implementations. Embed it by pointer; its methods are safe for concurrent
// use from the worker and any server handlers.
type Base struct {
	name string
	bus  *bus.Bus

	mu     sync.RWMutex
	target string

	connected atomic.Bool
}

// NewBase creates the shared state for a named connector.
func NewBase(name string, b *bus.Bus) *Base {
	return &Base{name: name, bus: b}
}

// Name returns the canonical connector identifier.
func (b *Base) Name() string { return b.name }

// Target returns the most recently requested target.
func (b *Base) Target() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.target
}

// SetTarget records the requested target for status echoes.
func (b *Base) SetTarget(target string) {
	b.mu.Lock()
	b.target = target
	b.mu.Unlock()
}

// IsConnected reflects only confirmed "connected" status.
func (b *Base) IsConnected() bool { return b.connected.Load() }

// EmitComment finalizes and publishes a canonical comment event. Events whose
// message is empty after trimming are logged and dropped; publication is
// best-effort and never blocks the caller's I/O path beyond the bus buffer.
func (b *Base) EmitComment(e *event.CommentEvent) {
	e.Source = b.name
	if !e.Finalize() {
		b.EmitLog("debug", "skipping empty message")
		return
	}

	payload, err := e.Marshal()
	if err != nil {
		b.EmitLog("error", "marshal comment: "+err.Error())
		return
	}
	if err := b.bus.Publish(event.TopicComment, payload); err != nil {
		b.EmitLog("error", "publish comment: "+err.Error())
		return
	}
	metrics.RecordComment(b.name)
}

// EmitStatus publishes one ConnectionStatus transition and updates the
// confirmed-connected flag. errMsg is included only for state "error".
func (b *Base) EmitStatus(state, errMsg string) {
	b.connected.Store(state == event.StateConnected)
	metrics.SetConnectorState(b.name, state == event.StateConnected)

	s := &event.ConnectionStatus{
		State:     state,
		URL:       b.Target(),
		Connector: b.name,
	}
	if state == event.StateError {
		s.Error = errMsg
	}

	payload, err := s.Marshal()
	if err != nil {
		b.EmitLog("error", "marshal status: "+err.Error())
		return
	}
	if err := b.bus.Publish(event.TopicStatus, payload); err != nil {
		b.EmitLog("error", "publish status: "+err.Error())
	}
}

// EmitLog publishes a tagged log line on the bus and mirrors it to the
// structured logger.
func (b *Base) EmitLog(level, msg string) {
	tagged := "[" + b.name + "] " + msg

	switch level {
	case "debug":
		logging.Debug().Str("connector", b.name).Msg(msg)
	case "warn":
		logging.Warn().Str("connector", b.name).Msg(msg)
	case "error":
		logging.Error().Str("connector", b.name).Msg(msg)
	default:
		logging.Info().Str("connector", b.name).Msg(msg)
	}

	rec := &event.LogRecord{Level: level, Msg: tagged}
	payload, err := rec.Marshal()
	if err != nil {
		return
	}
	// Best effort: a full or closed bus must not disturb the caller.
	_ = b.bus.Publish(event.TopicLog, payload)
}
