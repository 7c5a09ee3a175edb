// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package connector

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/event"
)

// fakeConnector is a minimal Connector for registry and watchdog tests.
type fakeConnector struct {
	*Base
	disconnects atomic.Int32
}

func newFakeConnector(name string, b *bus.Bus) *fakeConnector {
	return &fakeConnector{Base: NewBase(name, b)}
}

func (f *fakeConnector) Connect(target string) bool {
	f.SetTarget(target)
	return true
}

func (f *fakeConnector) Disconnect() {
	f.disconnects.Add(1)
	f.EmitStatus(event.StateDisconnected, "")
}

func TestBaseEmitCommentPublishes(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, event.TopicComment)
	require.NoError(t, err)

	base := NewBase("manual", b)
	base.EmitComment(&event.CommentEvent{UserName: "bob", Message: " hi "})

	select {
	case msg := <-msgs:
		msg.Ack()
		got, err := event.UnmarshalCommentEvent(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, "manual", got.Source)
		assert.Equal(t, "hi", got.Message)
		assert.Equal(t, "hi", got.Text)
		assert.Equal(t, "bob", got.User)
	case <-time.After(time.Second):
		t.Fatal("no comment published")
	}
}

func TestBaseEmitCommentDropsEmpty(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, event.TopicComment)
	require.NoError(t, err)

	base := NewBase("manual", b)
	base.EmitComment(&event.CommentEvent{Message: "   \t  "})

	select {
	case <-msgs:
		t.Fatal("empty message must not be published")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestBaseEmitStatusTracksConnected(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	base := NewBase("legacy_feed", b)
	base.SetTarget("ws://127.0.0.1:11180/sub")
	assert.False(t, base.IsConnected())

	base.EmitStatus(event.StateConnected, "")
	assert.True(t, base.IsConnected())

	base.EmitStatus(event.StateError, "read timeout")
	assert.False(t, base.IsConnected())
}

func TestRegistryRegisterAndSnapshot(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	reg := NewRegistry()
	c1 := newFakeConnector("manual", b)
	c2 := newFakeConnector("legacy_feed", b)

	require.NoError(t, reg.Register(c1))
	require.NoError(t, reg.Register(c2))
	assert.Error(t, reg.Register(newFakeConnector("manual", b)))

	assert.Equal(t, []string{"legacy_feed", "manual"}, reg.Names())

	c1.Connect("ws://example/feed")
	c1.EmitStatus(event.StateConnected, "")

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "legacy_feed", snap[0].Name)
	assert.False(t, snap[0].Connected)
	assert.Equal(t, "manual", snap[1].Name)
	assert.True(t, snap[1].Connected)
	assert.Equal(t, "ws://example/feed", snap[1].Target)
}

func TestWatchdogForcesDisconnectOnExpiry(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	reg := NewRegistry()
	c := newFakeConnector("manual", b)
	require.NoError(t, reg.Register(c))

	var toggledOff atomic.Int32
	w := NewWatchdog(b, reg, 300*time.Millisecond, func(name string) {
		assert.Equal(t, "manual", name)
		toggledOff.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Serve(ctx) }()

	c.Connect("ws://nowhere")
	w.Arm("manual")

	assert.Eventually(t, func() bool {
		return c.disconnects.Load() == 1 && toggledOff.Load() == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.False(t, w.Armed("manual"))
}

// confirmingConnector confirms synchronously inside Connect, like a listening
// server that binds inline.
type confirmingConnector struct {
	*fakeConnector
}

func (c *confirmingConnector) Connect(target string) bool {
	c.SetTarget(target)
	c.EmitStatus(event.StateConnected, "")
	return true
}

func TestWatchdogSparesConnectedConnector(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	reg := NewRegistry()
	c := &confirmingConnector{newFakeConnector("binary_http_server", b)}
	require.NoError(t, reg.Register(c))

	w := NewWatchdog(b, reg, 300*time.Millisecond, func(string) {
		t.Error("healthy connector must not expire")
	})

	// Connect and arm before the watchdog has subscribed: the connected
	// status is published with no consumer and is lost for good.
	require.True(t, c.Connect("127.0.0.1:50001"))
	w.Arm("binary_http_server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Serve(ctx) }()

	assert.Eventually(t, func() bool {
		return !w.Armed("binary_http_server")
	}, 2*time.Second, 20*time.Millisecond)
	assert.Zero(t, c.disconnects.Load(), "healthy connector must not be force-disconnected")
	assert.True(t, c.IsConnected())
}

func TestWatchdogDisarmedByConnectedStatus(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	reg := NewRegistry()
	c := newFakeConnector("secondary_feed", b)
	require.NoError(t, reg.Register(c))

	w := NewWatchdog(b, reg, 400*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Serve(ctx) }()

	// Give the watchdog time to subscribe before the status is published.
	time.Sleep(50 * time.Millisecond)

	w.Arm("secondary_feed")
	c.EmitStatus(event.StateConnected, "")

	assert.Eventually(t, func() bool {
		return !w.Armed("secondary_feed")
	}, 2*time.Second, 20*time.Millisecond)

	time.Sleep(500 * time.Millisecond)
	assert.Zero(t, c.disconnects.Load(), "connected connector must not be force-disconnected")
}
