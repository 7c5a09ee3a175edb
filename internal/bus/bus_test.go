// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package bus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/commentbridge/internal/event"
)

func TestPublishSubscribeOrder(t *testing.T) {
	b := New(DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, event.TopicComment)
	require.NoError(t, err)

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, b.Publish(event.TopicComment, []byte(fmt.Sprintf("%d", i))))
	}

	for i := 0; i < n; i++ {
		select {
		case msg := <-msgs:
			assert.Equal(t, fmt.Sprintf("%d", i), string(msg.Payload))
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestPublishConcurrentSafe(t *testing.T) {
	b := New(DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, event.TopicStatus)
	require.NoError(t, err)

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				assert.NoError(t, b.Publish(event.TopicStatus, []byte("s")))
			}
		}()
	}
	wg.Wait()

	received := 0
	for received < workers*perWorker {
		select {
		case msg := <-msgs:
			msg.Ack()
			received++
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of %d messages", received, workers*perWorker)
		}
	}
}

func TestPublishAfterCloseFails(t *testing.T) {
	b := New(DefaultConfig(), nil)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close()) // idempotent

	err := b.Publish(event.TopicComment, []byte("late"))
	assert.Error(t, err)

	_, err = b.Subscribe(context.Background(), event.TopicComment)
	assert.Error(t, err)
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	b := New(Config{BufferSize: 1}, nil)
	defer func() { _ = b.Close() }()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = b.Publish(event.TopicLog, []byte("fire and forget"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}
