// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package event

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeMirrorsAliases(t *testing.T) {
	e := &CommentEvent{
		Source:   "legacy_feed",
		UserName: "bob",
		Message:  "  hello  ",
	}

	require.True(t, e.Finalize())
	assert.Equal(t, "hello", e.Message)
	assert.Equal(t, e.Message, e.Text)
	assert.Equal(t, e.UserName, e.User)
	assert.Equal(t, PlatformUnknown, e.Platform)
	assert.NotNil(t, e.Raw)
}

func TestFinalizeRejectsEmptyMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"tabs and newlines", "\t\n \r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &CommentEvent{Source: "manual", Message: tt.message}
			assert.False(t, e.Finalize())
		})
	}
}

func TestCommentEventWireFieldNames(t *testing.T) {
	e := &CommentEvent{
		Source:   "binary_http_server",
		Platform: "bouyomi",
		UserID:   "42",
		UserName: "viewer",
		Message:  "hi",
		Raw:      map[string]any{"command": float64(1)},
	}
	require.True(t, e.Finalize())

	data, err := e.Marshal()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	for _, key := range []string{"source", "platform", "user_id", "user_name", "message", "raw", "text", "user"} {
		assert.Contains(t, payload, key)
	}
	assert.Equal(t, payload["message"], payload["text"])
	assert.Equal(t, payload["user_name"], payload["user"])
}

func TestConnectionStatusOmitsEmptyError(t *testing.T) {
	s := &ConnectionStatus{State: StateConnected, URL: "ws://x", Connector: "manual"}
	data, err := s.Marshal()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.NotContains(t, payload, "error")

	s.State = StateError
	s.Error = "connection refused"
	data, err = s.Marshal()
	require.NoError(t, err)
	payload = map[string]any{}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "connection refused", payload["error"])
}

func TestUnmarshalCommentEventRoundTrip(t *testing.T) {
	e := &CommentEvent{Source: "tcp_client", Platform: "tcp", UserName: "anon", Message: "line"}
	require.True(t, e.Finalize())

	data, err := e.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalCommentEvent(data)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}
