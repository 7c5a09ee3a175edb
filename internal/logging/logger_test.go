// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"ERROR", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("connector", "legacy_feed").Msg("connected")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"connector":"legacy_feed"`)
	assert.Contains(t, out, `"message":"connected"`)
}

func TestNewTestLoggerCaptures(t *testing.T) {
	var buf bytes.Buffer
	l := NewTestLogger(&buf)
	l.Warn().Msg("watchdog fired")
	assert.True(t, strings.Contains(buf.String(), "watchdog fired"))
}

func TestWatermillAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	adapter := NewWatermillAdapter().With(watermill.LogFields{"topic": "ONECOMME_COMMENT"})
	adapter.Info("published", watermill.LogFields{"uuid": "abc"})

	out := buf.String()
	assert.Contains(t, out, `"topic":"ONECOMME_COMMENT"`)
	assert.Contains(t, out, `"uuid":"abc"`)
	assert.Contains(t, out, "published")
}
