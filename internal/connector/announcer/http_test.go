// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package announcer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/event"
)

// roundTrip sends one raw HTTP request to the server and returns the status
// code and body. Every request rides its own connection; the sub-protocol has
// no keep-alive.
func roundTrip(t *testing.T, addr, raw string) (int, string) {
	t.Helper()
	conn := dial(t, addr)
	_, err := conn.Write([]byte(raw))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	br := bufio.NewReader(conn)
	statusLine, err := br.ReadString('\n')
	require.NoError(t, err)

	var proto string
	var code int
	_, err = fmt.Sscanf(statusLine, "%s %d", &proto, &code)
	require.NoError(t, err)
	require.Equal(t, "HTTP/1.1", proto)

	// Skip headers, then read the body to EOF.
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimRight(line, "\r\n") == "" {
			break
		}
	}
	body, _ := io.ReadAll(br)
	return code, string(body)
}

func TestHTTPGetVoiceList(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	_, addr := startServer(t, b, DefaultConfig())

	code, body := roundTrip(t, addr, "GET /getvoicelist HTTP/1.1\r\nHost: x\r\n\r\n")
	assert.Equal(t, 200, code)
	assert.Contains(t, body, "0\tdefault")
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		assert.Len(t, strings.Split(line, "\t"), 3)
	}
}

func TestHTTPTalkQuery(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	comments := subscribe(t, b, event.TopicComment)
	_, addr := startServer(t, b, DefaultConfig())

	code, _ := roundTrip(t, addr, "GET /talk?text=hello%20there HTTP/1.1\r\nHost: x\r\n\r\n")
	assert.Equal(t, 200, code)

	e := waitComment(t, comments)
	assert.Equal(t, "hello there", e.Message)
	assert.Equal(t, "viewer", e.UserName)
	assert.Equal(t, "binary_http_server", e.Source)
}

func TestHTTPTalkQueryEmptyText(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	_, addr := startServer(t, b, DefaultConfig())

	code, _ := roundTrip(t, addr, "GET /talk HTTP/1.1\r\nHost: x\r\n\r\n")
	assert.Equal(t, 400, code)

	code, _ = roundTrip(t, addr, "GET /talk?text= HTTP/1.1\r\nHost: x\r\n\r\n")
	assert.Equal(t, 400, code)
}

func TestHTTPTalkPost(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	comments := subscribe(t, b, event.TopicComment)
	_, addr := startServer(t, b, DefaultConfig())

	payload := `{"text":"posted message","voice":2}`
	raw := fmt.Sprintf("POST /talk HTTP/1.1\r\nHost: x\r\nContent-Length: %d\r\n\r\n%s", len(payload), payload)
	code, _ := roundTrip(t, addr, raw)
	assert.Equal(t, 200, code)

	e := waitComment(t, comments)
	assert.Equal(t, "posted message", e.Message)
	assert.Equal(t, float64(2), e.Raw["voice"])
}

func TestHTTPTalkPostMissingText(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	_, addr := startServer(t, b, DefaultConfig())

	payload := `{"voice":2}`
	raw := fmt.Sprintf("POST /talk HTTP/1.1\r\nHost: x\r\nContent-Length: %d\r\n\r\n%s", len(payload), payload)
	code, _ := roundTrip(t, addr, raw)
	assert.Equal(t, 400, code)
}

func TestHTTPTalkPostBadJSON(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	_, addr := startServer(t, b, DefaultConfig())

	raw := "POST /talk HTTP/1.1\r\nHost: x\r\nContent-Length: 8\r\n\r\nnot json"
	code, _ := roundTrip(t, addr, raw)
	assert.Equal(t, 400, code)
}

func TestHTTPUnknownPath(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	_, addr := startServer(t, b, DefaultConfig())

	code, _ := roundTrip(t, addr, "GET /nothing HTTP/1.1\r\nHost: x\r\n\r\n")
	assert.Equal(t, 404, code)
}

func TestHTTPOversizedHeaders(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	_, addr := startServer(t, b, Config{MaxHeaderBytes: 256})

	raw := "GET /talk?text=x HTTP/1.1\r\nHost: x\r\nX-Pad: " +
		strings.Repeat("a", 512) + "\r\n\r\n"
	code, _ := roundTrip(t, addr, raw)
	assert.Equal(t, 400, code)
}

func TestHTTPConnectionClosedAfterResponse(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	_, addr := startServer(t, b, DefaultConfig())

	conn := dial(t, addr)
	_, err := conn.Write([]byte("GET /getvoicelist HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, err = io.ReadAll(conn)
	require.NoError(t, err, "server must close after serving one request")
}

func TestServerMaxConns(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil)
	defer func() { _ = b.Close() }()

	comments := subscribe(t, b, event.TopicComment)
	cfg := DefaultConfig()
	cfg.MaxConns = 1
	_, addr := startServer(t, b, cfg)

	first := dial(t, addr)
	second := dial(t, addr)

	// The second connection is queued behind the semaphore until the first
	// finishes its request.
	code, _ := func() (int, string) {
		_, err := first.Write([]byte("GET /getvoicelist HTTP/1.1\r\nHost: x\r\n\r\n"))
		require.NoError(t, err)
		_ = first.SetReadDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(first)
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		var proto string
		var c int
		_, err = fmt.Sscanf(line, "%s %d", &proto, &c)
		require.NoError(t, err)
		return c, ""
	}()
	assert.Equal(t, 200, code)
	require.NoError(t, first.Close())

	_, err := second.Write([]byte("GET /talk?text=queued HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)
	e := waitComment(t, comments)
	assert.Equal(t, "queued", e.Message)
}
