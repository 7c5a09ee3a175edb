// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package announcer

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/commentbridge/internal/event"
)

// DefaultMaxHeaderBytes caps the total request-line-plus-header read so a
// client that never sends the blank-line terminator cannot grow memory.
const DefaultMaxHeaderBytes = 8 * 1024

// maxBodyBytes caps POST bodies. Talk payloads are small; anything larger is
// a misbehaving client.
const maxBodyBytes = 64 * 1024

// voiceList is the static catalogue served on /getvoicelist. Clients use the
// endpoint purely as a liveness probe; the content is fixed.
const voiceList = "0\tdefault\tfemale1\n" +
	"1\tmale1\tmale1\n" +
	"2\tmale2\tmale2\n" +
	"3\tfemale1\tfemale1\n" +
	"4\tfemale2\tfemale2\n" +
	"5\timd1\timd1\n"

var statusText = map[int]string{
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
}

// httpRequest is the parsed embedded sub-protocol request.
type httpRequest struct {
	method  string
	url     *url.URL
	headers map[string]string
}

// handleHTTP serves exactly one request on the connection and closes it.
// The sub-protocol is deliberately minimal: no keep-alive, no chunked
// bodies, literal CRLF responses.
func (s *Server) handleHTTP(conn net.Conn, br *bufio.Reader) {
	req, err := readRequest(br, s.cfg.MaxHeaderBytes)
	if err != nil {
		s.EmitLog("warn", "bad http request: "+err.Error())
		writeResponse(conn, 400, "")
		return
	}

	switch {
	case req.method == "GET" && req.url.Path == "/getvoicelist":
		writeResponse(conn, 200, voiceList)

	case req.method == "GET" && req.url.Path == "/talk":
		s.handleTalkQuery(conn, req)

	case req.method == "POST" && req.url.Path == "/talk":
		s.handleTalkBody(conn, br, req)

	default:
		writeResponse(conn, 404, "")
	}
}

func (s *Server) handleTalkQuery(conn net.Conn, req *httpRequest) {
	text := req.url.Query().Get("text")
	if strings.TrimSpace(text) == "" {
		writeResponse(conn, 400, "")
		return
	}

	s.EmitComment(&event.CommentEvent{
		UserName: s.cfg.Placeholder,
		Message:  text,
		Raw:      map[string]any{"path": req.url.Path, "query": req.url.RawQuery},
	})
	writeResponse(conn, 200, "")
}

func (s *Server) handleTalkBody(conn net.Conn, br *bufio.Reader, req *httpRequest) {
	lengthHeader := req.headers["content-length"]
	length, err := strconv.Atoi(lengthHeader)
	if err != nil || length < 0 || length > maxBodyBytes {
		writeResponse(conn, 400, "")
		return
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(br, body); err != nil {
		writeResponse(conn, 400, "")
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || strings.TrimSpace(payload.Text) == "" {
		writeResponse(conn, 400, "")
		return
	}

	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	s.EmitComment(&event.CommentEvent{
		UserName: s.cfg.Placeholder,
		Message:  payload.Text,
		Raw:      raw,
	})
	writeResponse(conn, 200, "")
}

// readRequest parses the request line and headers, bounding the total bytes
// read at maxHeaderBytes.
func readRequest(br *bufio.Reader, maxHeaderBytes int) (*httpRequest, error) {
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = DefaultMaxHeaderBytes
	}

	total := 0
	requestLine, err := readHeaderLine(br, &total, maxHeaderBytes)
	if err != nil {
		return nil, err
	}

	fields := strings.Fields(requestLine)
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed request line %q", requestLine)
	}

	u, err := url.ParseRequestURI(fields[1])
	if err != nil {
		return nil, fmt.Errorf("parse request uri: %w", err)
	}

	headers := make(map[string]string)
	for {
		line, err := readHeaderLine(br, &total, maxHeaderBytes)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	return &httpRequest{method: fields[0], url: u, headers: headers}, nil
}

func readHeaderLine(br *bufio.Reader, total *int, maxHeaderBytes int) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read header line: %w", err)
	}
	*total += len(line)
	if *total > maxHeaderBytes {
		return "", fmt.Errorf("headers exceed %d bytes", maxHeaderBytes)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// writeResponse emits a literal HTTP/1.1 response and leaves the connection
// for the caller to close.
func writeResponse(conn net.Conn, status int, body string) {
	text, ok := statusText[status]
	if !ok {
		text = "Internal Server Error"
		status = 500
	}
	_, _ = fmt.Fprintf(conn,
		"HTTP/1.1 %d %s\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		status, text, len(body), body)
}
