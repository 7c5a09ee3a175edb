// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package event

import "github.com/goccy/go-json"

// Connection states reported on TopicStatus.
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateError        = "error"
)

// ConnectionStatus is emitted once per lifecycle transition of a connector.
// There is no retention; consumers track current state themselves.
type ConnectionStatus struct {
	State     string `json:"state"`
	URL       string `json:"url"`
	Connector string `json:"connector"`
	Error     string `json:"error,omitempty"`
}

// Marshal serializes the status for bus publication.
func (s *ConnectionStatus) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalConnectionStatus deserializes a bus payload back into a
// ConnectionStatus.
func UnmarshalConnectionStatus(data []byte) (*ConnectionStatus, error) {
	var s ConnectionStatus
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LogRecord is the free-form log payload. Msg carries a bracketed connector
// tag prefix, e.g. "[legacy_feed] reconnecting in 2s".
type LogRecord struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

// Marshal serializes the record for bus publication.
func (r *LogRecord) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
