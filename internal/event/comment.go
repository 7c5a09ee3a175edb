// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package event

import (
	"strings"

	"github.com/goccy/go-json"
)

// Bus topics. These names are part of the wire contract with downstream
// consumers and are used verbatim.
const (
	// TopicComment carries canonical CommentEvent payloads.
	TopicComment = "ONECOMME_COMMENT"
	// TopicStatus carries ConnectionStatus payloads.
	TopicStatus = "WS_STATUS"
	// TopicLog carries free-form LogRecord payloads.
	TopicLog = "BRIDGE_LOG"
)

// PlatformUnknown is the platform value when the source payload does not
// identify one.
const PlatformUnknown = "unknown"

// CommentEvent is the canonical normalized comment record.
//
// Text mirrors Message and User mirrors UserName so consumers written against
// either naming generation keep working. Finalize enforces the mirroring.
type CommentEvent struct {
	Source   string         `json:"source"`
	Platform string         `json:"platform"`
	UserID   string         `json:"user_id"`
	UserName string         `json:"user_name"`
	Message  string         `json:"message"`
	Raw      map[string]any `json:"raw"`

	// Back-compat aliases, always mirrored from Message/UserName.
	Text string `json:"text"`
	User string `json:"user"`
}

// Finalize trims the message, applies defaults, and mirrors the back-compat
// aliases. It returns false when the event must not be published because the
// message is empty after trimming.
func (e *CommentEvent) Finalize() bool {
	e.Message = strings.TrimSpace(e.Message)
	if e.Message == "" {
		return false
	}
	if e.Platform == "" {
		e.Platform = PlatformUnknown
	}
	if e.Raw == nil {
		e.Raw = map[string]any{}
	}
	e.Text = e.Message
	e.User = e.UserName
	return true
}

// Marshal serializes the event for bus publication.
func (e *CommentEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalCommentEvent deserializes a bus payload back into a CommentEvent.
func UnmarshalCommentEvent(data []byte) (*CommentEvent, error) {
	var e CommentEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
