// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package stream

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/commentbridge/internal/event"
)

// Ordered fallback key lists. Feeds in the wild disagree on naming; the first
// key present wins.
var (
	messageKeys = []string{"message", "text", "comment", "body", "content"}
	userKeys    = []string{"user", "name", "userName", "user_name", "author", "displayName"}
)

// parsePayload turns one raw feed payload into a comment event.
//
// JSON payloads go through the fallback key lists. Anything that does not
// decode as a JSON object is passed through verbatim as the message: a
// non-empty payload is never dropped merely because it is not valid JSON.
// The returned event still needs Finalize; an absent message key leaves
// Message empty and the event is dropped there.
func parsePayload(payload []byte, placeholder string) *event.CommentEvent {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil || data == nil {
		return &event.CommentEvent{
			UserName: placeholder,
			Message:  string(payload),
			Raw:      map[string]any{"raw": string(payload)},
		}
	}

	userName := firstString(data, userKeys)
	if userName == "" {
		userName = placeholder
	}

	return &event.CommentEvent{
		Platform: stringValue(data["platform"]),
		UserID:   stringValue(data["user_id"]),
		UserName: userName,
		Message:  firstString(data, messageKeys),
		Raw:      data,
	}
}

// firstString returns the value of the first key present with a non-empty
// stringable value.
func firstString(data map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := data[key]; ok {
			if s := stringValue(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringValue renders scalar payload values as strings. Nested objects and
// nil yield "".
func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64, int, int64, bool:
		return fmt.Sprint(s)
	default:
		return ""
	}
}
