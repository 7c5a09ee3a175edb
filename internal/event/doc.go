// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package event defines the canonical records published on the event bus.
//
// Every connector normalizes its wire format into a CommentEvent before
// publishing on TopicComment, and reports lifecycle transitions as
// ConnectionStatus records on TopicStatus. Downstream display and speech
// consumers depend on the exact field names in these payloads; do not rename
// JSON tags without a migration plan for the consumers.
package event
