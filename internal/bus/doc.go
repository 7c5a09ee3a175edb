// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package bus provides the internal event bus.
//
// The bus is an ordered, fire-and-forget publish/subscribe primitive backed
// by Watermill's in-process gochannel Pub/Sub. Topics are opaque strings and
// payloads are JSON documents. Publish is safe for concurrent use from any
// connector worker or server handler.
//
// When NATS fan-out is enabled, a Forwarder service re-publishes the comment
// and status topics to a NATS server for out-of-process display and speech
// consumers. Forwarding is best-effort: a broken NATS connection trips a
// circuit breaker and never blocks the in-process path.
package bus
