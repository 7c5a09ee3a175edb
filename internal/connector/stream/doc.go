// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package stream implements the persistent-socket JSON feed connectors: the
// legacy browser-overlay feed, the manual ad-hoc feed, the secondary feed,
// and a placeholder for a source that is not implemented yet.
//
// All three live connectors share one WebSocket session loop and one
// flexible payload parser. They differ only in identity, default user-name
// placeholder, and reconnect behavior: the legacy feed reconnects forever
// with exponential backoff because its upstream is long-lived and
// transient-failure-prone; the manual and secondary feeds stop on close so a
// mistyped user-supplied URL does not spam the logs with a reconnect loop.
package stream
