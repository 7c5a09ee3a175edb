// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package announcer emulates a legacy speech-announcer appliance on a single
// TCP port. Each inbound connection is sniffed by peeking its first four
// bytes: "GET " or "POST" dispatches to a minimal embedded HTTP handler,
// anything else to the binary frame decoder.
//
// The binary protocol has two incompatible little-endian frame layouts that
// share the port. Per frame the 15-byte header is attempted first and the
// 12-byte all-u16 legacy layout is used only when the stream cannot supply a
// full 15-byte header. Some byte sequences parse as valid under both layouts
// with different semantics; the fixed try-order is the protocol's only
// disambiguation and is preserved here as-is.
//
// One handler goroutine runs per connection with no connection ceiling by
// default; a semaphore can be layered around accept via Config.MaxConns.
// A malformed or oversized frame header aborts only its own connection (the
// byte stream cannot be realigned after a corrupt length field); the
// listener keeps accepting.
package announcer
