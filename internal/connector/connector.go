// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package connector

// Connector is the contract every comment source implementation satisfies.
//
// The GUI-equivalent driver (the ops API here) calls Connect and Disconnect;
// everything else the connector reports happens through bus events.
type Connector interface {
	// Name returns the canonical connector identifier, e.g. "legacy_feed".
	Name() string

	// Connect begins an asynchronous connection attempt against target and
	// returns immediately. The boolean reports only whether the attempt was
	// launched, never whether it succeeded. Safe to call again after a prior
	// Disconnect.
	Connect(target string) bool

	// Disconnect stops the connector. Idempotent: calling it on an already
	// stopped connector is a no-op. It unblocks any pending network read and
	// waits, bounded, for the worker to exit before returning.
	Disconnect()

	// IsConnected reflects only confirmed "connected" status, never
	// "connecting".
	IsConnected() bool

	// Target returns the most recently requested target.
	Target() string
}
