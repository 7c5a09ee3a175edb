// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package connector defines the contract every comment source satisfies and
// the shared machinery around it: the Base emitter embedded by every
// implementation, the registry owning the instances, the reconnect policy,
// and the connection watchdog.
//
// Lifecycle contract: Connect launches an asynchronous attempt and reports
// only that the attempt started. Disconnect is idempotent and unblocks any
// pending network read before returning. Every state transition emits exactly
// one ConnectionStatus event. No failure inside a worker may propagate as a
// panic; workers convert failures to status and log events and either retry
// (per their own policy) or terminate cleanly. Connectors are independent: a
// failure in one never touches another's state machine.
package connector
