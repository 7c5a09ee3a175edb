// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package connector

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default reconnect policy bounds. Literal constants inherited from the
// system being replaced; configurable, not protocol-mandated.
const (
	DefaultBackoffInitial = 1 * time.Second
	DefaultBackoffMax     = 10 * time.Second
)

// ReconnectPolicy produces the delay between reconnection attempts: starts at
// the initial interval, doubles after every failed attempt, caps at the max,
// and resets to the initial interval on any successful connection.
//
// The policy only computes delays. Sleeping on them, and interrupting the
// sleep on Disconnect, is the owning connector's job.
type ReconnectPolicy struct {
	b *backoff.ExponentialBackOff
}

// NewReconnectPolicy creates a policy with the given bounds. Zero values
// select the defaults. No jitter: the doubling sequence is part of the
// observable contract.
func NewReconnectPolicy(initial, max time.Duration) *ReconnectPolicy {
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = max
	b.MaxElapsedTime = 0 // never give up; Disconnect is the only exit
	b.Reset()

	return &ReconnectPolicy{b: b}
}

// Next returns the delay to sleep before the next attempt and advances the
// doubling sequence.
func (p *ReconnectPolicy) Next() time.Duration {
	return p.b.NextBackOff()
}

// Reset restores the initial interval. Call on every successful "connected"
// transition.
func (p *ReconnectPolicy) Reset() {
	p.b.Reset()
}
