// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package stream

import (
	"github.com/tomtom215/commentbridge/internal/bus"
	"github.com/tomtom215/commentbridge/internal/connector"
)

// Placeholder stands in for a feed whose protocol is not implemented yet.
// It satisfies the Connector contract but only logs; no worker, no events.
type Placeholder struct {
	*connector.Base
}

// NewPlaceholder creates the placeholder connector under the given name.
func NewPlaceholder(b *bus.Bus, name string) *Placeholder {
	return &Placeholder{Base: connector.NewBase(name, b)}
}

// Connect logs that the source is unavailable and reports no attempt.
func (p *Placeholder) Connect(target string) bool {
	p.SetTarget(target)
	p.EmitLog("warn", "connector not implemented, ignoring connect")
	return false
}

// Disconnect is a no-op.
func (p *Placeholder) Disconnect() {}
