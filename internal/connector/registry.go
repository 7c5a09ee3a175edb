// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package connector

import (
	"fmt"
	"sort"
	"sync"
)

// Registry owns the connector instances composed at startup. It replaces any
// notion of a global "current server": whoever builds the bridge holds the
// registry and passes it by reference.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector under its canonical name. Registering the same
// name twice is a programming error and returns an error rather than
// replacing a live instance.
func (r *Registry) Register(c Connector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.connectors[c.Name()]; exists {
		return fmt.Errorf("connector %q already registered", c.Name())
	}
	r.connectors[c.Name()] = c
	return nil
}

// Get returns the connector registered under name.
func (r *Registry) Get(name string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[name]
	return c, ok
}

// Names returns all registered connector names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status is a point-in-time view of one connector for the ops API.
type Status struct {
	Name      string `json:"name"`
	Target    string `json:"target"`
	Connected bool   `json:"connected"`
}

// Snapshot returns the current status of every connector, sorted by name.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]Status, 0, len(r.connectors))
	for _, c := range r.connectors {
		statuses = append(statuses, Status{
			Name:      c.Name(),
			Target:    c.Target(),
			Connected: c.IsConnected(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// DisconnectAll stops every connector. Used during shutdown.
func (r *Registry) DisconnectAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.connectors {
		c.Disconnect()
	}
}
