// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package metrics provides Prometheus instrumentation for the bridge:
// bus throughput, connector lifecycle, protocol decode outcomes, and
// watchdog activity. Metrics are exposed on the ops API /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event bus metrics
	BusPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_bus_publishes_total",
			Help: "Total number of messages published on the internal bus",
		},
		[]string{"topic"},
	)

	// Connector metrics
	CommentsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_comments_published_total",
			Help: "Total number of canonical comment events published",
		},
		[]string{"source"},
	)

	ConnectorState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_connector_connected",
			Help: "Whether a connector currently reports connected (1) or not (0)",
		},
		[]string{"connector"},
	)

	ReconnectAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_reconnect_attempts_total",
			Help: "Total number of reconnection attempts per connector",
		},
		[]string{"connector"},
	)

	WatchdogExpirationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_watchdog_expirations_total",
			Help: "Total number of forced disconnects by the connection watchdog",
		},
		[]string{"connector"},
	)

	// Multiplexed server metrics
	ServerConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_server_connections_active",
			Help: "Current number of in-flight connections on the announcer server",
		},
	)

	FramesDecodedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_frames_decoded_total",
			Help: "Total number of binary frames decoded, by header variant",
		},
		[]string{"variant"}, // "modern" (15-byte) or "legacy" (12-byte)
	)

	FramesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_frames_rejected_total",
			Help: "Total number of binary frames rejected",
		},
		[]string{"reason"}, // "malformed_header", "oversized_length"
	)
)

// RecordBusPublish increments the publish counter for a topic.
func RecordBusPublish(topic string) {
	BusPublishesTotal.WithLabelValues(topic).Inc()
}

// RecordComment increments the comment counter for a source.
func RecordComment(source string) {
	CommentsPublishedTotal.WithLabelValues(source).Inc()
}

// SetConnectorState records the confirmed connection state of a connector.
func SetConnectorState(connector string, connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	ConnectorState.WithLabelValues(connector).Set(v)
}

// RecordReconnectAttempt increments the reconnect counter for a connector.
func RecordReconnectAttempt(connector string) {
	ReconnectAttemptsTotal.WithLabelValues(connector).Inc()
}

// RecordWatchdogExpiration increments the watchdog forced-disconnect counter.
func RecordWatchdogExpiration(connector string) {
	WatchdogExpirationsTotal.WithLabelValues(connector).Inc()
}

// RecordFrameDecoded increments the decoded-frame counter for a variant.
func RecordFrameDecoded(variant string) {
	FramesDecodedTotal.WithLabelValues(variant).Inc()
}

// RecordFrameRejected increments the rejected-frame counter for a reason.
func RecordFrameRejected(reason string) {
	FramesRejectedTotal.WithLabelValues(reason).Inc()
}
