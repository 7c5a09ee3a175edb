// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestConnectorStateGauge(t *testing.T) {
	SetConnectorState("legacy_feed", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(ConnectorState.WithLabelValues("legacy_feed")))

	SetConnectorState("legacy_feed", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(ConnectorState.WithLabelValues("legacy_feed")))
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(FramesRejectedTotal.WithLabelValues("oversized_length"))
	RecordFrameRejected("oversized_length")
	after := testutil.ToFloat64(FramesRejectedTotal.WithLabelValues("oversized_length"))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(CommentsPublishedTotal.WithLabelValues("manual"))
	RecordComment("manual")
	after = testutil.ToFloat64(CommentsPublishedTotal.WithLabelValues("manual"))
	assert.Equal(t, before+1, after)
}
