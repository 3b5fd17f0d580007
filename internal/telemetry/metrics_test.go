// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIngestionDecisionIncrementsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordIngestionDecision("create")
	m.RecordIngestionDecision("create")
	m.RecordIngestionDecision("skip")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.IngestionDecisions.WithLabelValues("create")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.IngestionDecisions.WithLabelValues("skip")))
}

func TestRecordRetrievalOnlyCountsHitsOnSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordRetrieval("ok", 0.01, 5)
	m.RecordRetrieval("error", 0.02, 0)

	count, err := testutil.GatherAndCount(reg, "rook_retrieval_hits")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordSweepAccumulatesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordSweep(1.5, 3, 1)
	m.RecordSweep(0.5, 2, 0)

	assert.Equal(t, float64(5), testutil.ToFloat64(m.SweepPromotions))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SweepArchivals))
}

func TestRecordEventDeliveryByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordEventDelivery("delivered")
	m.RecordEventDelivery("dropped")
	m.RecordEventDelivery("dropped")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsDelivered.WithLabelValues("delivered")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventsDelivered.WithLabelValues("dropped")))
}

func TestRecordIntentionFiredByTriggerKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordIntentionFired("keyword_mention")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.IntentionsFired.WithLabelValues("keyword_mention")))
}
