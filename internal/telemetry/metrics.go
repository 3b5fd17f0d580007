// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package telemetry instruments the engine's suspension points: ingestion
// decisions, retrieval latency, and consolidation sweep outcomes go to
// Prometheus; LLM, embedding, and store calls get OpenTelemetry spans.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. Unlike the teacher's
// package-level sync.Once singletons, Metrics is an instance pkg/engine
// constructs and wires through explicitly, so multiple engines in one
// process (e.g. in tests) don't collide on the default registry.
type Metrics struct {
	IngestionDecisions   *prometheus.CounterVec
	RetrievalLatency     *prometheus.HistogramVec
	RetrievalHits        prometheus.Histogram
	SweepPromotions      prometheus.Counter
	SweepArchivals       prometheus.Counter
	SweepDuration        prometheus.Histogram
	IntentionsFired      *prometheus.CounterVec
	EventsDelivered      *prometheus.CounterVec
}

// New registers a fresh set of collectors against registerer. Pass
// prometheus.DefaultRegisterer in production, or prometheus.NewRegistry()
// in tests to avoid cross-test collisions.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		IngestionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rook",
			Subsystem: "ingestion",
			Name:      "decisions_total",
			Help:      "Count of ingestion gate decisions by kind (skip, create, update, supersede).",
		}, []string{"kind"}),

		RetrievalLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rook",
			Subsystem: "retrieval",
			Name:      "latency_seconds",
			Help:      "Latency of Pipeline.Retrieve calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),

		RetrievalHits: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rook",
			Subsystem: "retrieval",
			Name:      "hits",
			Help:      "Number of hits returned per retrieval call.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),

		SweepPromotions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rook",
			Subsystem: "consolidation",
			Name:      "promotions_total",
			Help:      "Count of storage-strength promotions applied by a sweep.",
		}),

		SweepArchivals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rook",
			Subsystem: "consolidation",
			Name:      "archivals_total",
			Help:      "Count of memories archived by a sweep.",
		}),

		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rook",
			Subsystem: "consolidation",
			Name:      "sweep_duration_seconds",
			Help:      "Wall-clock duration of a single Sweep.RunOnce call.",
			Buckets:   prometheus.DefBuckets,
		}),

		IntentionsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rook",
			Subsystem: "intentions",
			Name:      "fired_total",
			Help:      "Count of intentions fired by trigger kind.",
		}, []string{"trigger_kind"}),

		EventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rook",
			Subsystem: "events",
			Name:      "delivered_total",
			Help:      "Count of events delivered to subscribers, by outcome (delivered, dropped).",
		}, []string{"outcome"}),
	}
}

// RecordIngestionDecision increments the counter for a single ingestion
// gate decision kind (e.g. "skip", "create", "update", "supersede").
func (m *Metrics) RecordIngestionDecision(kind string) {
	m.IngestionDecisions.WithLabelValues(kind).Inc()
}

// RecordRetrieval records the latency and hit count of one Retrieve call.
// outcome is "ok" or "error".
func (m *Metrics) RecordRetrieval(outcome string, seconds float64, hits int) {
	m.RetrievalLatency.WithLabelValues(outcome).Observe(seconds)
	if outcome == "ok" {
		m.RetrievalHits.Observe(float64(hits))
	}
}

// RecordSweep records the outcome of one consolidation sweep.
func (m *Metrics) RecordSweep(seconds float64, promotions, archivals int) {
	m.SweepDuration.Observe(seconds)
	m.SweepPromotions.Add(float64(promotions))
	m.SweepArchivals.Add(float64(archivals))
}

// RecordIntentionFired increments the fired counter for a trigger kind.
func (m *Metrics) RecordIntentionFired(triggerKind string) {
	m.IntentionsFired.WithLabelValues(triggerKind).Inc()
}

// RecordEventDelivery increments the delivery counter for an outcome
// ("delivered" or "dropped").
func (m *Metrics) RecordEventDelivery(outcome string) {
	m.EventsDelivered.WithLabelValues(outcome).Inc()
}
