// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps the global otel Tracer with span helpers for the engine's
// three suspension points: language model calls, embedding calls, and
// store calls. Each helper returns a context carrying the new span plus
// an end function that records the error (if any) and closes the span,
// mirroring the teacher's StartLLMRequest/EndLLMRequest pairing.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer builds a Tracer named for the engine component, tagged with
// version for the instrumentation-library metadata otel exporters report.
func NewTracer(name, version string) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name, trace.WithInstrumentationVersion(version)),
	}
}

// EndFunc closes a span started by one of Tracer's Start* helpers. Pass
// the error (if any) that resulted from the traced operation.
type EndFunc func(err error)

func (t *Tracer) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, EndFunc) {
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// StartLanguageModelCall traces a call to types.LanguageModel.Generate.
func (t *Tracer) StartLanguageModelCall(ctx context.Context, model string, promptLen int) (context.Context, EndFunc) {
	return t.start(ctx, "rook.llm.generate",
		attribute.String("rook.llm.model", model),
		attribute.Int("rook.llm.prompt_length", promptLen),
	)
}

// StartEmbeddingCall traces a call to types.Embedder.Embed/EmbedBatch.
func (t *Tracer) StartEmbeddingCall(ctx context.Context, model string, action string, batchSize int) (context.Context, EndFunc) {
	return t.start(ctx, "rook.embed",
		attribute.String("rook.embed.model", model),
		attribute.String("rook.embed.action", action),
		attribute.Int("rook.embed.batch_size", batchSize),
	)
}

// StartStoreCall traces a call into an internal/store adapter, e.g.
// "graph.InsertNode" or "vector.Search".
func (t *Tracer) StartStoreCall(ctx context.Context, operation string, scope string) (context.Context, EndFunc) {
	return t.start(ctx, "rook.store."+operation,
		attribute.String("rook.store.operation", operation),
		attribute.String("rook.scope", scope),
	)
}
