// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package engine wires the memory engine's components (ingestion gate,
// contradiction detector, knowledge graph, hybrid retriever,
// consolidation sweep, intentions, event bus) into a single entry point
// a server or CLI can call, the same assembly role the teacher's
// internal/server.MCPServer played over its database/git/auth stack.
package engine

import (
	"context"
	"time"

	"github.com/BangRocket/rook/internal/contradiction"
	"github.com/BangRocket/rook/internal/crypto"
	"github.com/BangRocket/rook/internal/events"
	"github.com/BangRocket/rook/internal/graph"
	"github.com/BangRocket/rook/internal/ingestion"
	"github.com/BangRocket/rook/internal/intentions"
	"github.com/BangRocket/rook/internal/retrieval"
	"github.com/BangRocket/rook/internal/rookerr"
	"github.com/BangRocket/rook/internal/telemetry"
	"github.com/BangRocket/rook/internal/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MemoryStore is the persistence slice Engine needs beyond the
// capability interfaces (types.VectorStore etc.): CRUD plus the
// retrieval/consolidation query methods internal/store.MemoryStore
// already implements.
type MemoryStore interface {
	Create(ctx context.Context, m *types.Memory) error
	Get(ctx context.Context, scope types.Scope, id string) (*types.Memory, error)
	Update(ctx context.Context, m *types.Memory) error
	Supersede(ctx context.Context, scope types.Scope, oldID, newID string, at time.Time) error
	retrieval.KeyMemoryLister
	retrieval.MemoryFetcher
	retrieval.AccessRecorder
}

// HistoryStore is the append-only version history slice Engine needs.
type HistoryStore interface {
	Append(ctx context.Context, record *types.VersionRecord) error
	List(ctx context.Context, memoryID string) ([]*types.VersionRecord, error)
}

// Engine is the assembled memory system: every lifecycle operation
// (Remember, Recall, Forget) flows through here, the boundary
// behind which pkg/engine's caller never sees the store/embedder/LLM
// adapters directly.
type Engine struct {
	Memories  MemoryStore
	History   HistoryStore
	Vectors   types.VectorStore
	Embedder  types.Embedder
	Gate      *ingestion.Gate
	Graph     *graph.KnowledgeGraph
	Retrieval *retrieval.Pipeline
	Checker   *intentions.Checker
	Bus       *events.Bus
	Metrics   *telemetry.Metrics
	Tracer    *telemetry.Tracer
	Logger    *logrus.Logger

	// ContentCipher, when set, encrypts memory content before it is
	// persisted and decrypts it on every read path. It is nil by
	// default: content-at-rest encryption is an opt-in deployment
	// concern, not a spec.md invariant.
	ContentCipher *crypto.ContentCipher

	locks *scopeLocks
}

// New assembles an Engine from its collaborators. Any of Graph, Checker,
// Bus, Metrics, Tracer, ContentCipher may be nil; Engine degrades
// gracefully (skips knowledge-graph attachment, intention firing, event
// emission, tracing/metrics, or encryption respectively).
func New(memories MemoryStore, history HistoryStore, vectors types.VectorStore, embedder types.Embedder, gate *ingestion.Gate, pipeline *retrieval.Pipeline) *Engine {
	return &Engine{
		Memories:  memories,
		History:   history,
		Vectors:   vectors,
		Embedder:  embedder,
		Gate:      gate,
		Retrieval: pipeline,
		Logger:    logrus.StandardLogger(),
		locks:     newScopeLocks(),
	}
}

func (e *Engine) logger() *logrus.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logrus.StandardLogger()
}

func (e *Engine) encryptContent(content string) (string, error) {
	if e.ContentCipher == nil {
		return content, nil
	}
	return e.ContentCipher.Encrypt(content)
}

func (e *Engine) decryptContent(content string) string {
	if e.ContentCipher == nil {
		return content
	}
	plain, err := e.ContentCipher.Decrypt(content)
	if err != nil {
		// Content predates encryption being enabled, or the key
		// rotated; surface the ciphertext rather than failing the
		// whole call.
		return content
	}
	return plain
}

func (e *Engine) decryptMemory(m *types.Memory) *types.Memory {
	if m == nil || e.ContentCipher == nil {
		return m
	}
	m.Content = e.decryptContent(m.Content)
	return m
}

func (e *Engine) recordFact(ctx context.Context, memoryID string, version int, content string, kind types.ChangeKind, note string) {
	if e.History == nil {
		return
	}
	if err := e.History.Append(ctx, &types.VersionRecord{
		ID:        uuid.New().String(),
		MemoryID:  memoryID,
		Version:   version,
		Content:   content,
		Kind:      kind,
		ChangedAt: time.Now(),
		Note:      note,
	}); err != nil {
		e.logger().WithError(err).Warn("append version history failed")
	}
}

func (e *Engine) emit(event events.Event) {
	if e.Bus == nil {
		return
	}
	e.Bus.Emit(event)
}

func (e *Engine) attachToGraph(ctx context.Context, m *types.Memory) {
	if e.Graph == nil {
		return
	}
	if err := e.Graph.AttachMemory(ctx, m); err != nil {
		e.logger().WithError(err).WithField("memory_id", m.ID).Warn("knowledge graph attachment failed")
	}
}

// RememberResult reports which branch of the ingestion gate a Remember
// call took and the memory that resulted, if any.
type RememberResult struct {
	Decision ingestion.Decision
	Memory   *types.Memory
}

// Remember runs the full ingestion path (spec.md components F, G, L):
// embed the candidate, gather its nearest neighbors, evaluate the gate,
// persist the outcome, and fan out a lifecycle event.
func (e *Engine) Remember(ctx context.Context, scope types.Scope, content string) (RememberResult, error) {
	end := e.traceStore(ctx, "engine.Remember", scope)
	defer func() { end(nil) }()

	unlock := e.locks.lockScope(scope)
	defer unlock()

	embedding, err := e.Embedder.Embed(ctx, content, types.EmbedForAdd)
	if err != nil {
		return RememberResult{}, rookerr.Wrap(rookerr.KindProviderError, "embedding candidate fact", err)
	}

	neighbors, err := e.nearestNeighbors(ctx, scope, embedding)
	if err != nil {
		return RememberResult{}, err
	}

	decision, err := e.Gate.Evaluate(ctx, content, embedding, neighbors)
	if err != nil {
		return RememberResult{}, rookerr.Wrap(rookerr.KindInternal, "evaluating ingestion gate", err)
	}
	if e.Metrics != nil {
		e.Metrics.RecordIngestionDecision(string(decision.Kind))
	}

	switch decision.Kind {
	case ingestion.DecisionSkip:
		return RememberResult{Decision: decision, Memory: decision.MatchedMemory}, nil

	case ingestion.DecisionCreate:
		m, err := e.createMemory(ctx, scope, content, embedding, decision)
		return RememberResult{Decision: decision, Memory: m}, err

	case ingestion.DecisionUpdate:
		m, err := e.updateMemory(ctx, scope, embedding, decision)
		return RememberResult{Decision: decision, Memory: m}, err

	case ingestion.DecisionSupersede:
		m, err := e.supersedeMemory(ctx, scope, content, embedding, decision)
		return RememberResult{Decision: decision, Memory: m}, err

	default:
		return RememberResult{}, rookerr.New(rookerr.KindInternal, "unknown ingestion decision kind")
	}
}

func (e *Engine) nearestNeighbors(ctx context.Context, scope types.Scope, embedding []float32) ([]ingestion.Candidate, error) {
	hits, err := e.Vectors.Search(ctx, scope, embedding, 5, nil)
	if err != nil {
		return nil, rookerr.Wrap(rookerr.KindStoreError, "searching nearest neighbors", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.MemoryID)
	}
	memories, err := e.Memories.GetMemories(ctx, scope, ids)
	if err != nil {
		return nil, rookerr.Wrap(rookerr.KindStoreError, "resolving neighbor memories", err)
	}
	candidates := make([]ingestion.Candidate, 0, len(hits))
	for _, h := range hits {
		if m, ok := memories[h.MemoryID]; ok {
			candidates = append(candidates, ingestion.Candidate{Memory: e.decryptMemory(m), Similarity: h.Score})
		}
	}
	return candidates, nil
}

func (e *Engine) createMemory(ctx context.Context, scope types.Scope, content string, embedding []float32, decision ingestion.Decision) (*types.Memory, error) {
	at := time.Now()
	m := e.Gate.SeedMemory(scope, content, embedding, decision, at)
	m.ID = uuid.New().String()

	stored := content
	encrypted, err := e.encryptContent(content)
	if err != nil {
		return nil, rookerr.Wrap(rookerr.KindInternal, "encrypting memory content", err)
	}
	m.Content = encrypted

	if err := e.Memories.Create(ctx, m); err != nil {
		return nil, rookerr.Wrap(rookerr.KindStoreError, "persisting new memory", err)
	}
	if err := e.Vectors.Upsert(ctx, scope, m.ID, embedding, map[string]any{"memory_id": m.ID}); err != nil {
		e.logger().WithError(err).WithField("memory_id", m.ID).Warn("vector upsert failed")
	}
	e.recordFact(ctx, m.ID, m.Version, stored, types.ChangeKindCreate, "")

	m.Content = stored
	e.attachToGraph(ctx, m)
	e.emit(events.Event{Kind: events.KindCreated, MemoryID: m.ID, Timestamp: at,
		Created: &events.CreatedPayload{Content: stored, Metadata: m.Metadata}})
	return m, nil
}

func (e *Engine) updateMemory(ctx context.Context, scope types.Scope, embedding []float32, decision ingestion.Decision) (*types.Memory, error) {
	existing := decision.MatchedMemory
	at := time.Now()
	old := e.decryptContent(existing.Content)

	encrypted, err := e.encryptContent(decision.MergedContent)
	if err != nil {
		return nil, rookerr.Wrap(rookerr.KindInternal, "encrypting merged content", err)
	}

	existing.Content = encrypted
	existing.Version++
	existing.UpdatedAt = at
	existing.Embedding = embedding

	if err := e.Memories.Update(ctx, existing); err != nil {
		return nil, rookerr.Wrap(rookerr.KindStoreError, "persisting updated memory", err)
	}
	if err := e.Vectors.Upsert(ctx, scope, existing.ID, embedding, map[string]any{"memory_id": existing.ID}); err != nil {
		e.logger().WithError(err).WithField("memory_id", existing.ID).Warn("vector upsert failed")
	}
	e.recordFact(ctx, existing.ID, existing.Version, decision.MergedContent, types.ChangeKindUpdate, "")

	existing.Content = decision.MergedContent
	e.attachToGraph(ctx, existing)
	e.emit(events.Event{Kind: events.KindUpdated, MemoryID: existing.ID, Timestamp: at,
		Updated: &events.UpdatedPayload{OldContent: old, NewContent: decision.MergedContent, UpdateKind: events.UpdateContent, Version: existing.Version}})
	return existing, nil
}

func (e *Engine) supersedeMemory(ctx context.Context, scope types.Scope, content string, embedding []float32, decision ingestion.Decision) (*types.Memory, error) {
	at := time.Now()
	old := decision.MatchedMemory

	newMemory := e.Gate.SeedMemory(scope, content, embedding, decision, at)
	newMemory.ID = uuid.New().String()
	newMemory.Version = old.Version + 1

	stored := content
	encrypted, err := e.encryptContent(content)
	if err != nil {
		return nil, rookerr.Wrap(rookerr.KindInternal, "encrypting superseding content", err)
	}
	newMemory.Content = encrypted

	if err := e.Memories.Create(ctx, newMemory); err != nil {
		return nil, rookerr.Wrap(rookerr.KindStoreError, "persisting superseding memory", err)
	}
	if err := e.Memories.Supersede(ctx, scope, old.ID, newMemory.ID, at); err != nil {
		return nil, rookerr.Wrap(rookerr.KindStoreError, "marking memory superseded", err)
	}
	if err := e.Vectors.Upsert(ctx, scope, newMemory.ID, embedding, map[string]any{"memory_id": newMemory.ID}); err != nil {
		e.logger().WithError(err).WithField("memory_id", newMemory.ID).Warn("vector upsert failed")
	}
	e.recordFact(ctx, newMemory.ID, newMemory.Version, stored, types.ChangeKindSupersede,
		"supersedes "+old.ID)

	newMemory.Content = stored
	e.attachToGraph(ctx, newMemory)
	e.emit(events.Event{Kind: events.KindUpdated, MemoryID: old.ID, Timestamp: at,
		Updated: &events.UpdatedPayload{OldContent: e.decryptContent(old.Content), NewContent: stored, UpdateKind: events.UpdateSuperseded, Version: newMemory.Version}})
	return newMemory, nil
}

// Recall runs the hybrid retrieval pipeline (spec.md component I) and
// decrypts content on the way out when a ContentCipher is configured.
func (e *Engine) Recall(ctx context.Context, query retrieval.Query) ([]retrieval.Hit, error) {
	started := time.Now()
	hits, err := e.Retrieval.Retrieve(ctx, query)
	if e.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.Metrics.RecordRetrieval(outcome, time.Since(started).Seconds(), len(hits))
	}
	if err != nil {
		return nil, rookerr.Wrap(rookerr.KindInternal, "running retrieval pipeline", err)
	}
	for _, h := range hits {
		e.decryptMemory(h.Memory)
	}

	if e.Checker != nil && query.Text != "" {
		if _, err := e.Checker.Check(ctx, query.Scope, query.Text, query.Scope.UserID); err != nil {
			e.logger().WithError(err).Warn("intention check failed")
		}
	}

	return hits, nil
}

// Forget soft-archives a memory: it stops surfacing in retrieval and
// consolidation but its history and graph edges are left intact, per
// spec.md's append-only history invariant.
func (e *Engine) Forget(ctx context.Context, scope types.Scope, memoryID, reason string) error {
	unlock := e.locks.lockScope(scope)
	defer unlock()

	m, err := e.Memories.Get(ctx, scope, memoryID)
	if err != nil {
		return err
	}
	at := time.Now()
	m.ArchivedAt = &at
	if err := e.Memories.Update(ctx, m); err != nil {
		return rookerr.Wrap(rookerr.KindStoreError, "archiving memory", err)
	}
	e.recordFact(ctx, memoryID, m.Version, e.decryptContent(m.Content), types.ChangeKindArchive, reason)
	e.emit(events.Event{Kind: events.KindDeleted, MemoryID: memoryID, Timestamp: at,
		Deleted: &events.DeletedPayload{SoftDelete: true, Reason: reason}})
	return nil
}

func (e *Engine) traceStore(ctx context.Context, operation string, scope types.Scope) telemetry.EndFunc {
	if e.Tracer == nil {
		return func(error) {}
	}
	_, end := e.Tracer.StartStoreCall(ctx, operation, scope.Key())
	return end
}

// History_ returns a memory's append-only change log, oldest first.
func (e *Engine) History_(ctx context.Context, memoryID string) ([]*types.VersionRecord, error) {
	if e.History == nil {
		return nil, rookerr.New(rookerr.KindNotConfigured, "no history store configured")
	}
	return e.History.List(ctx, memoryID)
}

// Contradiction exposes the configured contradiction detector so a
// caller can check two pieces of content without going through Remember
// (e.g. to preview a conflict before committing it).
func (e *Engine) Contradiction() *contradiction.Detector {
	if e.Gate == nil {
		return nil
	}
	return e.Gate.Detector
}
