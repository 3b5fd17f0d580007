// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/BangRocket/rook/internal/fsrs"
	"github.com/BangRocket/rook/internal/graph/activation"
	"github.com/BangRocket/rook/internal/types"
)

// KeyMemoryLister fetches a scope's is_key memories, the tier stage 1
// always pulls first and exempts from dedup.
type KeyMemoryLister interface {
	ListKeyMemories(ctx context.Context, scope types.Scope, limit int) ([]*types.Memory, error)
}

// MemoryFetcher resolves memory IDs surfaced by vector/keyword/activation
// search back into full Memory records.
type MemoryFetcher interface {
	GetMemories(ctx context.Context, scope types.Scope, ids []string) (map[string]*types.Memory, error)
}

// AccessRecorder records a best-effort accessed_at/access_count bump for
// memories returned by a retrieval call (stage 10). Implementations may
// batch or drop this under load; it is explicitly not required to be
// synchronous with the retrieval call per spec.md §4.I stage 10.
type AccessRecorder interface {
	RecordAccess(ctx context.Context, scope types.Scope, ids []string, at time.Time)
}

// Pipeline is the hybrid retriever (spec.md component I).
type Pipeline struct {
	Vectors   types.VectorStore
	Keyword   types.FullTextIndex
	Graph     types.GraphStore
	Embedder  types.Embedder
	Scheduler *fsrs.Scheduler
	Reranker  types.Reranker
	KeyLister KeyMemoryLister
	Fetcher   MemoryFetcher
	Access    AccessRecorder
}

// New builds a Pipeline from its collaborators.
func New(vectors types.VectorStore, keyword types.FullTextIndex, graph types.GraphStore, embedder types.Embedder, scheduler *fsrs.Scheduler) *Pipeline {
	return &Pipeline{Vectors: vectors, Keyword: keyword, Graph: graph, Embedder: embedder, Scheduler: scheduler}
}

// Hit is one ranked memory returned by Retrieve.
type Hit struct {
	Memory *types.Memory
	Score  float64
}

// Query carries the retrieval request: free text plus the scope and
// mode-dependent tuning.
type Query struct {
	Scope      types.Scope
	Text       string
	Categories []string
	Config     Config
	Filter     types.Filter
}

// Retrieve runs the full pipeline and returns at most Config.Limit hits.
func (p *Pipeline) Retrieve(ctx context.Context, q Query) ([]Hit, error) {
	cfg := q.Config

	keyHits, err := p.keyTier(ctx, q.Scope, cfg)
	if err != nil {
		return nil, err
	}

	vectorRanked, vectorMemories, err := p.vectorSeed(ctx, q, cfg)
	if err != nil {
		return nil, err
	}

	keywordRanked := p.keywordSearch(ctx, q, cfg)

	activationRanked := p.spreadingActivation(ctx, q.Scope, vectorRanked, keywordRanked, cfg)

	fused := p.fuse(cfg, vectorRanked, keywordRanked, activationRanked)

	candidateIDs := make([]string, 0, len(fused))
	for _, r := range fused {
		candidateIDs = append(candidateIDs, r.ID)
	}
	memories, err := p.resolveMemories(ctx, q.Scope, candidateIDs, vectorMemories)
	if err != nil {
		return nil, err
	}

	weighted := p.applyCategoryBoost(q.Categories, fused, memories, cfg)
	weighted = p.applyFSRSWeighting(weighted, memories, cfg)

	if cfg.Mode.UsesRerank() && p.Reranker != nil {
		weighted = p.rerank(ctx, q.Text, weighted, memories, cfg)
	}

	results := toHits(weighted, memories)
	results = sortHits(results)

	if cfg.EnableDedup {
		results = p.dedup(results, cfg)
	}

	final := mergeKeyTier(keyHits, results, cfg.Limit)

	if p.Access != nil {
		ids := make([]string, 0, len(final))
		for _, h := range final {
			ids = append(ids, h.Memory.ID)
		}
		p.Access.RecordAccess(ctx, q.Scope, ids, time.Now())
	}

	return final, nil
}

func (p *Pipeline) keyTier(ctx context.Context, scope types.Scope, cfg Config) ([]Hit, error) {
	if p.KeyLister == nil {
		return nil, nil
	}
	keyMems, err := p.KeyLister.ListKeyMemories(ctx, scope, cfg.MaxKeyMemories)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(keyMems))
	for _, m := range keyMems {
		hits = append(hits, Hit{Memory: m, Score: 1.0})
	}
	return hits, nil
}

func (p *Pipeline) vectorSeed(ctx context.Context, q Query, cfg Config) ([]Ranked, map[string]*types.Memory, error) {
	if p.Embedder == nil || p.Vectors == nil || q.Text == "" {
		return nil, nil, nil
	}
	queryVector, err := p.Embedder.Embed(ctx, q.Text, types.EmbedForSearch)
	if err != nil {
		return nil, nil, err
	}
	results, err := p.Vectors.Search(ctx, q.Scope, queryVector, cfg.MaxSemantic, q.Filter)
	if err != nil {
		return nil, nil, err
	}

	ranked := make([]Ranked, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, Ranked{ID: r.MemoryID, Score: r.Score})
	}
	return ranked, nil, nil
}

func (p *Pipeline) keywordSearch(ctx context.Context, q Query, cfg Config) []Ranked {
	if !cfg.Mode.UsesKeyword() || p.Keyword == nil || q.Text == "" {
		return nil
	}
	results, err := p.Keyword.Search(ctx, q.Scope, q.Text, cfg.MaxSemantic)
	if err != nil {
		return nil
	}
	ranked := make([]Ranked, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, Ranked{ID: r.MemoryID, Score: r.Score})
	}
	return ranked
}

func (p *Pipeline) spreadingActivation(ctx context.Context, scope types.Scope, vector, keyword []Ranked, cfg Config) []Ranked {
	if !cfg.Mode.UsesActivation() || p.Graph == nil {
		return nil
	}

	seeds := make([]activation.Seed, 0, len(vector)+len(keyword))
	for _, r := range vector {
		seeds = append(seeds, activation.Seed{NodeID: r.ID, Activation: r.Score})
	}
	for _, r := range keyword {
		seeds = append(seeds, activation.Seed{NodeID: r.ID, Activation: r.Score})
	}
	if len(seeds) == 0 {
		return nil
	}

	spreader := &activation.Spreader{Store: p.Graph, Config: cfg.Spreading}
	activated, err := spreader.Spread(ctx, scope, seeds)
	if err != nil {
		return nil
	}

	ranked := make([]Ranked, 0, len(activated))
	for _, a := range activated {
		ranked = append(ranked, Ranked{ID: a.NodeID, Score: a.Activation})
	}
	return ranked
}

func (p *Pipeline) fuse(cfg Config, vector, keyword, activation []Ranked) []Ranked {
	switch cfg.Mode {
	case ModeQuick:
		return vector
	case ModeStandard:
		return cfg.RRF.Fuse(vector, keyword, activation)
	default: // Precise, Cognitive
		inputs := make(map[string]FusionInputs)
		apply := func(list []Ranked, set func(*FusionInputs, float64)) {
			for _, r := range list {
				in := inputs[r.ID]
				set(&in, r.Score)
				inputs[r.ID] = in
			}
		}
		apply(vector, func(in *FusionInputs, s float64) { in.Vector = s })
		apply(keyword, func(in *FusionInputs, s float64) { in.KeywordNormalized = s })
		apply(activation, func(in *FusionInputs, s float64) { in.Activation = s })
		return cfg.Linear.FuseBatch(inputs)
	}
}

func (p *Pipeline) resolveMemories(ctx context.Context, scope types.Scope, ids []string, known map[string]*types.Memory) (map[string]*types.Memory, error) {
	if known == nil {
		known = make(map[string]*types.Memory, len(ids))
	}
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 || p.Fetcher == nil {
		return known, nil
	}
	fetched, err := p.Fetcher.GetMemories(ctx, scope, missing)
	if err != nil {
		return nil, err
	}
	for id, m := range fetched {
		known[id] = m
	}
	return known, nil
}

func (p *Pipeline) applyCategoryBoost(categories []string, ranked []Ranked, memories map[string]*types.Memory, cfg Config) []Ranked {
	if len(categories) == 0 {
		return ranked
	}
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	boosted := make([]Ranked, len(ranked))
	copy(boosted, ranked)
	for i, r := range boosted {
		m, ok := memories[r.ID]
		if ok && wanted[m.Category] {
			boosted[i].Score = r.Score * cfg.CategoryBoost
		}
	}
	return boosted
}

func (p *Pipeline) applyFSRSWeighting(ranked []Ranked, memories map[string]*types.Memory, cfg Config) []Ranked {
	if !cfg.Mode.UsesFSRS() || p.Scheduler == nil {
		return ranked
	}
	strength := cfg.Mode.FSRSWeightStrength()
	weighted := make([]Ranked, len(ranked))
	for i, r := range ranked {
		m, ok := memories[r.ID]
		if !ok {
			weighted[i] = r
			continue
		}
		retrievability := m.Retrievability(time.Now(), p.Scheduler.Weights)
		factor := 1 + strength*(retrievability*(1+m.RetrievalStrength)-1)
		if factor < 0.1 {
			factor = 0.1
		}
		weighted[i] = Ranked{ID: r.ID, Score: r.Score * factor}
	}
	return weighted
}

func (p *Pipeline) rerank(ctx context.Context, query string, ranked []Ranked, memories map[string]*types.Memory, cfg Config) []Ranked {
	topN := cfg.Limit * 2
	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}
	candidates := ranked[:topN]

	texts := make([]string, len(candidates))
	for i, r := range candidates {
		if m, ok := memories[r.ID]; ok {
			texts[i] = m.Content
		}
	}

	order, err := p.Reranker.Rerank(ctx, query, texts, topN)
	if err != nil {
		return ranked
	}

	reordered := make([]Ranked, 0, len(order)+len(ranked)-topN)
	for rank, idx := range order {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		r := candidates[idx]
		r.Score = float64(len(order)-rank) / float64(len(order))
		reordered = append(reordered, r)
	}
	reordered = append(reordered, ranked[topN:]...)
	return reordered
}

func (p *Pipeline) dedup(hits []Hit, cfg Config) []Hit {
	deduper := &Deduplicator{Config: cfg.Dedup}
	candidates := make([]Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = Candidate{
			ID:        h.Memory.ID,
			Score:     h.Score,
			UpdatedAt: h.Memory.UpdatedAt.Unix(),
			Embedding: h.Memory.Embedding,
		}
	}
	kept := deduper.Deduplicate(candidates)

	keptIDs := make(map[string]bool, len(kept))
	for _, c := range kept {
		keptIDs[c.ID] = true
	}
	result := make([]Hit, 0, len(kept))
	for _, h := range hits {
		if keptIDs[h.Memory.ID] {
			result = append(result, h)
		}
	}
	return result
}

func toHits(ranked []Ranked, memories map[string]*types.Memory) []Hit {
	hits := make([]Hit, 0, len(ranked))
	for _, r := range ranked {
		m, ok := memories[r.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Memory: m, Score: r.Score})
	}
	return hits
}

// sortHits applies spec.md §4.I's tie-break: score desc, then
// retrievability desc (approximated here via RetrievalStrength since
// Retrievability needs a weights vector the sort has no access to),
// then updated_at desc, then id asc.
func sortHits(hits []Hit) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Memory.RetrievalStrength != b.Memory.RetrievalStrength {
			return a.Memory.RetrievalStrength > b.Memory.RetrievalStrength
		}
		if !a.Memory.UpdatedAt.Equal(b.Memory.UpdatedAt) {
			return a.Memory.UpdatedAt.After(b.Memory.UpdatedAt)
		}
		return a.Memory.ID < b.Memory.ID
	})
	return hits
}

func mergeKeyTier(keyHits, rest []Hit, limit int) []Hit {
	seen := make(map[string]bool, len(keyHits))
	merged := make([]Hit, 0, limit)
	for _, h := range keyHits {
		if len(merged) >= limit {
			break
		}
		seen[h.Memory.ID] = true
		merged = append(merged, h)
	}
	for _, h := range rest {
		if len(merged) >= limit {
			break
		}
		if seen[h.Memory.ID] {
			continue
		}
		merged = append(merged, h)
	}
	return merged
}
