// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package intentions

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BangRocket/rook/internal/types"
)

// CheckerConfig tunes the tiered evaluation cadence.
type CheckerConfig struct {
	// SemanticCheckInterval evaluates topic triggers every Nth message
	// rather than every message, since embedding calls are expensive.
	SemanticCheckInterval uint32
	TopicSimilarityFloor  float64
}

// DefaultCheckerConfig checks topics every 10th message with the
// reference implementation's 0.75 similarity floor as a fallback for
// intentions that don't set their own threshold.
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{SemanticCheckInterval: 10, TopicSimilarityFloor: 0.75}
}

// IntentionStore is the slice of persistence the checker needs: loading
// active intentions by trigger kind and recording that one fired.
type IntentionStore interface {
	ListByTriggerKind(ctx context.Context, scope types.Scope, kind string) ([]*types.Intention, error)
	RecordFired(ctx context.Context, scope types.Scope, fired types.FiredIntention) error
}

// Checker evaluates messages against a scope's active intentions using
// the two-tier strategy the reference engine uses: a bloom-filter
// pre-screen backing every keyword check, and interval-gated semantic
// similarity for topic triggers.
type Checker struct {
	Store    IntentionStore
	Embedder types.Embedder
	Config   CheckerConfig

	mu             sync.RWMutex
	bloom          *KeywordBloomFilter
	keywordCache   []*types.Intention
	topicCache     []topicCacheEntry
	messageCounter uint32
}

type topicCacheEntry struct {
	intention *types.Intention
	embedding []float32
}

// New builds a Checker with the default config.
func New(store IntentionStore, embedder types.Embedder) *Checker {
	return &Checker{
		Store:    store,
		Embedder: embedder,
		Config:   DefaultCheckerConfig(),
		bloom:    NewKeywordBloomFilter(),
	}
}

// Refresh reloads keyword and topic intentions from the store for scope
// and rebuilds the bloom filter and topic embedding cache. Call this
// whenever intentions are created, updated, or deleted for scope.
func (c *Checker) Refresh(ctx context.Context, scope types.Scope) error {
	keywordIntentions, err := c.Store.ListByTriggerKind(ctx, scope, "keyword_mention")
	if err != nil {
		return fmt.Errorf("loading keyword intentions: %w", err)
	}

	bloom := NewKeywordBloomFilter()
	for _, intention := range keywordIntentions {
		if kw, ok := intention.Trigger.(types.KeywordMention); ok {
			bloom.AddMany(kw.Keywords)
		}
	}

	topicIntentions, err := c.Store.ListByTriggerKind(ctx, scope, "topic_discussed")
	if err != nil {
		return fmt.Errorf("loading topic intentions: %w", err)
	}

	topicCache := make([]topicCacheEntry, 0, len(topicIntentions))
	for _, intention := range topicIntentions {
		topic, ok := intention.Trigger.(types.TopicDiscussed)
		if !ok {
			continue
		}
		embedding := topic.TopicEmbedding
		if embedding == nil {
			if c.Embedder == nil {
				continue
			}
			var err error
			embedding, err = c.Embedder.Embed(ctx, topic.Topic, types.EmbedForSearch)
			if err != nil {
				continue
			}
		}
		topicCache = append(topicCache, topicCacheEntry{intention: intention, embedding: embedding})
	}

	c.mu.Lock()
	c.bloom = bloom
	c.keywordCache = keywordIntentions
	c.topicCache = topicCache
	c.mu.Unlock()
	return nil
}

// Check evaluates message against the cached intentions for a user (an
// empty userID matches every intention; otherwise only UserMentioned
// intentions naming a different user are skipped), recording and
// returning every intention that fired.
func (c *Checker) Check(ctx context.Context, scope types.Scope, message, userID string) ([]types.FiredIntention, error) {
	var fired []types.FiredIntention

	keywordFires, err := c.checkKeywords(message, userID)
	if err != nil {
		return nil, err
	}
	fired = append(fired, keywordFires...)

	count := atomic.AddUint32(&c.messageCounter, 1)
	interval := c.Config.SemanticCheckInterval
	if interval == 0 {
		interval = 1
	}
	if count%interval == 0 {
		topicFires, err := c.checkTopics(ctx, message, userID)
		if err != nil {
			return nil, err
		}
		fired = append(fired, topicFires...)
	}

	for _, f := range fired {
		if err := c.Store.RecordFired(ctx, scope, f); err != nil {
			return fired, fmt.Errorf("recording fired intention: %w", err)
		}
	}
	return fired, nil
}

func (c *Checker) checkKeywords(message, userID string) ([]types.FiredIntention, error) {
	c.mu.RLock()
	bloom := c.bloom
	intentions := c.keywordCache
	c.mu.RUnlock()

	potential := bloom.ScanMessage(message)
	if len(potential) == 0 {
		return nil, nil
	}

	now := time.Now()
	lower := strings.ToLower(message)
	var fired []types.FiredIntention

	for _, intention := range intentions {
		if !matchesUser(intention, userID) || !intention.CanFire(now) {
			continue
		}
		kw, ok := intention.Trigger.(types.KeywordMention)
		if !ok {
			continue
		}
		for _, keyword := range kw.Keywords {
			if !keywordMatches(lower, keyword, kw.ExactMatch) {
				continue
			}
			fired = append(fired, types.FiredIntention{
				IntentionID: intention.ID,
				FiredAt:     now,
				Reason: types.TriggerReason{
					Kind:           "keyword",
					MatchedKeyword: keyword,
					Context:        extractContext(message, keyword),
				},
				Result: types.ActionResult{Success: true},
			})
			break
		}
	}
	return fired, nil
}

func (c *Checker) checkTopics(ctx context.Context, message, userID string) ([]types.FiredIntention, error) {
	if c.Embedder == nil {
		return nil, nil
	}

	c.mu.RLock()
	topics := c.topicCache
	c.mu.RUnlock()
	if len(topics) == 0 {
		return nil, nil
	}

	messageEmbedding, err := c.Embedder.Embed(ctx, message, types.EmbedForSearch)
	if err != nil {
		return nil, fmt.Errorf("embedding message for topic check: %w", err)
	}

	now := time.Now()
	var fired []types.FiredIntention
	for _, entry := range topics {
		if !matchesUser(entry.intention, userID) || !entry.intention.CanFire(now) {
			continue
		}
		topic, ok := entry.intention.Trigger.(types.TopicDiscussed)
		if !ok {
			continue
		}
		threshold := topic.Threshold
		if threshold <= 0 {
			threshold = c.Config.TopicSimilarityFloor
		}
		similarity := cosineSimilarity(messageEmbedding, entry.embedding)
		if similarity < threshold {
			continue
		}
		fired = append(fired, types.FiredIntention{
			IntentionID: entry.intention.ID,
			FiredAt:     now,
			Reason: types.TriggerReason{
				Kind:       "topic",
				Topic:      topic.Topic,
				Similarity: similarity,
			},
			Result: types.ActionResult{Success: true},
		})
	}
	return fired, nil
}

func matchesUser(intention *types.Intention, userID string) bool {
	if userID == "" {
		return true
	}
	um, ok := intention.Trigger.(types.UserMentioned)
	if !ok {
		return true
	}
	return um.UserID == userID
}

func keywordMatches(lowerMessage, keyword string, exact bool) bool {
	normalized := strings.ToLower(keyword)
	if !exact {
		return strings.Contains(lowerMessage, normalized)
	}
	for _, word := range strings.Fields(lowerMessage) {
		if strings.Trim(word, ".,!?;:\"'") == normalized {
			return true
		}
	}
	return false
}

func extractContext(message, keyword string) string {
	lower := strings.ToLower(message)
	pos := strings.Index(lower, strings.ToLower(keyword))
	if pos < 0 {
		if len(message) > 60 {
			return message[:60]
		}
		return message
	}
	start := pos - 30
	if start < 0 {
		start = 0
	}
	end := pos + len(keyword) + 30
	if end > len(message) {
		end = len(message)
	}
	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(message[start:end])
	if end < len(message) {
		b.WriteString("...")
	}
	return b.String()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
