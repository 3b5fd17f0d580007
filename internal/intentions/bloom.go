// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package intentions implements the intention engine (spec.md component
// K): a bloom-filter keyword prefilter, tiered trigger evaluation, and
// scheduling for time-based triggers.
package intentions

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomConfig sizes the keyword bloom filter.
type BloomConfig struct {
	FalsePositiveRate float64
	ExpectedItems     uint
}

// DefaultBloomConfig targets a 0.1% false-positive rate over 1000
// expected keywords, matching the reference implementation's default.
func DefaultBloomConfig() BloomConfig {
	return BloomConfig{FalsePositiveRate: 0.001, ExpectedItems: 1000}
}

// KeywordBloomFilter fast-prescreens messages for keyword mentions.
// False positives are acceptable (a substring check follows). A bloom
// filter has no false negatives, so adding more keywords than
// ExpectedItems raises only the false-positive rate; Add inserts into the
// existing filter without rebuilding it.
type KeywordBloomFilter struct {
	mu       sync.RWMutex
	filter   *bloom.BloomFilter
	keywords map[string]struct{}
	config   BloomConfig
}

// NewKeywordBloomFilter builds an empty filter with the default config.
func NewKeywordBloomFilter() *KeywordBloomFilter {
	return NewKeywordBloomFilterWithConfig(DefaultBloomConfig())
}

// NewKeywordBloomFilterWithConfig builds an empty filter with config.
func NewKeywordBloomFilterWithConfig(config BloomConfig) *KeywordBloomFilter {
	return &KeywordBloomFilter{
		filter:   bloom.NewWithEstimates(config.ExpectedItems, config.FalsePositiveRate),
		keywords: make(map[string]struct{}),
		config:   config,
	}
}

// Add inserts a keyword, case-insensitively.
func (f *KeywordBloomFilter) Add(keyword string) {
	normalized := strings.ToLower(keyword)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(normalized)
	f.keywords[normalized] = struct{}{}
}

// AddMany inserts every keyword in keywords.
func (f *KeywordBloomFilter) AddMany(keywords []string) {
	for _, k := range keywords {
		f.Add(k)
	}
}

// MightContain reports whether keyword may be present (never a false
// negative, may be a false positive).
func (f *KeywordBloomFilter) MightContain(keyword string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(strings.ToLower(keyword))
}

// ScanMessage returns every word or multi-word keyword in message that
// might be a match. Single words are checked via the bloom filter;
// multi-word keywords (which can't be tokenized the same way) are
// checked with a direct substring scan against the accumulated keyword
// set.
func (f *KeywordBloomFilter) ScanMessage(message string) []string {
	normalized := strings.ToLower(message)

	f.mu.RLock()
	defer f.mu.RUnlock()

	var potential []string
	for _, word := range strings.Fields(normalized) {
		cleaned := strings.TrimFunc(word, isNotAlphanumeric)
		if cleaned != "" && f.filter.TestString(cleaned) {
			potential = append(potential, cleaned)
		}
	}

	for keyword := range f.keywords {
		if strings.Contains(keyword, " ") && strings.Contains(normalized, keyword) {
			potential = append(potential, keyword)
		}
	}

	return potential
}

// VerifyMatches filters potentialMatches down to the ones that actually
// appear in message, the second phase after the bloom filter's
// probabilistic pre-screen.
func (f *KeywordBloomFilter) VerifyMatches(message string, potentialMatches []string) []string {
	normalized := strings.ToLower(message)
	var verified []string
	for _, keyword := range potentialMatches {
		if strings.Contains(normalized, keyword) {
			verified = append(verified, keyword)
		}
	}
	return verified
}

// KeywordCount returns the number of distinct keywords stored.
func (f *KeywordBloomFilter) KeywordCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.keywords)
}

// Clear empties the filter and its keyword set.
func (f *KeywordBloomFilter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = bloom.NewWithEstimates(f.config.ExpectedItems, f.config.FalsePositiveRate)
	f.keywords = make(map[string]struct{})
}

func isNotAlphanumeric(r rune) bool {
	return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
}
