// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package activation implements spreading activation over the knowledge
// graph (spec.md component H, §4.H): bounded BFS propagation from seed
// nodes with per-hop decay, edge-weight modulation, and a fan-out
// penalty for high-degree nodes.
package activation

import (
	"context"
	"sort"

	"github.com/BangRocket/rook/internal/types"
)

// Config are the spreading parameters. FanOutPenalty of 0 disables the
// fan-out penalty entirely, recovering the original unweighted formula.
type Config struct {
	DecayFactor     float64
	FiringThreshold float64
	MaxDepth        int
	FanOutPenalty   float64
}

// DefaultConfig matches the retrieval.activation_decay,
// retrieval.firing_threshold and retrieval.fan_out_penalty config
// defaults: decay 0.8, firing threshold 0.1, depth 3, no fan-out penalty.
func DefaultConfig() Config {
	return Config{
		DecayFactor:     0.8,
		FiringThreshold: 0.1,
		MaxDepth:        3,
		FanOutPenalty:   0,
	}
}

// Seed is a starting node with its initial activation level.
type Seed struct {
	NodeID     string
	Activation float64
}

// Activated is one node reached by propagation.
type Activated struct {
	NodeID     string
	Activation float64
	Depth      int
}

type queueItem struct {
	nodeID string
	depth  int
	act    float64
}

// Spreader runs spreading activation queries against a GraphStore.
type Spreader struct {
	Store  types.GraphStore
	Config Config
}

// New builds a Spreader with DefaultConfig.
func New(store types.GraphStore) *Spreader {
	return &Spreader{Store: store, Config: DefaultConfig()}
}

// Spread propagates activation from seeds outward, returning every node
// whose accumulated activation meets FiringThreshold, sorted by
// activation descending. Propagation follows outgoing edges only;
// callers seeding from an entity node that should also pull in memories
// referencing it should seed both directions explicitly.
func (s *Spreader) Spread(ctx context.Context, scope types.Scope, seeds []Seed) ([]Activated, error) {
	activation := make(map[string]float64)
	visitedDepth := make(map[string]int)
	queue := make([]queueItem, 0, len(seeds))

	for _, seed := range seeds {
		act := types.Clamp01(seed.Activation)
		activation[seed.NodeID] = act
		visitedDepth[seed.NodeID] = 0
		queue = append(queue, queueItem{nodeID: seed.NodeID, depth: 0, act: act})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= s.Config.MaxDepth {
			continue
		}

		edges, err := s.Store.IterateOutgoing(ctx, scope, current.nodeID)
		if err != nil {
			return nil, err
		}

		degree := float64(len(edges))
		fanOutFactor := 1.0 / (1.0 + s.Config.FanOutPenalty*degree)

		for _, edge := range edges {
			propagated := current.act * edge.Weight * s.Config.DecayFactor * fanOutFactor
			if propagated < s.Config.FiringThreshold {
				continue
			}

			neighbor := edge.TargetID
			existing := activation[neighbor]
			if propagated <= existing {
				continue
			}

			updated := existing + propagated
			if updated > 1.0 {
				updated = 1.0
			}
			activation[neighbor] = updated

			newDepth := current.depth + 1
			if prevDepth, seen := visitedDepth[neighbor]; !seen || newDepth < prevDepth {
				visitedDepth[neighbor] = newDepth
				queue = append(queue, queueItem{nodeID: neighbor, depth: newDepth, act: updated})
			}
		}
	}

	results := make([]Activated, 0, len(activation))
	for nodeID, act := range activation {
		if act < s.Config.FiringThreshold {
			continue
		}
		results = append(results, Activated{
			NodeID:     nodeID,
			Activation: act,
			Depth:      visitedDepth[nodeID],
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Activation > results[j].Activation
	})

	return results, nil
}
