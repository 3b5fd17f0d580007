// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package engine

import (
	"sync"

	"github.com/BangRocket/rook/internal/types"
)

// scopeLocks serializes writes per scope (spec.md §5: "writes serialized
// per scope, reads parallel"), lazily creating one mutex per scope with
// the same double-checked-locking shape the teacher's database.Manager
// uses to lazily open one database connection per repo path.
type scopeLocks struct {
	mu    sync.RWMutex
	locks map[string]*sync.Mutex
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *scopeLocks) get(scope types.Scope) *sync.Mutex {
	key := scope.Key()

	s.mu.RLock()
	if l, ok := s.locks[key]; ok {
		s.mu.RUnlock()
		return l
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// lockScope acquires the per-scope write lock and returns a function that
// releases it.
func (s *scopeLocks) lockScope(scope types.Scope) func() {
	l := s.get(scope)
	l.Lock()
	return l.Unlock
}
