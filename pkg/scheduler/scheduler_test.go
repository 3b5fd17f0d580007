// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLifecycle struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (f *fakeLifecycle) Start(ctx context.Context) { f.started.Store(true) }
func (f *fakeLifecycle) Stop()                     { f.stopped.Store(true) }

func TestCoordinatorStartsAllComponents(t *testing.T) {
	a, b := &fakeLifecycle{}, &fakeLifecycle{}
	c := New(a, b)

	c.Start(context.Background())

	assert.True(t, a.started.Load())
	assert.True(t, b.started.Load())
}

func TestCoordinatorStopsAllComponents(t *testing.T) {
	a, b := &fakeLifecycle{}, &fakeLifecycle{}
	c := New(a, b)

	c.Start(context.Background())
	c.Stop()

	assert.True(t, a.stopped.Load())
	assert.True(t, b.stopped.Load())
}

func TestCoordinatorWithNoComponentsIsANoop(t *testing.T) {
	c := New()
	c.Start(context.Background())
	c.Stop()
}
