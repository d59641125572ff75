// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfevent_test

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/stretchr/testify/assert"
)

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "instructions", perfevent.Instructions.String())
	assert.Equal(t, "cycles", perfevent.Cycles.String())
	assert.Equal(t, "l1_dcache_misses", perfevent.L1DCacheMisses.String())
	assert.Equal(t, "llc_misses", perfevent.LLCMisses.String())
	assert.Equal(t, "branches", perfevent.Branches.String())
	assert.Equal(t, "branch_misses", perfevent.BranchMisses.String())
}

func TestGroup_Delta_UnopenedIsZero(t *testing.T) {
	g := perfevent.New(logr.Discard())
	assert.Equal(t, uint64(0), g.Delta(perfevent.Instructions))
	assert.False(t, g.Available())
}

func TestGroup_StartStop_WhenUnavailableIsNoop(t *testing.T) {
	g := perfevent.New(logr.Discard())
	// Init is deliberately not called, simulating an environment (e.g. a
	// container without CAP_PERFMON) where the mandatory events never open.
	g.Start()
	g.Stop()
	assert.Equal(t, uint64(0), g.Delta(perfevent.Cycles))
	assert.NoError(t, g.Close())
}

func TestIPC(t *testing.T) {
	assert.InDelta(t, 2.0, perfevent.IPC(2000, 1000), 0.0001)
	assert.Equal(t, float64(0), perfevent.IPC(100, 0))
}

func TestBranchMissRate(t *testing.T) {
	assert.InDelta(t, 0.1, perfevent.BranchMissRate(10, 100), 0.0001)
	assert.Equal(t, float64(0), perfevent.BranchMissRate(5, 0))
}

func TestDelta_OutOfRangeEvent(t *testing.T) {
	g := perfevent.New(logr.Discard())
	assert.Equal(t, uint64(0), g.Delta(perfevent.Event(999)))
	assert.Equal(t, uint64(0), g.Delta(perfevent.Event(-1)))
}
