// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload_test

import (
	"testing"

	"github.com/perfprobe/linuxbench/pkg/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChasePermutation_CoversAllSlotsOnce(t *testing.T) {
	chain := workload.BuildChasePermutation(16, 42)
	require.Len(t, chain, 16)

	visited := make(map[int]bool)
	idx := 0
	for i := 0; i < 16; i++ {
		idx = chain[idx]
		visited[idx] = true
	}
	assert.Len(t, visited, 16)
}

func TestBuildChasePermutation_Deterministic(t *testing.T) {
	a := workload.BuildChasePermutation(32, 7)
	b := workload.BuildChasePermutation(32, 7)
	assert.Equal(t, a, b)
}

func TestRandomChase_StaysInBounds(t *testing.T) {
	chain := workload.BuildChasePermutation(8, 1)
	result := workload.RandomChase(chain, 100)
	assert.GreaterOrEqual(t, result, uint64(0))
	assert.Less(t, result, uint64(8))
}
