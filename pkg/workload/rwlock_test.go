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

func TestRWLockScaling_AllWrites(t *testing.T) {
	writes, err := workload.RWLockScaling(4, 100, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), writes)
}

func TestRWLockScaling_AllReads(t *testing.T) {
	writes, err := workload.RWLockScaling(4, 100, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), writes)
}

func TestRWLockScaling_MixedWithinBounds(t *testing.T) {
	writes, err := workload.RWLockScaling(4, 100, 30, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, writes, uint64(400))
}
