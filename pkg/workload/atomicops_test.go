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

func TestNonAtomicIncrement(t *testing.T) {
	assert.Equal(t, uint64(500), workload.NonAtomicIncrement(500))
}

func TestRelaxedAtomicAdd(t *testing.T) {
	assert.Equal(t, uint64(500), workload.RelaxedAtomicAdd(500))
}

func TestAtomicCAS(t *testing.T) {
	assert.Equal(t, uint64(500), workload.AtomicCAS(500))
}

func TestAtomicAddContended(t *testing.T) {
	v, err := workload.AtomicAddContended(8, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(8000), v)
}
