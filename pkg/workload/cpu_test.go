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
)

func TestCPUSpin_Deterministic(t *testing.T) {
	a := workload.CPUSpin(1000)
	b := workload.CPUSpin(1000)
	assert.Equal(t, a, b)
}

func TestCPUSpin_ZeroIterations(t *testing.T) {
	assert.Equal(t, uint64(1), workload.CPUSpin(0))
}

func TestCPUSpinPhased_FoldsAcrossPhases(t *testing.T) {
	v := workload.CPUSpinPhased(100, 4)
	assert.NotZero(t, v)
}
