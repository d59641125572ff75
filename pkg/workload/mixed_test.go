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

func TestMixed_Deterministic(t *testing.T) {
	buf := make([]byte, 256)
	for i := range buf {
		buf[i] = byte(i)
	}
	indices := workload.BuildRandomIndices(50, len(buf), 3)

	a := workload.Mixed(buf, indices, 4, 200)
	b := workload.Mixed(buf, indices, 4, 200)
	assert.Equal(t, a, b)
}

func TestMixedPhased_GrowsWorkingSet(t *testing.T) {
	buf := make([]byte, 256)
	indices := workload.BuildRandomIndices(40, len(buf), 1)
	result := workload.MixedPhased(buf, indices, 2, 50, 4)
	assert.NotZero(t, result)
}

func TestMixedBursty_AlternatesWindows(t *testing.T) {
	buf := make([]byte, 256)
	indices := workload.BuildRandomIndices(40, len(buf), 1)
	result := workload.MixedBursty(buf, indices, 2500)
	assert.NotZero(t, result)
}
