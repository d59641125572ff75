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

func TestTLBPressure_TouchesEveryStride(t *testing.T) {
	buf := make([]byte, workload.PageSize4K*4)
	buf[0] = 1
	buf[workload.PageSize4K] = 1
	buf[workload.PageSize4K*2] = 1
	buf[workload.PageSize4K*3] = 1
	assert.Equal(t, uint64(4), workload.TLBPressure(buf, 1))
}

func TestTLBPressure_StrideSkipsPages(t *testing.T) {
	buf := make([]byte, workload.PageSize4K*4)
	buf[0] = 1
	buf[workload.PageSize4K] = 99 // skipped at stride 2
	buf[workload.PageSize4K*2] = 1
	assert.Equal(t, uint64(2), workload.TLBPressure(buf, 2))
}
