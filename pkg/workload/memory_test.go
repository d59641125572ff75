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

func TestStreamSequentialRead(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	assert.Equal(t, uint64(10), workload.StreamSequentialRead(buf))
}

func TestStreamSequentialWrite(t *testing.T) {
	buf := make([]byte, 5)
	workload.StreamSequentialWrite(buf)
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, buf)
}

func TestStreamCopy(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := make([]byte, 3)
	n := workload.StreamCopy(dst, src)
	assert.Equal(t, uint64(3), n)
	assert.Equal(t, src, dst)
}

func TestStreamStrideRead_SequentialWhenStrideOne(t *testing.T) {
	buf := make([]byte, workload.CacheLineSize*2)
	buf[0] = 7
	buf[workload.CacheLineSize] = 9
	got := workload.StreamStrideRead(buf, 1)
	assert.NotZero(t, got)
}

func TestStreamStrideRead_SkipsLines(t *testing.T) {
	buf := make([]byte, workload.CacheLineSize*4)
	buf[0] = 1
	buf[workload.CacheLineSize] = 100 // skipped at stride=2
	buf[workload.CacheLineSize*2] = 1
	got := workload.StreamStrideRead(buf, 2)
	assert.Equal(t, uint64(2), got)
}
