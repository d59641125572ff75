// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package numa_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/numa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []int
	}{
		{"single", "5", []int{5}},
		{"range", "0-3", []int{0, 1, 2, 3}},
		{"list", "0,1,2,3", []int{0, 1, 2, 3}},
		{"mixed ranges", "0-3,8-11", []int{0, 1, 2, 3, 8, 9, 10, 11}},
		{"mixed with singleton", "0-3,5,8-9", []int{0, 1, 2, 3, 5, 8, 9}},
		{"trailing newline", "0-3,8-11\n", []int{0, 1, 2, 3, 8, 9, 10, 11}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := numa.ParseCPUList(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCPUList_Invalid(t *testing.T) {
	_, err := numa.ParseCPUList("0-x")
	assert.Error(t, err)
}

func TestController_NodeCount_SyntheticSingleNode(t *testing.T) {
	tmp := t.TempDir()
	sys := filepath.Join(tmp, "sys")
	require.NoError(t, os.MkdirAll(filepath.Join(sys, "devices", "system", "node"), 0o755))

	c := numa.New(logr.Discard(), sys)
	assert.Equal(t, 1, c.NodeCount())
	assert.False(t, c.Available())
}

func TestController_NodeCount_MultiNode(t *testing.T) {
	tmp := t.TempDir()
	sys := filepath.Join(tmp, "sys")
	nodeDir := filepath.Join(sys, "devices", "system", "node")
	require.NoError(t, os.MkdirAll(filepath.Join(nodeDir, "node0"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(nodeDir, "node1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nodeDir, "node0", "cpulist"), []byte("0-3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nodeDir, "node1", "cpulist"), []byte("4-7\n"), 0o644))

	c := numa.New(logr.Discard(), sys)
	assert.Equal(t, 2, c.NodeCount())
	assert.True(t, c.Available())

	cpus, err := c.NodeCPUs(0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, cpus)
}

func TestAllocOnNode_SingleNodeFallback(t *testing.T) {
	tmp := t.TempDir()
	sys := filepath.Join(tmp, "sys")
	require.NoError(t, os.MkdirAll(filepath.Join(sys, "devices", "system", "node"), 0o755))

	c := numa.New(logr.Discard(), sys)
	region, err := c.AllocOnNode(4096, 0)
	require.NoError(t, err)
	require.NotNil(t, region)
	assert.Len(t, region.Bytes(), 4096)
	assert.NoError(t, numa.Free(region))
}
