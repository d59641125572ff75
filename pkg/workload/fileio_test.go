// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload_test

import (
	"os"
	"testing"

	"github.com/perfprobe/linuxbench/pkg/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestFile_AndSequentialRead(t *testing.T) {
	dir := t.TempDir()
	path, err := workload.NewTestFile(dir, 4096)
	require.NoError(t, err)
	defer os.Remove(path)

	n, err := workload.FileSequentialRead(path, 512)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), n)
}

func TestFileSequentialWrite(t *testing.T) {
	dir := t.TempDir()
	path, err := workload.NewTestFile(dir, 1024)
	require.NoError(t, err)
	defer os.Remove(path)

	n, err := workload.FileSequentialWrite(path, 2048, 256)
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), n)
}

func TestFileRandomSeekRead(t *testing.T) {
	dir := t.TempDir()
	path, err := workload.NewTestFile(dir, 4096)
	require.NoError(t, err)
	defer os.Remove(path)

	n, err := workload.FileRandomSeekRead(path, 4096, 128, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1280), n)
}

func TestFileMmapSequentialRead(t *testing.T) {
	dir := t.TempDir()
	path, err := workload.NewTestFile(dir, 4096)
	require.NoError(t, err)
	defer os.Remove(path)

	sum, err := workload.FileMmapSequentialRead(path)
	require.NoError(t, err)
	assert.NotZero(t, sum)
}

func TestFileMmapRandomAccess(t *testing.T) {
	dir := t.TempDir()
	path, err := workload.NewTestFile(dir, 4096)
	require.NoError(t, err)
	defer os.Remove(path)

	sum, err := workload.FileMmapRandomAccess(path, 50, 9)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sum, uint64(0))
}

func TestFileDirectRead_DegradesGracefullyOnUnsupportedFS(t *testing.T) {
	dir := t.TempDir()
	path, err := workload.NewTestFile(dir, 4096)
	require.NoError(t, err)
	defer os.Remove(path)

	// O_DIRECT frequently fails on tmpfs/overlayfs test environments; both
	// outcomes are acceptable here, this just exercises the call.
	_, _ = workload.FileDirectRead(path, 512)
}
