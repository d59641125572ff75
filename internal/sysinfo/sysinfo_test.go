// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package sysinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollect_FullFixture(t *testing.T) {
	proc := t.TempDir()
	sys := t.TempDir()

	writeFile(t, filepath.Join(proc, "cpuinfo"),
		"processor\t: 0\nvendor_id\t: GenuineIntel\nmodel name\t: Intel(R) Xeon(R) CPU @ 2.80GHz\ncpu MHz\t\t: 2800.000\n\n"+
			"processor\t: 1\nvendor_id\t: GenuineIntel\nmodel name\t: Intel(R) Xeon(R) CPU @ 2.80GHz\ncpu MHz\t\t: 2800.000\n\n")
	writeFile(t, filepath.Join(proc, "meminfo"),
		"MemTotal:       32768000 kB\nHugePages_Total:      64\nHugepagesize:       2048 kB\n")

	cpu0 := filepath.Join(sys, "devices", "system", "cpu", "cpu0")
	writeFile(t, filepath.Join(cpu0, "cpufreq", "scaling_governor"), "performance\n")
	writeFile(t, filepath.Join(cpu0, "cache", "index0", "level"), "1\n")
	writeFile(t, filepath.Join(cpu0, "cache", "index0", "type"), "Data\n")
	writeFile(t, filepath.Join(cpu0, "cache", "index0", "size"), "32K\n")
	writeFile(t, filepath.Join(cpu0, "cache", "index1", "level"), "2\n")
	writeFile(t, filepath.Join(cpu0, "cache", "index1", "type"), "Unified\n")
	writeFile(t, filepath.Join(cpu0, "cache", "index1", "size"), "1M\n")

	writeFile(t, filepath.Join(sys, "devices", "system", "node", "node0", "cpulist"), "0\n")
	writeFile(t, filepath.Join(sys, "devices", "system", "node", "node1", "cpulist"), "1\n")
	writeFile(t, filepath.Join(sys, "kernel", "mm", "transparent_hugepage", "enabled"),
		"always [madvise] never\n")

	info := New(proc, sys).Collect()

	assert.Equal(t, "GenuineIntel", info.VendorID)
	assert.Equal(t, "Intel(R) Xeon(R) CPU @ 2.80GHz", info.ModelName)
	assert.Equal(t, 2, info.LogicalCPUs)
	assert.Equal(t, 2800.0, info.CPUMHz)
	assert.Equal(t, "performance", info.Governor)

	require.Len(t, info.Caches, 2)
	assert.Equal(t, 1, info.Caches[0].Level)
	assert.Equal(t, "Data", info.Caches[0].Type)
	assert.Equal(t, 32<<10, info.Caches[0].SizeBytes)
	assert.Equal(t, 1<<20, info.Caches[1].SizeBytes)

	assert.Equal(t, 2, info.NUMANodes)
	assert.Equal(t, 2048, info.HugePageSizeKB)
	assert.Equal(t, 64, info.HugePagesTotal)
	assert.Equal(t, "madvise", info.THPEnabled)
}

func TestCollect_MissingFilesLeaveZeroValues(t *testing.T) {
	info := New(t.TempDir(), t.TempDir()).Collect()

	assert.Empty(t, info.ModelName)
	assert.Zero(t, info.LogicalCPUs)
	assert.Empty(t, info.Caches)
	// NUMA defaults to a single node when the sysfs tree is absent.
	assert.Equal(t, 1, info.NUMANodes)
}

func TestParseCacheSize(t *testing.T) {
	assert.Equal(t, 32<<10, parseCacheSize("32K"))
	assert.Equal(t, 8<<20, parseCacheSize("8M"))
	assert.Equal(t, 512, parseCacheSize("512"))
	assert.Equal(t, 0, parseCacheSize("bogus"))
}
