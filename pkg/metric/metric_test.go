// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/perfprobe/linuxbench/internal/procstat"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureProcPath(t *testing.T, voluntary, nonvoluntary, minor, major uint64) string {
	t.Helper()
	tmp := t.TempDir()
	selfDir := filepath.Join(tmp, "self")
	require.NoError(t, os.MkdirAll(selfDir, 0o755))
	status := "Name:\tbench\nvoluntary_ctxt_switches:\t" + itoa(voluntary) + "\nnonvoluntary_ctxt_switches:\t" + itoa(nonvoluntary) + "\n"
	stat := "1 (bench) S 1 1 1 0 -1 0 " + itoa(minor) + " 0 " + itoa(major) + " 0 0 0 0 0 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(selfDir, "status"), []byte(status), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(selfDir, "stat"), []byte(stat), 0o644))
	return tmp
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func TestBracket_BeginEnd_NoHardwareCounters(t *testing.T) {
	procPath := fixtureProcPath(t, 10, 2, 50, 1)
	reader := procstat.New(procPath)
	b := metric.NewBracket(reader, nil)

	var snap metric.Snapshot
	require.NoError(t, b.Begin(&snap))
	require.NoError(t, b.End(&snap))

	assert.False(t, snap.HWAvailable)
	assert.GreaterOrEqual(t, snap.RuntimeNS, uint64(0))
	assert.Equal(t, uint64(0), snap.VoluntaryCtxtSwitches)
	assert.Equal(t, float64(0), snap.IPC())
	assert.Equal(t, float64(0), snap.BranchMissRate())
}

func TestRecord_AppendSnapshot_Columns(t *testing.T) {
	snap := &metric.Snapshot{
		TimestampNS: 100, RuntimeNS: 50,
		VoluntaryCtxtSwitches: 1, NonvoluntaryCtxtSwitches: 2,
		MinorPageFaults: 3, MajorPageFaults: 4,
		StartCPU: 0, EndCPU: 0,
	}
	r := metric.NewRecord(1, "baseline").AppendSnapshot(snap)

	header := r.Header()
	assert.Contains(t, header, "run_index")
	assert.Contains(t, header, "condition")
	assert.Contains(t, header, "runtime_ns")
	assert.NotContains(t, header, "ipc") // hardware counters absent

	values := r.Values()
	assert.Equal(t, len(header), len(values))
	assert.Equal(t, 1, values[0])
	assert.Equal(t, "baseline", values[1])
}

func TestRecord_AppendHWCounters(t *testing.T) {
	snap := &metric.Snapshot{
		HWAvailable:  true,
		Instructions: 2000,
		Cycles:       1000,
		Branches:     100,
		BranchMisses: 10,
	}
	r := metric.NewRecord(0, "pinned").AppendSnapshot(snap).AppendHWCounters(snap)
	header := r.Header()
	assert.Contains(t, header, "ipc")
	assert.Contains(t, header, "branch_miss_rate")
	assert.Equal(t, header[len(header)-len(metric.HWColumns):], metric.HWColumns)
}

func TestRecord_AppendHWCounters_UnavailableEmitsZeros(t *testing.T) {
	snap := &metric.Snapshot{}
	r := metric.NewRecord(0, "pinned").AppendSnapshot(snap).AppendHWCounters(snap)
	values := r.Values()
	// The column set is fixed by the schema even when the counter group
	// never opened; every hardware field reads 0.
	assert.Equal(t, uint64(0), values[len(values)-8])
}

func TestSubDelta_NeverNegative(t *testing.T) {
	procPath := fixtureProcPath(t, 0, 0, 0, 0)
	reader := procstat.New(procPath)
	b := metric.NewBracket(reader, nil)

	var snap metric.Snapshot
	require.NoError(t, b.Begin(&snap))
	// Simulate a counter that appears to have gone backwards between begin
	// and end by forcing startCtr via a second fixture read would require
	// unexported access; instead verify the public contract: deltas from
	// an unchanged fixture are exactly zero, never wrapped-negative.
	require.NoError(t, b.End(&snap))
	assert.Equal(t, uint64(0), snap.VoluntaryCtxtSwitches)
	assert.Equal(t, uint64(0), snap.MinorPageFaults)
}
