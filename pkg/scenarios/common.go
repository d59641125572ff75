// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package scenarios holds the concrete end-to-end benchmarks, each
// self-registering against pkg/scenario's registry from its file's init().
package scenarios

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/internal/procstat"
	"github.com/perfprobe/linuxbench/pkg/metric"
)

// newBracket builds a metric.Bracket for a scenario, attempting to bring up
// the hardware-counter group. If hardware counters are unavailable
// (permission denied, unsupported platform), the bracket still works —
// every record just reads zero in the hardware-counter columns.
func newBracket(logger logr.Logger) (*metric.Bracket, *perfevent.Group) {
	reader := procstat.New("")
	hw := perfevent.New(logger)
	if err := hw.Init(); err != nil || !hw.Available() {
		_ = hw.Close()
		return metric.NewBracket(reader, nil), nil
	}
	return metric.NewBracket(reader, hw), hw
}

// closeHW releases a hardware-counter group if one was opened.
func closeHW(hw *perfevent.Group) {
	if hw != nil {
		_ = hw.Close()
	}
}

// snapshotColumns is the fixed metric-snapshot column block shared by every
// scenario schema, in Record.AppendSnapshot order.
var snapshotColumns = []string{
	"timestamp_ns", "runtime_ns",
	"voluntary_ctxt_switches", "nonvoluntary_ctxt_switches",
	"minor_page_faults", "major_page_faults",
	"start_cpu", "end_cpu",
}

// schema composes a scenario's column header: run/condition identity, the
// condition's parameter columns, the snapshot block, then optional
// hardware-counter and derived columns — the exact order Execute appends
// values in.
func schema(paramNames []string, hwCounters bool, derived ...string) []string {
	cols := []string{"run_index", "condition"}
	cols = append(cols, paramNames...)
	cols = append(cols, snapshotColumns...)
	if hwCounters {
		cols = append(cols, metric.HWColumns...)
	}
	return append(cols, derived...)
}

// humanSize formats a byte count as a power-of-two condition label
// ("8KiB", "4MiB"), matching how buffer-size conditions are named across
// the memory-hierarchy scenarios.
func humanSize(bytes int) string {
	switch {
	case bytes >= 1<<30 && bytes%(1<<30) == 0:
		return fmt.Sprintf("%dGiB", bytes>>30)
	case bytes >= 1<<20 && bytes%(1<<20) == 0:
		return fmt.Sprintf("%dMiB", bytes>>20)
	case bytes >= 1<<10 && bytes%(1<<10) == 0:
		return fmt.Sprintf("%dKiB", bytes>>10)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// nsPer divides an iteration's runtime across count operations, 0 when
// count is 0.
func nsPer(runtimeNS uint64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(runtimeNS) / float64(count)
}
