// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import "github.com/perfprobe/linuxbench/pkg/emit"

// Column is one named, ordered value in a Record. Value formatting (integer
// vs fixed-decimal) is decided by the emitter from the underlying Go type,
// not carried here.
type Column struct {
	Name  string
	Value any
}

// Record is a scenario-defined column tuple: run index, condition label,
// condition parameters, the metric snapshot's columns, optional hardware
// counters, and any derived columns — in the order a scenario's schema
// declares.
type Record struct {
	Columns []Column
}

// NewRecord starts a Record from run/condition identity columns; scenarios
// append the rest via Append before calling AppendSnapshot.
func NewRecord(runIndex int, conditionLabel string) *Record {
	r := &Record{}
	r.Append("run_index", runIndex)
	r.Append("condition", conditionLabel)
	return r
}

// Append adds one named column to the record, in call order.
func (r *Record) Append(name string, value any) *Record {
	r.Columns = append(r.Columns, Column{Name: name, Value: value})
	return r
}

// AppendSnapshot appends the fixed metric-snapshot columns. Scenarios whose
// schema carries hardware-counter columns follow it with AppendHWCounters.
func (r *Record) AppendSnapshot(snap *Snapshot) *Record {
	return r.Append("timestamp_ns", snap.TimestampNS).
		Append("runtime_ns", snap.RuntimeNS).
		Append("voluntary_ctxt_switches", snap.VoluntaryCtxtSwitches).
		Append("nonvoluntary_ctxt_switches", snap.NonvoluntaryCtxtSwitches).
		Append("minor_page_faults", snap.MinorPageFaults).
		Append("major_page_faults", snap.MajorPageFaults).
		Append("start_cpu", snap.StartCPU).
		Append("end_cpu", snap.EndCPU)
}

// HWColumns is the hardware-counter column set AppendHWCounters emits, in
// order, for scenarios composing their schema.
var HWColumns = []string{
	"instructions", "cycles", "l1_dcache_misses", "llc_misses",
	"branches", "branch_misses", "ipc", "branch_miss_rate",
}

// AppendHWCounters appends the hardware-counter columns and their derived
// IPC/branch-miss-rate. When the counter group was unavailable for this
// iteration the columns are emitted as zeros, never omitted — a scenario's
// column set is fixed by its schema regardless of runtime capability.
func (r *Record) AppendHWCounters(snap *Snapshot) *Record {
	return r.Append("instructions", snap.Instructions).
		Append("cycles", snap.Cycles).
		Append("l1_dcache_misses", snap.L1DCacheMisses).
		Append("llc_misses", snap.LLCMisses).
		Append("branches", snap.Branches).
		Append("branch_misses", snap.BranchMisses).
		Append("ipc", emit.Rate3(snap.IPC())).
		Append("branch_miss_rate", emit.Rate6(snap.BranchMissRate()))
}

// Header returns the column names in order, for the emission layer's schema
// line.
func (r *Record) Header() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Values returns the column values in order.
func (r *Record) Values() []any {
	values := make([]any, len(r.Columns))
	for i, c := range r.Columns {
		values[i] = c.Value
	}
	return values
}
