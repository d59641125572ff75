// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package metric is the measurement record: the stack-local Snapshot that
// begin/end bracket a single iteration around, and the Record a scenario
// assembles from it for emission.
package metric

import (
	"github.com/perfprobe/linuxbench/internal/affinity"
	"github.com/perfprobe/linuxbench/internal/clock"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/internal/procstat"
)

// Snapshot is one iteration's measurement record, populated by Begin and
// finalized by End. It is stack-local: construct, Begin, run the workload,
// End, emit, and discard — never reused across iterations.
type Snapshot struct {
	TimestampNS uint64
	RuntimeNS   uint64

	VoluntaryCtxtSwitches    uint64
	NonvoluntaryCtxtSwitches uint64
	MinorPageFaults          uint64
	MajorPageFaults          uint64

	StartCPU int
	EndCPU   int

	HWAvailable    bool
	Instructions   uint64
	Cycles         uint64
	L1DCacheMisses uint64
	LLCMisses      uint64
	Branches       uint64
	BranchMisses   uint64

	startTime uint64
	startCtr  procstat.Counters
}

// IPC returns instructions/cycles, 0 when cycles is 0 or counters are
// unavailable.
func (s *Snapshot) IPC() float64 {
	if !s.HWAvailable {
		return 0
	}
	return perfevent.IPC(s.Instructions, s.Cycles)
}

// BranchMissRate returns branch_misses/branches, 0 when branches is 0 or
// counters are unavailable.
func (s *Snapshot) BranchMissRate() float64 {
	if !s.HWAvailable {
		return 0
	}
	return perfevent.BranchMissRate(s.BranchMisses, s.Branches)
}

// Bracket pairs Begin and End around one iteration's measured region. One
// Bracket is reused for every iteration of a scenario; the per-iteration
// state lives in the Snapshot passed to Begin and End. It is not safe for
// concurrent use.
type Bracket struct {
	procReader *procstat.Reader
	hw         *perfevent.Group
}

// NewBracket builds a Bracket. hw may be nil to disable hardware-counter
// collection entirely (e.g. scenarios that never request it).
func NewBracket(procReader *procstat.Reader, hw *perfevent.Group) *Bracket {
	return &Bracket{procReader: procReader, hw: hw}
}

// Begin captures the start-of-iteration timestamp, kernel counters, and CPU
// index into snap, and arms the hardware-counter group if present. Only
// the clock read and the two bracketing pseudo-file reads may occur
// between Begin and End — no allocation, no other I/O.
func (b *Bracket) Begin(snap *Snapshot) error {
	ts, err := clock.Now()
	if err != nil {
		return err
	}
	snap.startTime = ts
	snap.TimestampNS = ts
	snap.startCtr = b.procReader.Read()
	snap.StartCPU = affinity.CurrentCPU()

	if b.hw != nil && b.hw.Available() {
		snap.HWAvailable = true
		b.hw.Start()
	}
	return nil
}

// End captures the end-of-iteration timestamp and counters, replaces every
// counter slot with its (end - start) delta, and reads the hardware-counter
// group if armed.
func (b *Bracket) End(snap *Snapshot) error {
	// The clock is read first so runtime_ns excludes the counter-group
	// ioctls and pseudo-file reads; the counters keep ticking through the
	// single clock read, which costs them far less than the reverse order
	// would cost the runtime.
	end, err := clock.Now()
	if err != nil {
		return err
	}
	snap.RuntimeNS = end - snap.startTime

	if snap.HWAvailable {
		b.hw.Stop()
		snap.Instructions = b.hw.Delta(perfevent.Instructions)
		snap.Cycles = b.hw.Delta(perfevent.Cycles)
		snap.L1DCacheMisses = b.hw.Delta(perfevent.L1DCacheMisses)
		snap.LLCMisses = b.hw.Delta(perfevent.LLCMisses)
		snap.Branches = b.hw.Delta(perfevent.Branches)
		snap.BranchMisses = b.hw.Delta(perfevent.BranchMisses)
	}

	snap.EndCPU = affinity.CurrentCPU()

	endCtr := b.procReader.Read()
	snap.VoluntaryCtxtSwitches = subDelta(endCtr.VoluntaryCtxtSwitches, snap.startCtr.VoluntaryCtxtSwitches)
	snap.NonvoluntaryCtxtSwitches = subDelta(endCtr.NonvoluntaryCtxtSwitches, snap.startCtr.NonvoluntaryCtxtSwitches)
	snap.MinorPageFaults = subDelta(endCtr.MinorFaults, snap.startCtr.MinorFaults)
	snap.MajorPageFaults = subDelta(endCtr.MajorFaults, snap.startCtr.MajorFaults)
	return nil
}

// subDelta computes end-start, never returning a negative delta even if the
// kernel counter wrapped or was reset underneath us — a zero "could not
// compute" floor instead of an invariant-violating negative.
func subDelta(end, start uint64) uint64 {
	if end < start {
		return 0
	}
	return end - start
}
