// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package perfevent is the hardware-counter group: a fixed panel of six PMU
// events opened via the kernel's performance-events interface, with
// reset/enable/disable/read lifecycle moving through Uninitialized ->
// Opened -> Counting -> Idle -> Closed.
package perfevent

import (
	"fmt"
	"unsafe"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"
)

// Event identifies one slot in the fixed panel.
type Event int

const (
	Instructions Event = iota
	Cycles
	L1DCacheMisses
	LLCMisses
	Branches
	BranchMisses
	numEvents
)

func (e Event) String() string {
	switch e {
	case Instructions:
		return "instructions"
	case Cycles:
		return "cycles"
	case L1DCacheMisses:
		return "l1_dcache_misses"
	case LLCMisses:
		return "llc_misses"
	case Branches:
		return "branches"
	case BranchMisses:
		return "branch_misses"
	default:
		return "unknown"
	}
}

type eventConfig struct {
	typ    uint32
	config uint64
}

// configs mirrors the builtin hardware-event table: each event maps to a
// PERF_TYPE_HARDWARE config, except the L1 data-cache miss which is a
// PERF_TYPE_HW_CACHE composite of level, op, and result.
var configs = map[Event]eventConfig{
	Instructions:   {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
	Cycles:         {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
	Branches:       {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS},
	BranchMisses:   {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES},
	L1DCacheMisses: {unix.PERF_TYPE_HW_CACHE, cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
	LLCMisses:      {unix.PERF_TYPE_HW_CACHE, cacheConfig(unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
}

func cacheConfig(cache, op, result uint64) uint64 {
	return cache | (op << 8) | (result << 16)
}

// mandatory are the two events whose failure to open makes the whole group
// unavailable; the rest degrade independently.
var mandatory = []Event{Instructions, Cycles}

type counter struct {
	fd    int
	open  bool
	start uint64
	stop  uint64
	delta uint64
}

// Group is the six-event hardware-counter panel for the calling process.
type Group struct {
	logger    logr.Logger
	counters  [numEvents]counter
	available bool
	closed    bool

	// readBuf is reused across Stop calls so reading the counters never
	// allocates at an iteration boundary.
	readBuf [8]byte
}

// New constructs a Group but does not open any file descriptors; call Init.
func New(logger logr.Logger) *Group {
	return &Group{logger: logger.WithName("perfevent")}
}

// Available reports whether the mandatory events (instructions, cycles)
// opened successfully. When false, Start/Stop/Close are no-ops and all
// deltas read as zero.
func (g *Group) Available() bool { return g.available }

// Init opens each event attached to the calling process on any CPU,
// excluding hypervisor time and including kernel time, initially disabled.
// If either mandatory event fails to open, the whole group is marked
// unavailable and every subsequent operation becomes a no-op; other events
// failing degrades gracefully (their field reads as 0 at Stop).
func (g *Group) Init() error {
	for ev := Event(0); ev < numEvents; ev++ {
		cfg, ok := configs[ev]
		if !ok {
			continue
		}
		fd, err := openEvent(cfg)
		if err != nil {
			g.logger.V(1).Info("perf event open failed", "event", ev.String(), "error", err)
			continue
		}
		g.counters[ev] = counter{fd: fd, open: true}
	}

	for _, ev := range mandatory {
		if !g.counters[ev].open {
			g.logger.Info("mandatory perf event unavailable, disabling hardware counters", "event", ev.String())
			g.closeAll()
			g.available = false
			return nil
		}
	}
	g.available = true
	return nil
}

func openEvent(cfg eventConfig) (int, error) {
	attr := unix.PerfEventAttr{
		Type:   cfg.typ,
		Config: cfg.config,
		Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeHv,
	}
	attr.Size = uint32(unsafe.Sizeof(attr))
	fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, 0)
	if err != nil {
		return -1, fmt.Errorf("perf_event_open: %w", err)
	}
	return fd, nil
}

// Start resets each live counter to zero then enables it. Must be called
// immediately before the measured region begins.
func (g *Group) Start() {
	if !g.available {
		return
	}
	for i := range g.counters {
		c := &g.counters[i]
		if !c.open {
			continue
		}
		_ = unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_RESET, 0)
		_ = unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_ENABLE, 0)
	}
}

// Stop disables each live counter then reads its value as the delta for
// this iteration. Must be called immediately after the measured region
// ends.
func (g *Group) Stop() {
	if !g.available {
		return
	}
	for i := range g.counters {
		c := &g.counters[i]
		if !c.open {
			continue
		}
		_ = unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_DISABLE, 0)
		n, err := unix.Read(c.fd, g.readBuf[:])
		if err != nil || n < 8 {
			// A short or failed read is reported as zero for this
			// iteration only; the counter stays live for the next.
			c.delta = 0
			continue
		}
		c.delta = le64(g.readBuf[:])
	}
}

// Delta returns the most recently read value for the given event, or 0 if
// the event never opened or the group is unavailable.
func (g *Group) Delta(ev Event) uint64 {
	if ev < 0 || ev >= numEvents {
		return 0
	}
	return g.counters[ev].delta
}

// Close closes all open descriptors.
func (g *Group) Close() error {
	g.closeAll()
	return nil
}

func (g *Group) closeAll() {
	if g.closed {
		return
	}
	for i := range g.counters {
		if g.counters[i].open {
			unix.Close(g.counters[i].fd)
			g.counters[i].open = false
		}
	}
	g.closed = true
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// IPC computes instructions-per-cycle from the given deltas, defined as 0
// when cycles is 0.
func IPC(instructions, cycles uint64) float64 {
	if cycles == 0 {
		return 0
	}
	return float64(instructions) / float64(cycles)
}

// BranchMissRate computes the branch misprediction rate, defined as 0 when
// branches is 0.
func BranchMissRate(branchMisses, branches uint64) float64 {
	if branches == 0 {
		return 0
	}
	return float64(branchMisses) / float64(branches)
}
