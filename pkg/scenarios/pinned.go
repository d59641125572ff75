// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenarios

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/affinity"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("pinned", func() scenario.Scenario { return newPinned(logr.Discard()) })
}

const pinnedSpinIterations = 1_000_000_000

// pinned runs a fixed CPU spin unpinned, pinned to CPU 0, and pinned to
// CPU 1. In the pinned groups start_cpu must equal end_cpu on every run and
// match the requested CPU; the unpinned group is free to migrate, and its
// runtime variance bounds the pinned groups' from above.
type pinned struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type pinnedHandle struct {
	locked bool
}

func newPinned(logger logr.Logger) *pinned {
	b, hw := newBracket(logger)
	return &pinned{bracket: b, hw: hw}
}

func (s *pinned) Name() string { return "pinned" }

func (s *pinned) Schema() []string {
	return schema([]string{"affinity"}, true)
}

func (s *pinned) Preconditions(ctx context.Context) error {
	n, err := affinity.OnlineCPUCount()
	if err != nil {
		return err
	}
	if n < 2 {
		return fmt.Errorf("only %d CPU online; cpu1 conditions will be skipped", n)
	}
	return nil
}

func (s *pinned) Conditions() []scenario.Condition {
	return []scenario.Condition{
		{Label: "unpinned", Params: []scenario.Param{{Name: "affinity", Value: "none"}}},
		{Label: "cpu0", Params: []scenario.Param{{Name: "affinity", Value: "0"}}},
		{Label: "cpu1", Params: []scenario.Param{{Name: "affinity", Value: "1"}}},
	}
}

func (s *pinned) RunsPerCondition() int { return 10 }

func (s *pinned) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	if cond.Label == "unpinned" {
		return &pinnedHandle{}, nil
	}
	cpu := 0
	if cond.Label == "cpu1" {
		cpu = 1
	}
	if n, err := affinity.OnlineCPUCount(); err != nil || cpu >= n {
		return nil, scenario.NewSkipCondition(cond.Label, fmt.Errorf("cpu %d not online", cpu))
	}
	// The driver loop stays on this goroutine for the whole condition, so
	// locking here keeps every measured iteration on the pinned OS thread.
	runtime.LockOSThread()
	if err := affinity.Pin(cpu); err != nil {
		runtime.UnlockOSThread()
		return nil, scenario.NewSkipCondition(cond.Label, err)
	}
	return &pinnedHandle{locked: true}, nil
}

func (s *pinned) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	r := workload.CPUSpin(pinnedSpinIterations)
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r
	rec.AppendSnapshot(&snap).AppendHWCounters(&snap)
	return nil
}

func (s *pinned) ReleaseCondition(handle any) error {
	h := handle.(*pinnedHandle)
	if h.locked {
		err := affinity.Reset()
		runtime.UnlockOSThread()
		return err
	}
	return nil
}

func (s *pinned) Close() error {
	closeHW(s.hw)
	return nil
}
