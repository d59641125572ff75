// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenarios

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("mixed", func() scenario.Scenario { return newMixed(logr.Discard()) })
}

const (
	mixedWorkingSet = 16 << 20
	mixedIterations = 32_000_000
	mixedPhases     = 4
	mixedSeed       = 77
)

// mixed interleaves random memory accesses with a configurable number of
// compute ops per access, sweeping the compute:memory ratio, plus the
// phased (growing working set) variant at a fixed ratio of 16 and the
// bursty (alternating windows) variant. MixedBursty takes no ratio: it runs
// 32 compute ops per access in even 1000-iteration windows and one in odd
// windows, so the compute_ratio of 16 recorded for bursty is not applied to
// its kernel.
type mixed struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type mixedCondition struct {
	pattern      string
	computeRatio int
	buf          []byte
	indices      []int
}

func newMixed(logger logr.Logger) *mixed {
	b, hw := newBracket(logger)
	return &mixed{bracket: b, hw: hw}
}

func (s *mixed) Name() string { return "mixed" }

func (s *mixed) Schema() []string {
	return schema([]string{"pattern", "compute_ratio"}, true, "ns_per_operation")
}

func (s *mixed) Preconditions(ctx context.Context) error { return nil }

func (s *mixed) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, ratio := range []int{0, 4, 16, 64} {
		conds = append(conds, scenario.Condition{
			Label: fmt.Sprintf("uniform_c%d", ratio),
			Params: []scenario.Param{
				{Name: "pattern", Value: "uniform"},
				{Name: "compute_ratio", Value: ratio},
			},
		})
	}
	for _, pattern := range []string{"phased", "bursty"} {
		conds = append(conds, scenario.Condition{
			Label: pattern,
			Params: []scenario.Param{
				{Name: "pattern", Value: pattern},
				{Name: "compute_ratio", Value: 16},
			},
		})
	}
	return conds
}

func (s *mixed) RunsPerCondition() int { return 10 }

func (s *mixed) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	mc := &mixedCondition{
		pattern:      cond.Params[0].Value.(string),
		computeRatio: cond.Params[1].Value.(int),
		buf:          make([]byte, mixedWorkingSet),
	}
	workload.Sink += workload.StreamSequentialWrite(mc.buf)
	mc.indices = workload.BuildRandomIndices(1<<20, mixedWorkingSet, mixedSeed)
	return mc, nil
}

func (s *mixed) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	mc := handle.(*mixedCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	var r uint64
	switch mc.pattern {
	case "phased":
		r = workload.MixedPhased(mc.buf, mc.indices, mc.computeRatio, mixedIterations/mixedPhases, mixedPhases)
	case "bursty":
		r = workload.MixedBursty(mc.buf, mc.indices, mixedIterations)
	default:
		r = workload.Mixed(mc.buf, mc.indices, mc.computeRatio, mixedIterations)
	}
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r
	rec.AppendSnapshot(&snap).AppendHWCounters(&snap).
		Append("ns_per_operation", emit.Rate6(nsPer(snap.RuntimeNS, mixedIterations)))
	return nil
}

func (s *mixed) ReleaseCondition(handle any) error { return nil }

func (s *mixed) Close() error {
	closeHW(s.hw)
	return nil
}
