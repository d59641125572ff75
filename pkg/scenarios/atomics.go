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
	scenario.Register("atomics", func() scenario.Scenario { return newAtomics(logr.Discard()) })
}

const atomicIterations = 100_000_000

// atomics compares a plain unsynchronized increment, an uncontended atomic
// add, a compare-and-swap loop, and a contended multi-thread atomic add
// over one shared counter. The single-threaded variants bound the cost of
// the atomic instruction itself; the contended variant adds cache-line
// ping-pong on top.
type atomics struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type atomicCondition struct {
	pattern string
	threads int
}

func newAtomics(logger logr.Logger) *atomics {
	b, hw := newBracket(logger)
	return &atomics{bracket: b, hw: hw}
}

func (s *atomics) Name() string { return "atomics" }

func (s *atomics) Schema() []string {
	return schema([]string{"pattern", "threads"}, false, "ns_per_operation")
}

func (s *atomics) Preconditions(ctx context.Context) error { return nil }

func (s *atomics) Conditions() []scenario.Condition {
	conds := []scenario.Condition{
		{Label: "non_atomic", Params: []scenario.Param{{Name: "pattern", Value: "non_atomic"}, {Name: "threads", Value: 1}}},
		{Label: "atomic_add", Params: []scenario.Param{{Name: "pattern", Value: "atomic_add"}, {Name: "threads", Value: 1}}},
		{Label: "atomic_cas", Params: []scenario.Param{{Name: "pattern", Value: "atomic_cas"}, {Name: "threads", Value: 1}}},
	}
	for _, threads := range []int{2, 4, 8} {
		conds = append(conds, scenario.Condition{
			Label: fmt.Sprintf("contended_t%d", threads),
			Params: []scenario.Param{
				{Name: "pattern", Value: "contended"},
				{Name: "threads", Value: threads},
			},
		})
	}
	return conds
}

func (s *atomics) RunsPerCondition() int { return 10 }

func (s *atomics) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	return &atomicCondition{
		pattern: cond.Params[0].Value.(string),
		threads: cond.Params[1].Value.(int),
	}, nil
}

func (s *atomics) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	ac := handle.(*atomicCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	var v uint64
	var err error
	switch ac.pattern {
	case "non_atomic":
		v = workload.NonAtomicIncrement(atomicIterations)
	case "atomic_add":
		v = workload.RelaxedAtomicAdd(atomicIterations)
	case "atomic_cas":
		v = workload.AtomicCAS(atomicIterations)
	case "contended":
		v, err = workload.AtomicAddContended(ac.threads, atomicIterations/uint64(ac.threads))
	}
	if endErr := s.bracket.End(&snap); endErr != nil {
		return scenario.NewFatal(endErr)
	}
	if err != nil {
		return err
	}
	workload.Sink += v
	rec.AppendSnapshot(&snap).
		Append("ns_per_operation", emit.Rate6(nsPer(snap.RuntimeNS, atomicIterations)))
	return nil
}

func (s *atomics) ReleaseCondition(handle any) error { return nil }

func (s *atomics) Close() error {
	closeHW(s.hw)
	return nil
}
