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
	scenario.Register("falsesharing", func() scenario.Scenario { return newFalseSharing(logr.Discard()) })
}

const falseSharingIterations = 10_000_000

// falseSharing increments per-thread counters laid out packed (adjacent on
// one cache line) versus cache-line-padded, across thread counts {1,2,4,8}.
// At one thread the padded layout buys nothing; at two or more, packed must
// pay cross-core invalidation traffic the padded layout avoids.
type falseSharing struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type falseSharingCondition struct {
	threads int
	padded  bool
}

func newFalseSharing(logger logr.Logger) *falseSharing {
	b, hw := newBracket(logger)
	return &falseSharing{bracket: b, hw: hw}
}

func (s *falseSharing) Name() string { return "falsesharing" }

func (s *falseSharing) Schema() []string {
	return schema([]string{"threads", "pattern"}, false, "ns_per_operation")
}

func (s *falseSharing) Preconditions(ctx context.Context) error { return nil }

func (s *falseSharing) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, threads := range []int{1, 2, 4, 8} {
		for _, pattern := range []string{"packed", "padded"} {
			conds = append(conds, scenario.Condition{
				Label: fmt.Sprintf("%s_t%d", pattern, threads),
				Params: []scenario.Param{
					{Name: "threads", Value: threads},
					{Name: "pattern", Value: pattern},
				},
			})
		}
	}
	return conds
}

func (s *falseSharing) RunsPerCondition() int { return 10 }

func (s *falseSharing) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	return &falseSharingCondition{
		threads: cond.Params[0].Value.(int),
		padded:  cond.Params[1].Value.(string) == "padded",
	}, nil
}

func (s *falseSharing) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	fc := handle.(*falseSharingCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	var sum uint64
	var err error
	if fc.padded {
		sum, err = workload.FalseSharingPadded(fc.threads, falseSharingIterations)
	} else {
		sum, err = workload.FalseSharingPacked(fc.threads, falseSharingIterations)
	}
	if endErr := s.bracket.End(&snap); endErr != nil {
		return scenario.NewFatal(endErr)
	}
	if err != nil {
		return err
	}
	workload.Sink += sum
	totalOps := fc.threads * falseSharingIterations
	rec.AppendSnapshot(&snap).
		Append("ns_per_operation", emit.Rate6(nsPer(snap.RuntimeNS, totalOps)))
	return nil
}

func (s *falseSharing) ReleaseCondition(handle any) error { return nil }

func (s *falseSharing) Close() error {
	closeHW(s.hw)
	return nil
}
