// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenarios

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("branchprediction", func() scenario.Scenario { return newBranchPrediction(logr.Discard()) })
}

const (
	branchInputSize = 16 << 20
	branchThreshold = 128
	branchSeed      = 42
)

// branchPrediction sums values above a threshold over sorted input (the
// predictor learns the pattern), random input (it cannot), and a branchless
// bit-mask rewrite (prediction is irrelevant). The hardware branch-miss
// columns are the scenario's whole point.
type branchPrediction struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type branchCondition struct {
	data       []int32
	branchless bool
}

func newBranchPrediction(logger logr.Logger) *branchPrediction {
	b, hw := newBracket(logger)
	return &branchPrediction{bracket: b, hw: hw}
}

func (s *branchPrediction) Name() string { return "branchprediction" }

func (s *branchPrediction) Schema() []string {
	return schema([]string{"pattern"}, true, "ns_per_element")
}

func (s *branchPrediction) Preconditions(ctx context.Context) error { return nil }

func (s *branchPrediction) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, pattern := range []string{"sorted_branch", "random_branch", "branchless"} {
		conds = append(conds, scenario.Condition{
			Label:  pattern,
			Params: []scenario.Param{{Name: "pattern", Value: pattern}},
		})
	}
	return conds
}

func (s *branchPrediction) RunsPerCondition() int { return 10 }

func (s *branchPrediction) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	pattern := cond.Params[0].Value.(string)
	return &branchCondition{
		data:       workload.BuildBranchInput(branchInputSize, pattern == "sorted_branch", branchSeed),
		branchless: pattern == "branchless",
	}, nil
}

func (s *branchPrediction) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	bc := handle.(*branchCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	var sum int64
	if bc.branchless {
		sum = workload.BranchSumBranchless(bc.data, branchThreshold)
	} else {
		sum = workload.BranchSumBranching(bc.data, branchThreshold)
	}
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += uint64(sum)
	rec.AppendSnapshot(&snap).AppendHWCounters(&snap).
		Append("ns_per_element", emit.Rate6(nsPer(snap.RuntimeNS, len(bc.data))))
	return nil
}

func (s *branchPrediction) ReleaseCondition(handle any) error { return nil }

func (s *branchPrediction) Close() error {
	closeHW(s.hw)
	return nil
}
