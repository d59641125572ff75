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
	"github.com/perfprobe/linuxbench/internal/affinity"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("nicelevels", func() scenario.Scenario { return newNiceLevels(logr.Discard()) })
}

const niceSpinIterations = 100_000_000

// niceLevels runs a fixed CPU spin at increasing nice values. Conditions
// are ordered so the process priority only ever drops: raising it back
// (including the leading negative level) requires CAP_SYS_NICE, and a
// denied level skips that condition rather than aborting. On an otherwise
// idle machine the runtimes barely differ; under load, higher nice values
// should show more nonvoluntary context switches.
type niceLevels struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

func newNiceLevels(logger logr.Logger) *niceLevels {
	b, hw := newBracket(logger)
	return &niceLevels{bracket: b, hw: hw}
}

func (s *niceLevels) Name() string { return "nicelevels" }

func (s *niceLevels) Schema() []string {
	return schema([]string{"nice_level"}, false)
}

func (s *niceLevels) Preconditions(ctx context.Context) error { return nil }

func (s *niceLevels) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, nice := range []int{-5, 0, 5, 10} {
		conds = append(conds, scenario.Condition{
			Label:  fmt.Sprintf("nice%+d", nice),
			Params: []scenario.Param{{Name: "nice_level", Value: nice}},
		})
	}
	return conds
}

func (s *niceLevels) RunsPerCondition() int { return 10 }

func (s *niceLevels) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	nice := cond.Params[0].Value.(int)
	if err := affinity.SetNice(nice); err != nil {
		return nil, scenario.NewSkipCondition(cond.Label, err)
	}
	return nice, nil
}

func (s *niceLevels) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	r := workload.CPUSpin(niceSpinIterations)
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r
	rec.AppendSnapshot(&snap)
	return nil
}

func (s *niceLevels) ReleaseCondition(handle any) error { return nil }

func (s *niceLevels) Close() error {
	closeHW(s.hw)
	return nil
}
