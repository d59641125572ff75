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
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
)

func init() {
	scenario.Register("nullbaseline", func() scenario.Scenario { return newNullBaseline(logr.Discard()) })
}

// nullBaseline brackets an empty workload 100 times to establish the
// overhead floor every other scenario is measured against.
type nullBaseline struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

func newNullBaseline(logger logr.Logger) *nullBaseline {
	b, hw := newBracket(logger)
	return &nullBaseline{bracket: b, hw: hw}
}

func (s *nullBaseline) Name() string { return "nullbaseline" }

func (s *nullBaseline) Schema() []string {
	return schema(nil, false)
}

func (s *nullBaseline) Preconditions(ctx context.Context) error { return nil }

func (s *nullBaseline) Conditions() []scenario.Condition {
	return []scenario.Condition{{Label: "empty"}}
}

func (s *nullBaseline) RunsPerCondition() int { return 100 }

func (s *nullBaseline) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	return nil, nil
}

func (s *nullBaseline) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	// Deliberately empty: the measured region contains no workload at all.
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	rec.AppendSnapshot(&snap)
	return nil
}

func (s *nullBaseline) ReleaseCondition(handle any) error {
	return nil
}

func (s *nullBaseline) Close() error {
	closeHW(s.hw)
	return nil
}
